package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, username string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		Address:  strings.TrimPrefix(srv.URL, "http://"),
		Username: username,
		Password: "secret",
	})
}

func TestGetStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/power/status", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"system_state": "SYSTEM_STATE_RUNNING_SAFE",
			"power": -750,
			"power_setpoint": -800,
			"state_of_charge": 0.63,
			"frequency": 50005,
			"renewable_energy_phase1": {"power": 120, "current_rms": 1300, "voltage_rms": 230500},
			"renewable_energy_phase2": {"power": 60, "current_rms": 650, "voltage_rms": 229900},
			"renewable_energy_phase3": {"power": 30, "current_rms": 325, "voltage_rms": 230100}
		}`))
	})

	c := newTestClient(t, handler, "")
	snap, err := c.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SYSTEM_STATE_RUNNING_SAFE", snap.SystemState)
	assert.Equal(t, -750, snap.Power)
	assert.Equal(t, -800, snap.PowerSetpoint)
	assert.InDelta(t, 63.0, snap.StateOfChargePercent(), 1e-9)
	assert.InDelta(t, 50.005, snap.Frequency(), 1e-9)
	assert.Equal(t, 210, snap.RenewablePower())
	assert.InDelta(t, 1.3, snap.Phases[0].Current(), 1e-9)
}

func TestGetStrategyRequiresCredentials(t *testing.T) {
	c := New(Config{Address: "127.0.0.1:80"})

	_, err := c.GetStrategy(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestGetStrategySendsBasicAuth(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`{"strategy": "POWER_STRATEGY_API"}`))
	})

	c := newTestClient(t, handler, "admin")
	strategy, err := c.GetStrategy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StrategyAPI, strategy)
}

func TestSetSetpoint(t *testing.T) {
	var received struct {
		Setpoint int `json:"setpoint"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/power/setpoint", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	})

	c := newTestClient(t, handler, "")
	require.NoError(t, c.SetSetpoint(context.Background(), -2000))
	assert.Equal(t, -2000, received.Setpoint)
}

func TestSetStrategy(t *testing.T) {
	var received strategyResponse
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/power/strategy", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	})

	c := newTestClient(t, handler, "admin")
	require.NoError(t, c.SetStrategy(context.Background(), StrategyAPI))
	assert.Equal(t, StrategyAPI, received.Strategy)
}

func TestGetOTAStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ota/check", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"self":   {"installed_firmware_version": "1.6.9", "available_firmware_version": "1.7.0"},
			"serial": {"installed_firmware_version": "2.1.0", "available_firmware_version": "2.1.0"}
		}`))
	})

	c := newTestClient(t, handler, "")
	status, err := c.GetOTAStatus(context.Background())
	require.NoError(t, err)

	assert.True(t, status.Dongle.UpdateAvailable())
	assert.False(t, status.Battery.UpdateAvailable())
}

func TestStatusError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, handler, "")
	_, err := c.GetStatus(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestOTAStatusEqual(t *testing.T) {
	a := &OTAStatus{
		Dongle:  FirmwareInfo{Installed: "1.6.9", Available: "1.7.0"},
		Battery: FirmwareInfo{Installed: "2.1.0", Available: "2.1.0"},
	}
	b := &OTAStatus{
		Dongle:  FirmwareInfo{Installed: "1.6.9", Available: "1.7.0"},
		Battery: FirmwareInfo{Installed: "2.1.0", Available: "2.1.0"},
	}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(nil))

	b.Battery.Installed = "2.2.0"
	assert.False(t, a.Equal(b))
}
