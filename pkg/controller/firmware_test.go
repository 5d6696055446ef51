package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homebatt/bess-go/pkg/capability"
	"github.com/homebatt/bess-go/pkg/client"
	clientmock "github.com/homebatt/bess-go/pkg/client/mock"
)

func triggersNamed(sink *capability.MemorySink, name string) []capability.TriggerRecord {
	var out []capability.TriggerRecord
	for _, rec := range sink.Triggers() {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out
}

func TestFirmwareNewVersionAvailable(t *testing.T) {
	api := &clientmock.Client{}
	api.On("GetStatus", mock.Anything).Return(healthySnapshot(), nil)
	api.On("GetStrategy", mock.Anything).Return(client.StrategyAPI, nil)
	api.On("GetOTAStatus", mock.Anything).Return(&client.OTAStatus{
		Dongle:  client.FirmwareInfo{Installed: "1.0.0", Available: "1.1.0"},
		Battery: client.FirmwareInfo{Installed: "2.0.0", Available: "2.0.0"},
	}, nil).Once()

	c, sink := newTestController(api)
	c.Tick(context.Background())

	fired := triggersNamed(sink, capability.TriggerNewFirmwareAvailable)
	require.Len(t, fired, 1)
	assert.Equal(t, "dongle", fired[0].Tokens["component"])
	assert.Equal(t, "1.1.0", fired[0].Tokens["version"])

	assert.Empty(t, triggersNamed(sink, capability.TriggerFirmwareChanged))
	api.AssertExpectations(t)
}

func TestFirmwareInstalledChange(t *testing.T) {
	api := &clientmock.Client{}
	api.On("GetStatus", mock.Anything).Return(healthySnapshot(), nil)
	api.On("GetStrategy", mock.Anything).Return(client.StrategyAPI, nil)
	api.On("GetOTAStatus", mock.Anything).Return(&client.OTAStatus{
		Dongle:  client.FirmwareInfo{Installed: "1.0.0", Available: "1.1.0"},
		Battery: client.FirmwareInfo{Installed: "2.0.0", Available: "2.0.0"},
	}, nil).Once()
	api.On("GetOTAStatus", mock.Anything).Return(&client.OTAStatus{
		Dongle:  client.FirmwareInfo{Installed: "1.1.0", Available: "1.1.0"},
		Battery: client.FirmwareInfo{Installed: "2.0.0", Available: "2.0.0"},
	}, nil).Once()

	c, sink := newTestController(api)

	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	c.Tick(ctx)

	clock = clock.Add(FirmwareCheckInterval + time.Minute)
	c.Tick(ctx)

	changed := triggersNamed(sink, capability.TriggerFirmwareChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "dongle", changed[0].Tokens["component"])
	assert.Equal(t, "1.1.0", changed[0].Tokens["version"])

	notifications := sink.Notifications()
	require.Len(t, notifications, 1)
	assert.True(t, strings.Contains(notifications[0], "dongle"))
	assert.True(t, strings.Contains(notifications[0], "1.1.0"))

	// The available version did not change between checks, so the
	// new-version trigger fires only once, on the first check.
	assert.Len(t, triggersNamed(sink, capability.TriggerNewFirmwareAvailable), 1)
	api.AssertExpectations(t)
}

func TestFirmwareCheckRateLimited(t *testing.T) {
	api := &clientmock.Client{}
	api.On("GetStatus", mock.Anything).Return(healthySnapshot(), nil)
	api.On("GetStrategy", mock.Anything).Return(client.StrategyAPI, nil)
	api.On("GetOTAStatus", mock.Anything).Return(&client.OTAStatus{}, nil).Once()

	c, _ := newTestController(api)

	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	c.Tick(ctx)

	clock = clock.Add(30 * time.Minute)
	c.Tick(ctx)
	c.Tick(ctx)

	api.AssertNumberOfCalls(t, "GetOTAStatus", 1)
}

func TestFirmwareCheckErrorDoesNotFailPoll(t *testing.T) {
	api := &clientmock.Client{}
	api.On("GetStatus", mock.Anything).Return(healthySnapshot(), nil)
	api.On("GetStrategy", mock.Anything).Return(client.StrategyAPI, nil)
	api.On("GetOTAStatus", mock.Anything).Return(nil, errors.New("update server down")).Once()

	c, sink := newTestController(api)
	c.Tick(context.Background())

	assert.Equal(t, WatchdogStart, c.State().WatchdogCounter)
	assert.Empty(t, sink.Triggers())
}

func TestFirmwareBothComponents(t *testing.T) {
	api := &clientmock.Client{}
	api.On("GetStatus", mock.Anything).Return(healthySnapshot(), nil)
	api.On("GetStrategy", mock.Anything).Return(client.StrategyAPI, nil)
	api.On("GetOTAStatus", mock.Anything).Return(&client.OTAStatus{
		Dongle:  client.FirmwareInfo{Installed: "1.0.0", Available: "1.1.0"},
		Battery: client.FirmwareInfo{Installed: "2.0.0", Available: "2.3.0"},
	}, nil).Once()

	c, sink := newTestController(api)
	c.Tick(context.Background())

	fired := triggersNamed(sink, capability.TriggerNewFirmwareAvailable)
	require.Len(t, fired, 2)
	assert.Equal(t, "dongle", fired[0].Tokens["component"])
	assert.Equal(t, "battery", fired[1].Tokens["component"])
}
