package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/homebatt/bess-go/pkg/telemetry"
)

// DefaultTimeout bounds every request round-trip.
const DefaultTimeout = 10 * time.Second

// ErrNoCredentials is returned for endpoints that require credentials
// when none are configured.
var ErrNoCredentials = errors.New("device credentials not configured")

// StatusError is returned when the device answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned status %d", e.Code)
}

// Config configures the HTTP client.
type Config struct {
	// Address is the device's host:port on the local network.
	Address string

	// Username and Password are the device's local API credentials.
	// Strategy endpoints require them; telemetry does not.
	Username string
	Password string

	// Timeout bounds each request. Defaults to DefaultTimeout when zero.
	Timeout time.Duration
}

// Client is the HTTP implementation of the device API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New creates a client for the device at cfg.Address.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  "http://" + cfg.Address,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

// HasCredentials reports whether credentials are configured. Without
// credentials the strategy endpoints are unavailable.
func (c *Client) HasCredentials() bool {
	return c.username != ""
}

// statusResponse is the wire form of the telemetry snapshot.
type statusResponse struct {
	SystemState   string        `json:"system_state"`
	Power         int           `json:"power"`
	PowerSetpoint int           `json:"power_setpoint"`
	StateOfCharge float64       `json:"state_of_charge"`
	Frequency     int64         `json:"frequency"`
	Phase1        phaseResponse `json:"renewable_energy_phase1"`
	Phase2        phaseResponse `json:"renewable_energy_phase2"`
	Phase3        phaseResponse `json:"renewable_energy_phase3"`
}

type phaseResponse struct {
	Power      int   `json:"power"`
	CurrentRMS int64 `json:"current_rms"`
	VoltageRMS int64 `json:"voltage_rms"`
}

func (p phaseResponse) toPhase() telemetry.Phase {
	return telemetry.Phase{
		RenewablePower: p.Power,
		CurrentMilli:   p.CurrentRMS,
		VoltageMilli:   p.VoltageRMS,
	}
}

type strategyResponse struct {
	Strategy string `json:"strategy"`
}

// GetStatus fetches the current telemetry snapshot.
func (c *Client) GetStatus(ctx context.Context) (*telemetry.Snapshot, error) {
	var resp statusResponse
	if err := c.get(ctx, "/api/v1/power/status", &resp); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return &telemetry.Snapshot{
		SystemState:    resp.SystemState,
		Power:          resp.Power,
		PowerSetpoint:  resp.PowerSetpoint,
		StateOfCharge:  resp.StateOfCharge,
		FrequencyMilli: resp.Frequency,
		Phases: [3]telemetry.Phase{
			resp.Phase1.toPhase(),
			resp.Phase2.toPhase(),
			resp.Phase3.toPhase(),
		},
	}, nil
}

// GetStrategy fetches the active control strategy.
func (c *Client) GetStrategy(ctx context.Context) (string, error) {
	if !c.HasCredentials() {
		return "", ErrNoCredentials
	}

	var resp strategyResponse
	if err := c.get(ctx, "/api/v1/power/strategy", &resp); err != nil {
		return "", fmt.Errorf("get strategy: %w", err)
	}
	return resp.Strategy, nil
}

// SetStrategy sets the active control strategy.
func (c *Client) SetStrategy(ctx context.Context, strategy string) error {
	if err := c.post(ctx, "/api/v1/power/strategy", strategyResponse{Strategy: strategy}); err != nil {
		return fmt.Errorf("set strategy: %w", err)
	}
	return nil
}

// SetSetpoint writes a power setpoint in watts.
func (c *Client) SetSetpoint(ctx context.Context, watts int) error {
	body := struct {
		Setpoint int `json:"setpoint"`
	}{Setpoint: watts}

	if err := c.post(ctx, "/api/v1/power/setpoint", body); err != nil {
		return fmt.Errorf("set setpoint: %w", err)
	}
	return nil
}

// GetOTAStatus fetches the firmware status for dongle and battery.
func (c *Client) GetOTAStatus(ctx context.Context) (*OTAStatus, error) {
	var resp OTAStatus
	if err := c.get(ctx, "/api/v1/ota/check", &resp); err != nil {
		return nil, fmt.Errorf("get ota status: %w", err)
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return nil, err
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Compile-time interface satisfaction check.
var _ API = (*Client)(nil)
