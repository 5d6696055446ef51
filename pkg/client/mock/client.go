// Package mock provides a mock device client for testing.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/homebatt/bess-go/pkg/client"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Client is a mock implementation of the device API.
type Client struct {
	mock.Mock
}

// GetStatus fetches the current telemetry snapshot.
func (m *Client) GetStatus(ctx context.Context) (*telemetry.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*telemetry.Snapshot)
	return snap, args.Error(1)
}

// GetStrategy fetches the active control strategy.
func (m *Client) GetStrategy(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// SetStrategy sets the active control strategy.
func (m *Client) SetStrategy(ctx context.Context, strategy string) error {
	args := m.Called(ctx, strategy)
	return args.Error(0)
}

// SetSetpoint writes a power setpoint in watts.
func (m *Client) SetSetpoint(ctx context.Context, watts int) error {
	args := m.Called(ctx, watts)
	return args.Error(0)
}

// GetOTAStatus fetches the firmware status for dongle and battery.
func (m *Client) GetOTAStatus(ctx context.Context) (*client.OTAStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(*client.OTAStatus)
	return status, args.Error(1)
}

// Compile-time interface satisfaction check.
var _ client.API = (*Client)(nil)
