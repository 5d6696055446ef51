// Package api serves the daemon's local HTTP interface: controller
// status, telemetry, published capability values and the command
// endpoints. It is the surface bessctl talks to.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homebatt/bess-go/pkg/controller"
	"github.com/homebatt/bess-go/pkg/settings"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Supervisor is the controller surface the API exposes.
type Supervisor interface {
	State() controller.State
	Telemetry() (*telemetry.Snapshot, bool)
	Control() settings.Control
	SetControl(settings.Control) error
	SetSetpoint(ctx context.Context, watts int, source string) (int, error)
	SetChargeMode(ctx context.Context, mode telemetry.ChargeMode, source string) (int, error)
	SetStrategy(ctx context.Context, strategy, source string) error
	Restart(reason string)
}

// Server is the daemon's HTTP server.
type Server struct {
	supervisor Supervisor
	values     ValueSource
	store      ControlStore
	engine     *gin.Engine
	http       *http.Server
}

// ValueSource exposes the published capability values.
type ValueSource interface {
	Snapshot() map[string]any
}

// ControlStore persists control settings across daemon restarts.
// *settings.Store implements it; nil disables persistence.
type ControlStore interface {
	Save(settings.Control) error
}

// NewServer creates the HTTP server for the given controller. Settings
// updates are written through store when one is given.
func NewServer(supervisor Supervisor, values ValueSource, store ControlStore) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		supervisor: supervisor,
		values:     values,
		store:      store,
		engine:     engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/api/v1/status", s.status)
	s.engine.GET("/api/v1/telemetry", s.telemetry)
	s.engine.GET("/api/v1/capabilities", s.capabilities)
	s.engine.GET("/api/v1/settings", s.getSettings)
	s.engine.PUT("/api/v1/settings", s.putSettings)
	s.engine.POST("/api/v1/command", s.command)
	s.engine.POST("/api/v1/restart", s.restart)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	state := s.supervisor.State()
	c.JSON(http.StatusOK, statusResponse{
		WatchdogCounter: state.WatchdogCounter,
		OverrideCounter: state.OverrideCounter,
		BatteryEmpty:    state.BatteryEmpty,
		BatteryFull:     state.BatteryFull,
		Strategy:        state.LastStrategy,
		Restarting:      state.Restarting,
	})
}

func (s *Server) telemetry(c *gin.Context) {
	snap, ok := s.supervisor.Telemetry()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error: "no telemetry received yet",
		})
		return
	}

	resp := telemetryResponse{
		SystemState:    snap.DisplayState(),
		AlarmFault:     snap.AlarmFault(),
		Power:          snap.Power,
		PowerSetpoint:  snap.PowerSetpoint,
		ChargeMode:     string(snap.ChargeMode()),
		StateOfCharge:  snap.StateOfChargePercent(),
		Frequency:      snap.Frequency(),
		RenewablePower: snap.RenewablePower(),
		Strategy:       snap.Strategy,
	}
	for i, phase := range snap.Phases {
		resp.Phases[i] = phaseResponse{
			RenewablePower: phase.RenewablePower,
			Current:        phase.Current(),
			Voltage:        phase.Voltage(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, s.values.Snapshot())
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.Control())
}

func (s *Server) putSettings(c *gin.Context) {
	var control settings.Control
	if err := c.ShouldBindJSON(&control); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.supervisor.SetControl(control); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// Persist so the change survives a daemon restart.
	if s.store != nil {
		if err := s.store.Save(s.supervisor.Control()); err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse{
				Error: "settings applied but not persisted: " + err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, s.supervisor.Control())
}

func (s *Server) command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	ctx := c.Request.Context()

	var (
		written int
		err     error
	)
	switch req.Kind {
	case "setpoint":
		written, err = s.supervisor.SetSetpoint(ctx, req.Setpoint, req.Source)
	case "charge_mode":
		written, err = s.supervisor.SetChargeMode(ctx, telemetry.ChargeMode(req.Mode), req.Source)
	case "strategy":
		err = s.supervisor.SetStrategy(ctx, req.Strategy, req.Source)
	default:
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "unknown command kind: " + req.Kind,
		})
		return
	}

	if errors.Is(err, controller.ErrNotControlling) {
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, commandResponse{Written: written})
}

func (s *Server) restart(c *gin.Context) {
	var req restartRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "restart requested over API"
	}

	s.supervisor.Restart(req.Reason)
	c.JSON(http.StatusAccepted, gin.H{"restarting": true})
}
