package cli

import (
	"context"
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

func newMock() *telemetry.Mock {
	return telemetry.NewMock(telemetry.MockOptions{Seed: 7})
}

// downSource is a mock whose SSH transport is gone.
type downSource struct {
	*telemetry.Mock
}

func (downSource) System(context.Context) (collector.SystemMetrics, error) {
	return collector.SystemMetrics{}, pool.ErrPoolExhausted
}

func (downSource) Health(context.Context) telemetry.Health {
	return telemetry.Health{Status: telemetry.StatusUnhealthy, Source: config.SourceRemote}
}

func testConfig() *config.Config {
	return &config.Config{
		Source: config.SourceMock,
		Remote: config.RemoteConfig{Host: "10.0.0.5", Port: 1511, User: "root"},
		Pool: config.PoolConfig{
			MaxSize:        2,
			ConnectTimeout: time.Second,
			ProbeTimeout:   time.Second,
		},
		Commands: config.CommandsConfig{
			DefaultTimeout: time.Second,
			ActionTimeout:  time.Second,
			HealthTimeout:  time.Second,
		},
		Server: config.ServerConfig{
			Listen:          "127.0.0.1:0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
		Auth: config.AuthConfig{Mode: config.AuthModeAPIKey, TokenTTL: time.Hour},
		Broadcast: config.BroadcastConfig{
			Interval:     50 * time.Millisecond,
			ErrorBackoff: 50 * time.Millisecond,
			WriteTimeout: time.Second,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}
