package config

import (
	"fmt"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
)

// Validate checks the config and returns the first problem found as a
// structured CONFIG error.
func Validate(cfg *Config) error {
	switch cfg.Source {
	case SourceRemote, SourceMock, SourceLocal:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown telemetry source %q", cfg.Source),
			"Set TELEMETRY_SOURCE to remote, mock or local")
	}

	if cfg.Source == SourceRemote {
		if cfg.Remote.Host == "" {
			return errors.New(errors.ErrConfig,
				"No remote host configured",
				"Export SSH_HOST or set remote.host in the config file")
		}
		if cfg.Remote.Port < 1 || cfg.Remote.Port > 65535 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("SSH port %d is out of range", cfg.Remote.Port),
				"Use a port between 1 and 65535")
		}
		if cfg.Remote.User == "" {
			return errors.New(errors.ErrConfig,
				"No SSH username configured",
				"Export SSH_USERNAME or set remote.username")
		}
	}

	if cfg.Pool.MaxSize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("pool.max_size must be at least 1, got %d", cfg.Pool.MaxSize),
			"")
	}

	for name, d := range map[string]int64{
		"pool.connect_timeout":     int64(cfg.Pool.ConnectTimeout),
		"pool.probe_timeout":       int64(cfg.Pool.ProbeTimeout),
		"commands.default_timeout": int64(cfg.Commands.DefaultTimeout),
		"commands.action_timeout":  int64(cfg.Commands.ActionTimeout),
		"commands.health_timeout":  int64(cfg.Commands.HealthTimeout),
		"broadcast.interval":       int64(cfg.Broadcast.Interval),
		"broadcast.error_backoff":  int64(cfg.Broadcast.ErrorBackoff),
	} {
		if d <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s must be positive", name),
				"Use a Go duration such as 30s or 1m")
		}
	}

	if cfg.Auth.Mode != AuthModeAPIKey && cfg.Auth.Mode != AuthModeJWT {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown auth mode %q", cfg.Auth.Mode),
			"Use apikey or jwt")
	}
	if cfg.Auth.Enabled && cfg.Auth.APIKey == "" {
		return errors.New(errors.ErrConfig,
			"Auth is enabled but no API key is set",
			"Export API_KEY, or set ENABLE_AUTH=false")
	}

	for _, name := range cfg.Monitor.Services {
		if !collector.ValidServiceName(name) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Invalid service name %q in monitor.services", name),
				"Names may contain letters, digits, '@', '.', '_' and '-'")
		}
	}

	if cfg.Server.Listen == "" {
		return errors.New(errors.ErrConfig, "server.listen is empty", "Set LISTEN_ADDR, e.g. 0.0.0.0:3001")
	}

	return nil
}
