package config

import (
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/spf13/viper"
)

// DefaultListen is where the API listens unless LISTEN_ADDR says otherwise.
const DefaultListen = "0.0.0.0:3001"

// DefaultAppHost is where the mock and local sources check applications when
// neither REMOTE_HOST nor SSH_HOST is set.
const DefaultAppHost = "localhost"

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"source":                 "TELEMETRY_SOURCE",
	"remote.host":            "SSH_HOST",
	"remote.port":            "SSH_PORT",
	"remote.username":        "SSH_USERNAME",
	"remote.key_path":        "SSH_KEY_PATH",
	"remote.password":        "SSH_PASSWORD",
	"remote.strict_host_key": "SSH_STRICT_HOST_KEY",
	"remote.app_host":        "REMOTE_HOST",
	"server.listen":          "LISTEN_ADDR",
	"auth.enabled":           "ENABLE_AUTH",
	"auth.mode":              "AUTH_MODE",
	"auth.api_key":           "API_KEY",
	"logging.level":          "LOG_LEVEL",
	"logging.format":         "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", SourceRemote)

	v.SetDefault("remote.port", 1511)
	v.SetDefault("remote.username", "root")
	v.SetDefault("remote.strict_host_key", false)

	v.SetDefault("pool.max_size", 5)
	v.SetDefault("pool.connect_timeout", 10*time.Second)
	v.SetDefault("pool.probe_timeout", 5*time.Second)

	v.SetDefault("commands.default_timeout", 30*time.Second)
	v.SetDefault("commands.action_timeout", 60*time.Second)
	v.SetDefault("commands.health_timeout", 5*time.Second)

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5577", "http://localhost:3000"})

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.mode", AuthModeAPIKey)
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("broadcast.interval", 30*time.Second)
	v.SetDefault("broadcast.error_backoff", 60*time.Second)
	v.SetDefault("broadcast.write_timeout", 10*time.Second)

	v.SetDefault("monitor.services", collector.DefaultServices)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func bindEnv(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}
