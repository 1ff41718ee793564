package config

import (
	"sort"
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/pkg/sshutil"
)

// Telemetry sources.
const (
	SourceRemote = "remote"
	SourceMock   = "mock"
	SourceLocal  = "local"
)

// Auth modes.
const (
	AuthModeAPIKey = "apikey"
	AuthModeJWT    = "jwt"
)

// Config is the complete gateway configuration.
type Config struct {
	Source    string          `yaml:"source" mapstructure:"source"`
	Remote    RemoteConfig    `yaml:"remote" mapstructure:"remote"`
	Pool      PoolConfig      `yaml:"pool" mapstructure:"pool"`
	Commands  CommandsConfig  `yaml:"commands" mapstructure:"commands"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Broadcast BroadcastConfig `yaml:"broadcast" mapstructure:"broadcast"`
	Monitor   MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// RemoteConfig identifies the monitored host.
type RemoteConfig struct {
	// Host is a hostname, IP, or ~/.ssh/config alias.
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	Password string `yaml:"password" mapstructure:"password"`

	StrictHostKey bool `yaml:"strict_host_key" mapstructure:"strict_host_key"`

	// AppHost is the host application health URLs point at. Defaults to Host.
	AppHost string `yaml:"app_host" mapstructure:"app_host"`
}

// PoolConfig sizes the SSH channel pool.
type PoolConfig struct {
	MaxSize        int           `yaml:"max_size" mapstructure:"max_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

type CommandsConfig struct {
	DefaultTimeout time.Duration `yaml:"default_timeout" mapstructure:"default_timeout"`
	ActionTimeout  time.Duration `yaml:"action_timeout" mapstructure:"action_timeout"`
	HealthTimeout  time.Duration `yaml:"health_timeout" mapstructure:"health_timeout"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen" mapstructure:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type AuthConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Mode     string        `yaml:"mode" mapstructure:"mode"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

type BroadcastConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	ErrorBackoff time.Duration `yaml:"error_backoff" mapstructure:"error_backoff"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// MonitorConfig lists what the collectors look at.
type MonitorConfig struct {
	Services []string `yaml:"services" mapstructure:"services"`
	// Applications maps a key such as "cbl_backend" to the URL checked.
	Applications map[string]string `yaml:"applications" mapstructure:"applications"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Target converts the remote section into an SSH target.
func (c *Config) Target() sshutil.Target {
	return sshutil.Target{
		Host:          c.Remote.Host,
		Port:          c.Remote.Port,
		User:          c.Remote.User,
		KeyPath:       c.Remote.KeyPath,
		Password:      c.Remote.Password,
		StrictHostKey: c.Remote.StrictHostKey,
	}
}

// ApplicationList returns the monitored applications sorted by key.
func (c *Config) ApplicationList() []collector.Application {
	keys := make([]string, 0, len(c.Monitor.Applications))
	for k := range c.Monitor.Applications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	apps := make([]collector.Application, 0, len(keys))
	for _, k := range keys {
		apps = append(apps, collector.Application{Key: k, URL: c.Monitor.Applications[k]})
	}
	return apps
}

const redacted = "********"

// Redacted returns a copy safe to print: passwords and keys are masked.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Remote.Password != "" {
		cp.Remote.Password = redacted
	}
	if cp.Auth.APIKey != "" {
		cp.Auth.APIKey = redacted
	}
	cp.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	cp.Monitor.Services = append([]string(nil), c.Monitor.Services...)
	cp.Monitor.Applications = make(map[string]string, len(c.Monitor.Applications))
	for k, v := range c.Monitor.Applications {
		cp.Monitor.Applications[k] = v
	}
	return &cp
}
