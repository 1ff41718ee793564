package config

import (
	"os"
	"strings"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(ExpandTilde(path))
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+path,
					"Check the path passed to --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	normalize(cfg)
	return cfg, nil
}

// normalize fills derived values after unmarshalling.
func normalize(cfg *Config) {
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	cfg.Remote.KeyPath = ExpandTilde(cfg.Remote.KeyPath)

	if cfg.Remote.AppHost == "" {
		cfg.Remote.AppHost = cfg.Remote.Host
	}
	if cfg.Remote.AppHost == "" && cfg.Source != SourceRemote {
		cfg.Remote.AppHost = DefaultAppHost
	}
	if len(cfg.Monitor.Applications) == 0 && cfg.Remote.AppHost != "" {
		cfg.Monitor.Applications = make(map[string]string)
		for _, app := range collector.DefaultApplications(cfg.Remote.AppHost) {
			cfg.Monitor.Applications[app.Key] = app.URL
		}
	}
}
