package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/ui"
)

// Global flags
var (
	cfgFile string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "sshsshje",
	Short: "Monitoring gateway for a remote host over SSH",
	Long: `sshsshje watches one remote host over a pool of SSH connections and
serves its metrics, services, containers, application health and security
state over HTTP and WebSocket.

Configuration comes from an optional YAML file (--config) overlaid by
environment variables such as SSH_HOST, SSH_USERNAME and API_KEY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || !isTerminal(os.Stdout) {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML); environment variables take precedence")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on failure. An
// ExitError exits with its code and prints nothing.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
}

// targetLabel names what the configured source is looking at.
func targetLabel(cfg *config.Config) string {
	switch cfg.Source {
	case config.SourceRemote:
		return cfg.Target().String()
	case config.SourceLocal:
		return "localhost"
	default:
		return cfg.Source
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
