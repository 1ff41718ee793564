package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshsshje/sshsshje/internal/monitor"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"monitor"},
	Short:   "Live terminal dashboard for the monitored host",
	Long: `Open a full-screen dashboard that refreshes system metrics, services,
containers and diagnostics from the configured source.

Keys: tab/shift+tab switch tabs, r refreshes now, ? toggles help, q quits.

Examples:
  sshsshje watch
  sshsshje watch --interval 2s
  TELEMETRY_SOURCE=local sshsshje watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand()
	},
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", monitor.DefaultInterval, "refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func watchCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The dashboard owns the terminal; logs would tear the screen.
	cfg.Logging.Level = "error"
	src, err := telemetry.Open(cfg, newLogger(cfg, os.Stderr))
	if err != nil {
		return err
	}
	defer src.Close()

	return monitor.Run(src, targetLabel(cfg), watchInterval, cfg.Commands.DefaultTimeout)
}
