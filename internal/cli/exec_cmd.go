package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/runner"
)

var (
	execTimeout time.Duration
	execJSON    bool
)

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Run one command on the monitored host",
	Long: `Run a command through the same SSH pool and runner the gateway uses and
print its output. The exit code mirrors the remote exit status.

Examples:
  sshsshje exec uptime
  sshsshje exec systemctl is-active nginx
  sshsshje exec df -h /
  sshsshje exec --json "df -h /"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execCommand(cmd.Context(), args)
	},
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", runner.DefaultTimeout, "command timeout")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the command result as JSON")
	// Flags after the command belong to it: sshsshje exec df -h /
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd)
}

func execCommand(ctx context.Context, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ex, closeFn, err := openExecutor(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return runExec(ctx, ex, strings.Join(args, " "), execTimeout, os.Stdout, os.Stderr, execJSON)
}

// openExecutor returns the executor for the configured source and a func
// that releases it.
func openExecutor(cfg *config.Config) (runner.Executor, func(), error) {
	log := newLogger(cfg, os.Stderr)

	switch cfg.Source {
	case config.SourceRemote:
		p := pool.New(cfg.Target(), pool.Options{
			MaxSize:        1,
			ConnectTimeout: cfg.Pool.ConnectTimeout,
			ProbeTimeout:   cfg.Pool.ProbeTimeout,
			Logger:         log,
		})
		return runner.New(p, log), p.Close, nil
	case config.SourceLocal:
		return runner.LocalExecutor{}, func() {}, nil
	default:
		return nil, nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("exec is not available for the %s source", cfg.Source),
			"Set TELEMETRY_SOURCE to remote or local")
	}
}

func runExec(ctx context.Context, ex runner.Executor, command string, timeout time.Duration, stdout, stderr io.Writer, asJSON bool) error {
	res := ex.Run(ctx, command, timeout)

	if asJSON {
		if err := WriteJSONSuccess(stdout, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(stdout, res.Stdout)
		if res.Err == nil {
			fmt.Fprint(stderr, res.Stderr)
		}
	}

	if res.Err != nil {
		return res.Err
	}
	if res.ExitStatus != 0 {
		return errors.NewExitError(res.ExitStatus)
	}
	return nil
}
