package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/sshsshje/sshsshje/internal/ui"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot report of the monitored host",
	Long: `Collect system metrics, services, containers, application health and
diagnostics once through the configured source and print them.

Exits 1 when the host is unreachable.

Examples:
  sshsshje status
  sshsshje status --json | jq .data.diagnostics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd.Context())
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

// statusOutput is the --json payload.
type statusOutput struct {
	Source       string                         `json:"source"`
	Target       string                         `json:"target"`
	Health       telemetry.Health               `json:"health"`
	System       *collector.SystemMetrics       `json:"system,omitempty"`
	Services     *collector.ServicesSummary     `json:"services,omitempty"`
	Containers   *collector.ContainersSummary   `json:"containers,omitempty"`
	Applications *collector.ApplicationsSummary `json:"applications,omitempty"`
	Diagnostics  *collector.Diagnostics         `json:"diagnostics,omitempty"`
	Errors       map[string]string              `json:"errors,omitempty"`
}

func statusCommand(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := telemetry.Open(cfg, newLogger(cfg, os.Stderr))
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Commands.DefaultTimeout+cfg.Pool.ConnectTimeout)
	defer cancel()

	return runStatus(ctx, src, targetLabel(cfg), os.Stdout, statusJSON, isTerminal(os.Stdout))
}

func runStatus(ctx context.Context, src telemetry.Source, target string, out io.Writer, asJSON, spin bool) error {
	var sp *ui.Spinner
	if spin && !asJSON {
		sp = ui.NewSpinner("Collecting from "+target, out)
		sp.Start()
	}

	res := gatherStatus(ctx, src, target)
	connected := res.Health.Status == telemetry.StatusHealthy && res.Health.SSHConnection

	if sp != nil {
		if connected {
			sp.Success()
		} else {
			sp.Fail()
		}
	}

	if asJSON {
		if err := WriteJSONSuccess(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, ui.RenderStatus(ui.StatusReport{
			Source:       res.Source,
			Target:       res.Target,
			Connected:    connected,
			System:       res.System,
			Services:     res.Services,
			Containers:   res.Containers,
			Applications: res.Applications,
			Diagnostics:  res.Diagnostics,
			Errors:       res.Errors,
		}))
	}

	if !connected {
		return errors.NewExitError(1)
	}
	return nil
}

// gatherStatus queries every section concurrently. A failed section is left
// nil and its error recorded under the section name. Diagnostics are scored
// from the sections already fetched rather than probed a second time.
func gatherStatus(ctx context.Context, src telemetry.Source, target string) statusOutput {
	res := statusOutput{Source: src.Name(), Target: target}

	var mu sync.Mutex
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if res.Errors == nil {
			res.Errors = make(map[string]string)
		}
		res.Errors[section] = errors.Summary(err)
	}

	var g errgroup.Group
	g.Go(func() error {
		res.Health = src.Health(ctx)
		return nil
	})
	g.Go(func() error {
		if m, err := src.System(ctx); err != nil {
			fail(ui.SectionSystem, err)
		} else {
			res.System = &m
		}
		return nil
	})
	g.Go(func() error {
		if s, err := src.Services(ctx); err != nil {
			fail(ui.SectionServices, err)
		} else {
			res.Services = &s
		}
		return nil
	})
	g.Go(func() error {
		if c, err := src.Containers(ctx); err != nil {
			fail(ui.SectionContainers, err)
		} else {
			res.Containers = &c
		}
		return nil
	})
	g.Go(func() error {
		a := src.Applications(ctx)
		res.Applications = &a
		return nil
	})
	_ = g.Wait()

	if res.System != nil && res.Services != nil && res.Containers != nil {
		d := collector.Diagnose(*res.System, *res.Services, *res.Containers, time.Now())
		res.Diagnostics = &d
	} else {
		res.Errors[ui.SectionDiagnostics] = "needs system, services and containers"
	}

	return res
}
