package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/sshsshje/sshsshje/internal/ui"
)

var actionYes bool

var restartCmd = &cobra.Command{
	Use:   "restart <service|container> <name>",
	Short: "Restart a systemd service or a Docker container",
	Long: `Restart a service or container on the monitored host, after confirmation.

Examples:
  sshsshje restart service nginx
  sshsshje restart container guacamole-web --yes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSource(cmd.Context(), func(ctx context.Context, src telemetry.Source, target string) error {
			return runRestart(ctx, src, target, args[0], args[1], os.Stdout, confirmPrompt(actionYes))
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <issue-id>",
	Short: "Apply the remediation for a diagnosed issue",
	Long: `Apply the fix for an issue reported by diagnostics, after confirmation.

Issue IDs are the ones shown by 'sshsshje status', for example
disk_full_1735360000 or service_nginx_1735360000.

Examples:
  sshsshje resolve disk_full_1735360000
  sshsshje resolve service_nginx_1735360000 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSource(cmd.Context(), func(ctx context.Context, src telemetry.Source, target string) error {
			return runResolve(ctx, src, target, args[0], os.Stdout, confirmPrompt(actionYes))
		})
	},
}

func init() {
	restartCmd.Flags().BoolVarP(&actionYes, "yes", "y", false, "skip the confirmation prompt")
	resolveCmd.Flags().BoolVarP(&actionYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(restartCmd, resolveCmd)
}

// confirmFunc asks the operator to approve an action.
type confirmFunc func(title string) (bool, error)

// confirmPrompt shows a huh confirm form. Without a terminal the action is
// refused unless assumeYes is set.
func confirmPrompt(assumeYes bool) confirmFunc {
	return func(title string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		if !isTerminal(os.Stdin) {
			return false, errors.New(errors.ErrInput,
				"Confirmation required",
				"Re-run with --yes when not attached to a terminal")
		}

		var proceed bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Affirmative("Yes").
					Negative("No").
					Value(&proceed),
			),
		)
		if err := form.Run(); err != nil {
			return false, err
		}
		return proceed, nil
	}
}

func withSource(ctx context.Context, fn func(context.Context, telemetry.Source, string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := telemetry.Open(cfg, newLogger(cfg, os.Stderr))
	if err != nil {
		return err
	}
	defer src.Close()
	return fn(ctx, src, targetLabel(cfg))
}

func runRestart(ctx context.Context, src telemetry.Source, target, kind, name string, out io.Writer, confirm confirmFunc) error {
	ok, err := confirm(fmt.Sprintf("Restart %s %s on %s?", kind, name, target))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, ui.MutedStyle().Render("Cancelled"))
		return nil
	}

	res, err := src.Restart(ctx, kind, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", ui.StatusSymbol(res.Success), res.Message)
	if res.Mock {
		fmt.Fprintln(out, ui.MutedStyle().Render("mock source: nothing was restarted"))
	}
	return nil
}

func runResolve(ctx context.Context, src telemetry.Source, target, issueID string, out io.Writer, confirm confirmFunc) error {
	ok, err := confirm(fmt.Sprintf("Resolve %s on %s?", issueID, target))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, ui.MutedStyle().Render("Cancelled"))
		return nil
	}

	res, err := src.Resolve(ctx, issueID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", ui.StatusSymbol(res.Success), res.Message)
	for _, a := range res.ActionsTaken {
		fmt.Fprintf(out, "  %s %s\n", ui.SymbolComplete, a)
	}
	if res.Mock {
		fmt.Fprintln(out, ui.MutedStyle().Render("mock source: no action was taken"))
	}
	return nil
}
