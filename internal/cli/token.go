package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshsshje/sshsshje/internal/auth"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for auth.mode=jwt",
	Long: `Print an HS256 token signed with the configured API key. Clients send it
as "Authorization: Bearer <token>" when the gateway runs with AUTH_MODE=jwt.

Examples:
  sshsshje token
  sshsshje token --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runToken(cfg, tokenTTL, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cfg *config.Config, ttl time.Duration, out, diag io.Writer) error {
	if cfg.Auth.Mode != config.AuthModeJWT {
		return errors.New(errors.ErrConfig,
			"Tokens are only used in jwt mode",
			"Set AUTH_MODE=jwt (or auth.mode: jwt) on the gateway")
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, expires, err := auth.New(true, auth.ModeJWT, cfg.Auth.APIKey).Issue(ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	fmt.Fprintf(diag, "expires %s\n", expires.Format(time.RFC3339))
	return nil
}
