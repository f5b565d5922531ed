package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"setquiz/internal/auth"
	"setquiz/internal/config"
)

// NewTokenCmd prints an administrator bearer token for question uploads.
func NewTokenCmd(configPath *string) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an administrator token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ttl := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
			tok, err := auth.NewService(cfg.Auth.Secret).Issue(subject, auth.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	return cmd
}
