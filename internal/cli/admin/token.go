package admin

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/security"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for the admin endpoints",
		Long:  "Mint an HS256 token whose subject is the user id. The user still needs the admin role.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWTSecret == "" {
				return errors.New("NOSCITE_JWT_SECRET is required")
			}

			ttl := cfg.JWTTTL
			if f := cmd.Flags().Lookup("ttl"); f != nil && f.Changed {
				ttl, _ = cmd.Flags().GetDuration("ttl")
			}

			token, err := security.NewJWTManager(cfg.JWTSecret, ttl).GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to NOSCITE_JWT_TTL)")
	return cmd
}
