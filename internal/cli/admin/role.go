package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/repository"
	"github.com/noscite/noscite-assistant/internal/service"
)

func RoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Grant or revoke user roles",
	}
	cmd.AddCommand(roleGrantCmd(), roleRevokeCmd())
	return cmd
}

func roleGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user-id> <role>",
		Short: "Grant a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoleService(cmd, func(svc *service.RoleService) error {
				if err := svc.Grant(cmd.Context(), args[0], domain.Role(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func roleRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <user-id> <role>",
		Short: "Revoke a role from a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoleService(cmd, func(svc *service.RoleService) error {
				removed, err := svc.Revoke(cmd.Context(), args[0], domain.Role(args[1]))
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s did not have role %s\n", args[0], args[1])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func withRoleService(cmd *cobra.Command, fn func(*service.RoleService) error) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pool, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(service.NewRoleService(repository.NewRoleRepository(pool)))
}
