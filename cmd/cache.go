package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rbacPostgres "github.com/frahmantamala/visitor-management/internal/rbac/postgres"
)

var (
	invalidateRole int64
	invalidateAll  bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the permission cache",
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Resolve every role so the cache starts hot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withResolver(cmd, func(ctx context.Context, deps *Dependencies) error {
			roles, err := rbacPostgres.NewRepository(deps.Gorm).ListRoles(ctx)
			if err != nil {
				return fmt.Errorf("list roles: %w", err)
			}
			for _, role := range roles {
				set, err := deps.Resolver.Resolve(ctx, role.ID)
				if err != nil {
					return fmt.Errorf("resolve role %d: %w", role.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "role %d (%s): %d permissions\n", role.ID, role.Name, set.Len())
			}
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached permission sets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if invalidateRole <= 0 && !invalidateAll {
			return fmt.Errorf("either --role or --all is required")
		}
		return withResolver(cmd, func(ctx context.Context, deps *Dependencies) error {
			ids := []int64{invalidateRole}
			if invalidateAll {
				roles, err := rbacPostgres.NewRepository(deps.Gorm).ListRoles(ctx)
				if err != nil {
					return fmt.Errorf("list roles: %w", err)
				}
				ids = ids[:0]
				for _, role := range roles {
					ids = append(ids, role.ID)
				}
			}
			for _, id := range ids {
				if err := deps.Resolver.Invalidate(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated role %d\n", id)
			}
			return nil
		})
	},
}

func withResolver(cmd *cobra.Command, fn func(ctx context.Context, deps *Dependencies) error) error {
	ctx := context.Background()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}
	defer deps.Close()
	return fn(ctx, deps)
}

func init() {
	cacheInvalidateCmd.Flags().Int64Var(&invalidateRole, "role", 0, "role id whose cached permissions are dropped")
	cacheInvalidateCmd.Flags().BoolVar(&invalidateAll, "all", false, "drop the cached permissions of every role")

	cacheCmd.AddCommand(cacheWarmCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}
