package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/visitor-management/internal/core/seed"
	rbacPostgres "github.com/frahmantamala/visitor-management/internal/rbac/postgres"
	"github.com/frahmantamala/visitor-management/pkg/logger"
)

var (
	clearData    bool
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed roles, the permission catalogue, the menu tree and the admin and receptionist accounts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.Configure(os.Stdout, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			return fmt.Errorf("failed to init gorm: %w", err)
		}

		res, err := seed.Run(ctx, gdb, rbacPostgres.NewRepository(gdb), seed.Options{
			Password:   seedPassword,
			BCryptCost: cfg.Security.BCryptCost,
			Clear:      clearData,
		}, lg)
		if err != nil {
			return err
		}

		for username, id := range res.Users {
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded user %s (id %d)\n", username, id)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "Password given to the seeded accounts")
}
