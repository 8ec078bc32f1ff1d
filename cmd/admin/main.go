// Command admin runs maintenance tasks against the Gastro-Elite database.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/database"
	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/service"
)

// openDB connects to the configured database and returns it along with a
// cleanup function that closes the pool.
func openDB(ctx context.Context, cfg *config.Config) (*gorm.DB, func()) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "could not connect to database", zap.Error(err))
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			logger.Warn(ctx, "could not close database connection", zap.Error(err))
		}
	}
}

func newEmailService(ctx context.Context, cfg *config.Config) *service.EmailService {
	sender, err := service.NewSender(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "could not create email sender", zap.Error(err))
	}
	email, err := service.NewEmailService(sender, cfg.AppURL, cfg.AdminEmail)
	if err != nil {
		logger.Fatal(ctx, "could not create email service", zap.Error(err))
	}
	return email
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Gastro-Elite maintenance commands",
		SilenceUsage: true,
	}

	logger.Setup(config.GetEnvironment().String())
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(ctx, "could not load configuration", zap.Error(err))
	}

	rootCmd.AddCommand(
		backfillRecipesCommand(cfg),
		backfillMembershipsCommand(cfg),
		deleteUserCommand(cfg),
		makeAdminCommand(cfg),
		testEmailCommand(cfg),
		expireInvitationsCommand(cfg),
		seedCategoriesCommand(cfg),
		seedDemoCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
