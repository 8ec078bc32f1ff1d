package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/service"
)

// systemActor marks audit entries written from the command line.
var systemActor = uuid.Nil

func backfillRecipesCommand(cfg *config.Config) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "backfill-recipes",
		Short: "Moves legacy recipes into the personal and company tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			report, err := service.NewBackfillService(db).BackfillRecipes(ctx, dryRun)
			if err != nil {
				return err
			}
			logger.Info(ctx, "recipe backfill finished",
				zap.Bool("dry_run", dryRun),
				zap.Int("personal", report.Personal),
				zap.Int("company", report.Company),
				zap.Int("skipped", report.Skipped),
				zap.Int("orphaned", report.Orphaned))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would move without writing")
	return cmd
}

func backfillMembershipsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-memberships",
		Short: "Adds the owner membership to companies that lack one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			created, err := service.NewAdminService(db, nil, service.NewAuditService(db)).BackfillMemberships(ctx)
			if err != nil {
				return err
			}
			logger.Info(ctx, "membership backfill finished", zap.Int("created", created))
			return nil
		},
	}
}

func deleteUserCommand(cfg *config.Config) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "delete-user",
		Short: "Deletes a user and everything they own",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			admin := service.NewAdminService(db, nil, service.NewAuditService(db))
			user, err := admin.FindUserByEmail(ctx, email)
			if err != nil {
				return err
			}
			if err := admin.DeleteUser(ctx, systemActor, user.ID); err != nil {
				return err
			}
			logger.Info(ctx, "user deleted", zap.String("email", user.Email), zap.String("user_id", user.ID.String()))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user to delete")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func makeAdminCommand(cfg *config.Config) *cobra.Command {
	var (
		email  string
		revoke bool
	)
	cmd := &cobra.Command{
		Use:   "make-admin",
		Short: "Grants or revokes administrator access",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			admin := service.NewAdminService(db, nil, service.NewAuditService(db))
			user, err := admin.FindUserByEmail(ctx, email)
			if err != nil {
				return err
			}
			if _, err := admin.SetAdmin(ctx, systemActor, user.ID, !revoke); err != nil {
				return err
			}
			logger.Info(ctx, "admin flag updated", zap.String("email", user.Email), zap.Bool("is_admin", !revoke))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove administrator access instead")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func testEmailCommand(cfg *config.Config) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "test-email",
		Short: "Sends a test message through the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := newEmailService(ctx, cfg)

			body := fmt.Sprintf("<p>Test message sent at %s via %s.</p>", time.Now().Format(time.RFC1123), cfg.EmailProvider)
			if err := email.SendEmail(ctx, to, "Gastro-Elite test email", body); err != nil {
				return err
			}
			logger.Info(ctx, "test email sent", zap.String("to", to), zap.String("provider", cfg.EmailProvider))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func expireInvitationsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-invitations",
		Short: "Marks pending invitations past their deadline as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			expired, err := service.NewInvitationService(db, nil, service.NewAuditService(db)).ExpireStale(ctx)
			if err != nil {
				return err
			}
			logger.Info(ctx, "invitations expired", zap.Int64("count", expired))
			return nil
		},
	}
}

func seedCategoriesCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Creates the default global categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			created, err := service.NewCategoryService(db, service.NewAuditService(db)).SeedDefaults(ctx)
			if err != nil {
				return err
			}
			logger.Info(ctx, "categories seeded", zap.Int("created", created))
			return nil
		},
	}
}

func seedDemoCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Creates demo users, a demo company and sample recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Environment == config.Production {
				return fmt.Errorf("refusing to seed demo data in production")
			}
			ctx := cmd.Context()
			db, closeDB := openDB(ctx, cfg)
			defer closeDB()

			audit := service.NewAuditService(db)
			seed := service.NewSeedService(db, service.NewRecipeService(db, audit), service.NewCategoryService(db, audit))
			report, err := seed.SeedDemo(ctx)
			if err != nil {
				return err
			}
			logger.Info(ctx, "demo data seeded",
				zap.Int("users", report.Users),
				zap.Int("categories", report.Categories),
				zap.Int("recipes", report.Recipes),
				zap.String("password", service.DemoPassword))
			return nil
		},
	}
}
