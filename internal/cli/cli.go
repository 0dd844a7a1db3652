package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/saarthak-backend/internal/app"
	"github.com/yungbote/saarthak-backend/internal/data/db"
	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/services"
)

type options struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "saarthak",
		Short:         "SAARTHAK campaign consultancy site",
		Long:          "Serves the public site and the admin panel for videos, posters and contact submissions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (environment variables take precedence)")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newAdminCommand(opts))
	return root
}

func (o *options) load() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, log, nil
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			a, err := app.New(ctx, log, cfg)
			if err != nil {
				log.Error("Startup failed", "error", err)
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			theDB, err := app.OpenDB(log, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(theDB) }()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newAdminCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin access",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "grant [email]",
		Short: "Grant admin access to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd, opts, args[0], true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke [email]",
		Short: "Revoke admin access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd, opts, args[0], false)
		},
	})
	return cmd
}

func setAdmin(cmd *cobra.Command, opts *options, email string, isAdmin bool) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	theDB, err := app.OpenDB(log, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(theDB) }()

	users := services.NewUserService(log, userrepo.NewUserRepo(theDB, log))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	u, err := users.SetAdminByEmail(ctx, email, isAdmin)
	if err != nil {
		return fmt.Errorf("update %s: %w", email, err)
	}
	verb := "granted"
	if !isAdmin {
		verb = "revoked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin access %s for %s\n", verb, u.Email)
	return nil
}
