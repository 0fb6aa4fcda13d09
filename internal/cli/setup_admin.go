package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ballotbox/voting-api/internal/core/service"
	mongostore "github.com/ballotbox/voting-api/internal/infrastructure/db/mongo"
	"github.com/ballotbox/voting-api/pkg/logger"
)

// SetupAdminOptions holds flags for the setup-admin command. Empty values
// fall back to ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.
type SetupAdminOptions struct {
	*RootOptions
	Email    string
	Password string
	Name     string
}

// NewSetupAdminCommand creates the setup-admin command.
func NewSetupAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetupAdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "setup-admin",
		Short: "Create or refresh the administrator account",
		Long: `Create the administrator account, or reset its password and admin flag
if the email is already registered.

Example:
  voting setup-admin --email admin@example.com --password 's3cret!'
  ADMIN_EMAIL=admin@example.com ADMIN_PASSWORD=s3cret voting setup-admin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetupAdmin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "admin email (default $ADMIN_EMAIL)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (default $ADMIN_NAME)")

	return cmd
}

func runSetupAdmin(cmd *cobra.Command, opts *SetupAdminOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := bootstrap(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	log := logger.Get()

	email := firstNonEmpty(opts.Email, cfg.Admin.Email)
	password := firstNonEmpty(opts.Password, cfg.Admin.Password)
	name := firstNonEmpty(opts.Name, cfg.Admin.Name)
	if email == "" || password == "" {
		return errors.New("setup-admin: email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	users := mongostore.NewUserRepository(db)
	candidates := mongostore.NewCandidateRepository(db)
	votes := mongostore.NewVoteRepository(db)
	ledger := service.NewVoteService(candidates, votes, users, log)
	admin := service.NewAdminService(candidates, votes, users, ledger, log)

	user, created, err := admin.EnsureAdmin(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("setup-admin: %w", err)
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Admin account %s: %s (id %s)\n", verb, user.Email, user.ID)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
