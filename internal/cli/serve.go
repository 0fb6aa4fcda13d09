package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ballotbox/voting-api/internal/api"
	"github.com/ballotbox/voting-api/internal/api/handler"
	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/service"
	mongostore "github.com/ballotbox/voting-api/internal/infrastructure/db/mongo"
	redisstore "github.com/ballotbox/voting-api/internal/infrastructure/db/redis"
	"github.com/ballotbox/voting-api/internal/infrastructure/notify"
	"github.com/ballotbox/voting-api/internal/infrastructure/oauth"
	"github.com/ballotbox/voting-api/internal/infrastructure/queue"
	"github.com/ballotbox/voting-api/internal/pkg/config"
	"github.com/ballotbox/voting-api/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	oauthStateTTL   = 10 * time.Minute
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Configuration comes from the environment (and a .env file when present):
MongoDB, Redis, OAuth client credentials, SMTP and session settings.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	log := logger.Get()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db)
	candidates := mongostore.NewCandidateRepository(db)
	votes := mongostore.NewVoteRepository(db)

	// Workers outlive the signal context so mails queued by in-flight requests
	// still go out while the server shuts down.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, resetSender(cfg, log), log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	sessions := service.NewSessionService(redisstore.NewSessionStore(rdb), users, cfg.Session.TTL, cfg.Session.Sliding, log)
	ledger := service.NewVoteService(candidates, votes, users, log)

	router := api.NewRouter(api.Dependencies{
		Identity:  service.NewIdentityService(users, log),
		Sessions:  sessions,
		Resets:    service.NewPasswordResetService(users, dispatcher, cfg.FrontendURL, log),
		Votes:     ledger,
		Admin:     service.NewAdminService(candidates, votes, users, ledger, log),
		Providers: oauthProviders(cfg, log),
		States:    oauth.NewStateSigner(cfg.StateSecret, oauthStateTTL),
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingerFunc(func(ctx context.Context) error { return mongostore.Ping(ctx, db) }),
			"redis":   handler.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		FrontendURL:   cfg.FrontendURL,
		SecureCookies: !cfg.IsDevelopment(),
		Logger:        log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// resetSender mails through SMTP when configured and logs the link otherwise.
func resetSender(cfg *config.Config, log zerolog.Logger) queue.Sender {
	if !cfg.SMTPEnabled() {
		log.Warn().Msg("SMTP not configured, reset links will only be logged")
		return notify.NewLogSender(log)
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// oauthProviders returns the providers that have client credentials.
func oauthProviders(cfg *config.Config, log zerolog.Logger) []handler.IdentityProvider {
	var out []handler.IdentityProvider
	for _, p := range []struct {
		name  domain.Provider
		creds config.OAuthConfig
		build func(oauth.Config) oauth.Provider
	}{
		{domain.ProviderGoogle, cfg.Google, oauth.NewGoogle},
		{domain.ProviderLinkedIn, cfg.LinkedIn, oauth.NewLinkedIn},
	} {
		pc := oauth.Config{
			ClientID:     p.creds.ClientID,
			ClientSecret: p.creds.ClientSecret,
			RedirectURL:  p.creds.CallbackURL,
		}
		if !pc.Enabled() {
			log.Info().Str("provider", string(p.name)).Msg("oauth provider disabled")
			continue
		}
		if pc.RedirectURL == "" {
			pc.RedirectURL = fmt.Sprintf("%s/api/auth/%s/callback", cfg.PublicURL, p.name)
		}
		out = append(out, p.build(pc))
	}
	return out
}
