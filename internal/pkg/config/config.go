package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const envDevelopment = "development"

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:5173"`
	// PublicURL is where this API is reachable; OAuth callbacks hang off it.
	PublicURL     string `env:"PUBLIC_URL,     default=http://localhost:8080"`
	StateSecret   string `env:"STATE_SECRET"`
	NotifyWorkers int    `env:"NOTIFY_WORKERS, default=4"`

	Session  SessionConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Google   OAuthConfig `env:", prefix=GOOGLE_"`
	LinkedIn OAuthConfig `env:", prefix=LINKEDIN_"`
	SMTP     SMTPConfig
	Admin    AdminConfig
}

type SessionConfig struct {
	TTL     time.Duration `env:"SESSION_TTL,     default=24h"`
	Sliding bool          `env:"SESSION_SLIDING, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=voting"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	// CallbackURL overrides PublicURL + /api/auth/<provider>/callback.
	CallbackURL string `env:"CALLBACK_URL"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=no-reply@localhost"`
}

type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME, default=Admin User"`
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, envDevelopment)
}

// SMTPEnabled reports whether reset mails can be delivered.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// Load reads a .env file when one exists, then configuration from
// environment variables using go-envconfig. Variables already set in the
// environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StateSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("config: STATE_SECRET is required outside development")
		}
		c.StateSecret = "development-state-secret"
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}
