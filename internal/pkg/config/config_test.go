package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.Mongo.Database != "voting" || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Session.Sliding {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.StateSecret == "" {
		t.Error("development must get a fallback state secret")
	}
	if cfg.SMTPEnabled() {
		t.Error("smtp must be disabled without a host")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                  "production",
		"STATE_SECRET":         "s3cret",
		"FRONTEND_URL":         "https://vote.example.com/",
		"SESSION_TTL":          "2h",
		"SESSION_SLIDING":      "true",
		"GOOGLE_CLIENT_ID":     "gid",
		"GOOGLE_CLIENT_SECRET": "gsecret",
		"LINKEDIN_CLIENT_ID":   "lid",
		"SMTP_HOST":            "smtp.example.com",
		"SMTP_PORT":            "2525",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.FrontendURL != "https://vote.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.FrontendURL)
	}
	if cfg.Session.TTL != 2*time.Hour || !cfg.Session.Sliding {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Google.ClientID != "gid" || cfg.Google.ClientSecret != "gsecret" || cfg.LinkedIn.ClientID != "lid" {
		t.Errorf("unexpected oauth config: %+v %+v", cfg.Google, cfg.LinkedIn)
	}
	if !cfg.SMTPEnabled() || cfg.SMTP.Port != 2525 {
		t.Errorf("unexpected smtp config: %+v", cfg.SMTP)
	}
	if cfg.IsDevelopment() {
		t.Error("production must not be development")
	}
}

func TestLoad_ProductionRequiresStateSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	if err == nil {
		t.Fatal("expected error without STATE_SECRET")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"SESSION_TTL": "soon"}))
	if err == nil {
		t.Fatal("expected parse error")
	}
}
