package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("COMPOSER_APP_ENV", "dev")
	t.Setenv("COMPOSER_APP_PORT", "8080")
	t.Setenv("COMPOSER_JWT_SECRET", "secret")
	t.Setenv("COMPOSER_JWT_ISSUER", "composer")
	t.Setenv("COMPOSER_GENERATION_BASE_URL", "http://generation.local")
	t.Setenv("COMPOSER_LINKS_BASE_URL", "http://links.local")
	t.Setenv("COMPOSER_PUBLISH_YOUTUBE_URL", "http://publish.local/youtube")
	t.Setenv("COMPOSER_PUBLISH_TIKTOK_URL", "http://publish.local/tiktok")
	t.Setenv("COMPOSER_PUBLISH_INSTAGRAM_URL", "http://publish.local/instagram")
	t.Setenv("COMPOSER_PUBLISH_X_URL", "http://publish.local/x")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.Media.MaxUploadMB != 25 {
		t.Fatalf("expected default 25 MB cap got %d", cfg.Media.MaxUploadMB)
	}
	if cfg.Media.MaxUploadBytes() != 25*1024*1024 {
		t.Fatalf("unexpected byte cap %d", cfg.Media.MaxUploadBytes())
	}
	if cfg.Links.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected links cache ttl %s", cfg.Links.CacheTTL)
	}
	if cfg.Generation.Timeout != 0 {
		t.Fatalf("expected no default generation timeout, got %s", cfg.Generation.Timeout)
	}
}

func TestLoadRequiresPublishEndpoints(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMPOSER_PUBLISH_TIKTOK_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing publish endpoint")
	}
	if !strings.Contains(err.Error(), EnvPublishTikTokURL) {
		t.Fatalf("error should name the missing variable, got %v", err)
	}
}

func TestMediaCapIsConfigurable(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMPOSER_MAX_UPLOAD_MB", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Media.MaxUploadBytes() != 5*1024*1024 {
		t.Fatalf("unexpected byte cap %d", cfg.Media.MaxUploadBytes())
	}
}
