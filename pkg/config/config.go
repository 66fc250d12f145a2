package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Publish    PublishConfig
	Media      MediaConfig
	Links      LinksConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Publish.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COMPOSER_APP_ENV" required:"true"`
	Port         string `envconfig:"COMPOSER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COMPOSER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COMPOSER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type JWTConfig struct {
	Secret            string `envconfig:"COMPOSER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COMPOSER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COMPOSER_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COMPOSER_REDIS_URL"`
	Address      string        `envconfig:"COMPOSER_REDIS_ADDR"`
	Password     string        `envconfig:"COMPOSER_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMPOSER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMPOSER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMPOSER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMPOSER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMPOSER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMPOSER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GenerationConfig points at the per-platform content transform endpoint.
type GenerationConfig struct {
	BaseURL string        `envconfig:"COMPOSER_GENERATION_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"COMPOSER_GENERATION_TIMEOUT" default:"0"`
}

// PublishConfig carries one publish endpoint URL per supported platform.
type PublishConfig struct {
	YouTubeURL   string        `envconfig:"COMPOSER_PUBLISH_YOUTUBE_URL"`
	TikTokURL    string        `envconfig:"COMPOSER_PUBLISH_TIKTOK_URL"`
	InstagramURL string        `envconfig:"COMPOSER_PUBLISH_INSTAGRAM_URL"`
	XURL         string        `envconfig:"COMPOSER_PUBLISH_X_URL"`
	Timeout      time.Duration `envconfig:"COMPOSER_PUBLISH_TIMEOUT" default:"0"`
}

func (p PublishConfig) validate() error {
	missing := []string{}
	if strings.TrimSpace(p.YouTubeURL) == "" {
		missing = append(missing, EnvPublishYouTubeURL)
	}
	if strings.TrimSpace(p.TikTokURL) == "" {
		missing = append(missing, EnvPublishTikTokURL)
	}
	if strings.TrimSpace(p.InstagramURL) == "" {
		missing = append(missing, EnvPublishInstagramURL)
	}
	if strings.TrimSpace(p.XURL) == "" {
		missing = append(missing, EnvPublishXURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s are required", strings.Join(missing, ", "))
	}
	return nil
}

type MediaConfig struct {
	MaxUploadMB    int `envconfig:"COMPOSER_MAX_UPLOAD_MB" default:"25"`
	MaxAttachments int `envconfig:"COMPOSER_MAX_ATTACHMENTS" default:"10"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) * 1024 * 1024
}

type LinksConfig struct {
	BaseURL  string        `envconfig:"COMPOSER_LINKS_BASE_URL" required:"true"`
	CacheTTL time.Duration `envconfig:"COMPOSER_LINKS_CACHE_TTL" default:"5m"`
}
