package config

const (
	EnvPrefix = "COMPOSER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvPublishYouTubeURL   = "COMPOSER_PUBLISH_YOUTUBE_URL"
	EnvPublishTikTokURL    = "COMPOSER_PUBLISH_TIKTOK_URL"
	EnvPublishInstagramURL = "COMPOSER_PUBLISH_INSTAGRAM_URL"
	EnvPublishXURL         = "COMPOSER_PUBLISH_X_URL"
)
