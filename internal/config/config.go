package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	RedisURL       string
	NATSURL        string
	ReviewSubject  string
	JWTSecret      string
	ScoreThreshold int
	WarnBand       int
	LogCapacity    int
	TokenTTL       time.Duration
	TokenSingleUse bool
	RulesetPath    string
	RateLimitMax   int
	RateLimitTTL   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FORMGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FormGuard API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("score.threshold", 20)
	v.SetDefault("score.warn_band", 5)
	v.SetDefault("audit.capacity", 100)
	v.SetDefault("token.ttl", "30m")
	v.SetDefault("token.single_use", false)
	v.SetDefault("review.subject", "formguard.review")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1s")

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("rate_limit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		RedisURL:       v.GetString("redis.url"),
		NATSURL:        v.GetString("nats.url"),
		ReviewSubject:  v.GetString("review.subject"),
		JWTSecret:      v.GetString("jwt.secret"),
		ScoreThreshold: v.GetInt("score.threshold"),
		WarnBand:       v.GetInt("score.warn_band"),
		LogCapacity:    v.GetInt("audit.capacity"),
		TokenTTL:       tokenTTL,
		TokenSingleUse: v.GetBool("token.single_use"),
		RulesetPath:    v.GetString("ruleset.path"),
		RateLimitMax:   v.GetInt("rate_limit.max"),
		RateLimitTTL:   rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = 20
	}

	if cfg.WarnBand <= 0 {
		cfg.WarnBand = 5
	}

	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = 100
	}

	return cfg, nil
}
