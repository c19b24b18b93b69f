package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the server
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`
	PostgresConnStr string `mapstructure:"POSTGRES_CONN_STR"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	TreeCacheTTL  time.Duration `mapstructure:"TREE_CACHE_TTL"`

	AccessTokenSecret  string        `mapstructure:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiry  time.Duration `mapstructure:"ACCESS_TOKEN_EXPIRY"`
	RefreshTokenSecret string        `mapstructure:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiry time.Duration `mapstructure:"REFRESH_TOKEN_EXPIRY"`

	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`

	AWSRegion       string `mapstructure:"AWS_REGION"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`
	UploadMaxBytes  int64  `mapstructure:"UPLOAD_MAX_BYTES"`

	OrphanPolicy   string  `mapstructure:"ORPHAN_POLICY"`
	VoteMaxRetries int     `mapstructure:"VOTE_MAX_RETRIES"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	CORSOrigin     string  `mapstructure:"CORS_ORIGIN"`
}

var defaults = map[string]interface{}{
	"PORT":                      "8080",
	"ENV":                       "development",
	"LOG_LEVEL":                 "info",
	"MONGO_URI":                 "",
	"MONGO_DATABASE":            "storybranch",
	"POSTGRES_CONN_STR":         "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"TREE_CACHE_TTL":            "5m",
	"ACCESS_TOKEN_SECRET":       "",
	"ACCESS_TOKEN_EXPIRY":       "24h",
	"REFRESH_TOKEN_SECRET":      "",
	"REFRESH_TOKEN_EXPIRY":      "240h",
	"FIREBASE_CREDENTIALS_PATH": "",
	"AWS_REGION":                "ap-south-1",
	"S3_BUCKET":                 "",
	"S3_ENDPOINT":               "",
	"S3_PUBLIC_BASE_URL":        "",
	"UPLOAD_MAX_BYTES":          int64(100 << 20),
	"ORPHAN_POLICY":             "preserve",
	"VOTE_MAX_RETRIES":          5,
	"RATE_LIMIT_RPS":            20.0,
	"CORS_ORIGIN":               "*",
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.OrphanPolicy = strings.ToLower(strings.TrimSpace(cfg.OrphanPolicy))
	return &cfg, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.PostgresConnStr == "" {
		errs = append(errs, errors.New("POSTGRES_CONN_STR is required"))
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required"))
	}
	if c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required"))
	}
	switch c.OrphanPolicy {
	case "preserve", "cascade":
	default:
		errs = append(errs, fmt.Errorf("ORPHAN_POLICY must be preserve or cascade, got %q", c.OrphanPolicy))
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	return errors.Join(errs...)
}
