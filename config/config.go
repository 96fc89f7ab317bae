// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	// Empty outside production selects the in-memory implementations.
	DatabaseURL string
	RedisURL    string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	// AppBaseURL prefixes the links sent in verification and reset emails.
	AppBaseURL string

	CORSOrigins []string
	// AuthRateLimit is requests per minute per client IP on the public auth routes.
	AuthRateLimit int
	// TrustProxy takes the client address from X-Forwarded-For, as appended by
	// the proxy in front of the server.
	TrustProxy bool
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env (outside production) and then the process environment.
func Load() *Config {
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing with the process environment")
		}
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("access_token_secret", "")
	v.SetDefault("access_token_expiry", "15m")
	v.SetDefault("refresh_token_expiry", "168h")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("mail_from", "no-reply@projectcamp.local")
	v.SetDefault("mail_from_name", "Project Camp")
	v.SetDefault("app_base_url", "http://localhost:8080")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("auth_rate_limit", 20)
	v.SetDefault("trust_proxy", false)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	var origins []string
	for _, o := range strings.Split(v.GetString("cors_origin"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Env:                v.GetString("app_env"),
		Port:               v.GetString("port"),
		DatabaseURL:        v.GetString("database_url"),
		RedisURL:           v.GetString("redis_url"),
		AccessTokenSecret:  v.GetString("access_token_secret"),
		AccessTokenExpiry:  v.GetDuration("access_token_expiry"),
		RefreshTokenExpiry: v.GetDuration("refresh_token_expiry"),
		SendGridAPIKey:     v.GetString("sendgrid_api_key"),
		MailFrom:           v.GetString("mail_from"),
		MailFromName:       v.GetString("mail_from_name"),
		AppBaseURL:         strings.TrimRight(v.GetString("app_base_url"), "/"),
		CORSOrigins:        origins,
		AuthRateLimit:      v.GetInt("auth_rate_limit"),
		TrustProxy:         v.GetBool("trust_proxy"),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive durations"))
	}
	if c.RefreshTokenExpiry < c.AccessTokenExpiry {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY must not be shorter than ACCESS_TOKEN_EXPIRY"))
	}
	if c.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must be positive"))
	}
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required in production"))
		}
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required in production"))
		}
	}
	return errors.Join(errs...)
}
