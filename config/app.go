package config

import "time"

type App struct {
	Port                string        `env:"APP_PORT" default:"8080"`
	DatabaseURL         string        `env:"DATABASE_URL,required"`
	StripeAPIKey        string        `env:"STRIPE_API_KEY,required"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	PublicBaseURL       string        `env:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins         []string      `env:"CORS_ORIGINS" default:"*"`
	RentalDuration      time.Duration `env:"RENTAL_DURATION" default:"24h"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" default:"60s"`
	LockerPoolSize      int           `env:"LOCKER_POOL_SIZE" default:"24"`
	Env                 string        `env:"APP_ENV" default:"dev"`
}
