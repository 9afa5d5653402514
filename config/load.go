package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	// local .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := App{
		Port:                getenv("APP_PORT", "8080"),
		DatabaseURL:         must("DATABASE_URL"),
		StripeAPIKey:        must("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PublicBaseURL:       strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:         splitList(getenv("CORS_ORIGINS", "*")),
		RentalDuration:      getdur("RENTAL_DURATION", 24*time.Hour),
		SweepInterval:       getdur("SWEEP_INTERVAL", 60*time.Second),
		LockerPoolSize:      getint("LOCKER_POOL_SIZE", 24),
		Env:                 getenv("APP_ENV", "dev"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", k, "value", v)
		return def
	}
	return d
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int, using default", "key", k, "value", v)
		return def
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
