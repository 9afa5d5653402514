// Package main locker rental API.
//
// @title           Luggage Storage System API
// @version         1.0
// @description     Locker rental backend (availability, rentals, Stripe checkout, PIN unlock).
// @BasePath        /api
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diogo123310/lockeremergent/app/echoServer"
	adminctrl "github.com/diogo123310/lockeremergent/app/echoServer/controller/admin"
	lockerctrl "github.com/diogo123310/lockeremergent/app/echoServer/controller/locker"
	paymentctrl "github.com/diogo123310/lockeremergent/app/echoServer/controller/payment"
	rentalctrl "github.com/diogo123310/lockeremergent/app/echoServer/controller/rental"
	"github.com/diogo123310/lockeremergent/app/echoServer/validation"
	"github.com/diogo123310/lockeremergent/config"
	lockerrepo "github.com/diogo123310/lockeremergent/repository/locker"
	rentalrepo "github.com/diogo123310/lockeremergent/repository/rental"
	striperepo "github.com/diogo123310/lockeremergent/repository/stripe"
	lockersvc "github.com/diogo123310/lockeremergent/service/locker"
	paymentsvc "github.com/diogo123310/lockeremergent/service/payment"
	rentalsvc "github.com/diogo123310/lockeremergent/service/rental"
	"github.com/diogo123310/lockeremergent/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	lr := lockerrepo.New(db)
	rr := rentalrepo.New(db)
	sr := striperepo.NewStripe(cfg.StripeAPIKey, cfg.StripeWebhookSecret)

	// services
	ls := lockersvc.New(lr)
	rs := rentalsvc.New(db, lr, rr, sr, cfg.RentalDuration, cfg.PublicBaseURL)
	ps := paymentsvc.New(rr, sr)

	// fixed locker pool, created on first boot only
	created, err := ls.Provision(ctx, cfg.LockerPoolSize)
	if err != nil {
		log.Error("locker provisioning failed", "err", err)
		os.Exit(1)
	}
	if created > 0 {
		log.Info("lockers provisioned", "count", created)
	}

	// expiry sweeper
	sweeper := rentalsvc.NewSweeper(rr, rs, cfg.SweepInterval, log)
	if err := sweeper.Start(); err != nil {
		log.Error("sweeper start failed", "err", err)
		os.Exit(1)
	}

	// controllers
	v := validator.New()
	lockerC := &lockerctrl.Controller{Svc: ls, Rental: rs, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, Log: log}
	adminC := &adminctrl.Controller{Lockers: ls, Rentals: rs, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e, cfg.CORSOrigins)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Locker:  lockerC,
		Rental:  rentalC,
		Payment: paymentC,
		Admin:   adminC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		log.Info("starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
}
