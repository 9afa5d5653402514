package echoServer

import (
	"net/http"

	"github.com/diogo123310/lockeremergent/app/echoServer/controller/admin"
	"github.com/diogo123310/lockeremergent/app/echoServer/controller/locker"
	"github.com/diogo123310/lockeremergent/app/echoServer/controller/payment"
	"github.com/diogo123310/lockeremergent/app/echoServer/controller/rental"

	"github.com/labstack/echo/v4"
)

type C struct {
	Locker  *locker.Controller
	Rental  *rental.Controller
	Payment *payment.Controller
	Admin   *admin.Controller
}

func Register(e *echo.Echo, c C) {
	api := e.Group("/api")

	api.GET("", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"message": "Luggage Storage System API"})
	})

	// Lockers
	api.GET("/lockers/availability", c.Locker.Availability)
	api.POST("/lockers/unlock", c.Locker.Unlock)

	// Rentals
	api.POST("/rentals", c.Rental.Create)

	// Payments
	api.GET("/payments/status/:session_id", c.Payment.Status)
	api.POST("/webhook/stripe", c.Payment.Webhook)

	// Admin dumps
	api.GET("/admin/lockers", c.Admin.ListLockers)
	api.GET("/admin/rentals", c.Admin.ListRentals)
}
