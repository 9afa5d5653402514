package payment

import (
	"io"
	"log/slog"
	"net/http"

	paymentsvc "github.com/diogo123310/lockeremergent/service/payment"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// GET /api/payments/status/:session_id
func (h *Controller) Status(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing session id"})
	}

	st, err := h.Svc.PollStatus(c.Request().Context(), sessionID)
	if err != nil {
		h.Log.Error("payment status", "session_id", sessionID, "err", err)
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Rental not found"})
		case paymentsvc.ErrGateway:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "payment gateway error"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, st)
}

// POST /api/webhook/stripe
//
// A failed signature check answers 400 so Stripe retries the delivery; any
// other processing problem is reported in the body only.
func (h *Controller) Webhook(c echo.Context) error {
	sig := c.Request().Header.Get("Stripe-Signature")
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error"})
	}

	if err := h.Svc.HandleWebhook(c.Request().Context(), sig, raw); err != nil {
		h.Log.Error("stripe webhook", "err", err)
		if paymentsvc.Code(err) == paymentsvc.ErrBadSignature {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "error", "message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
