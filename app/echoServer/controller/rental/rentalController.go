package rental

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/diogo123310/lockeremergent/model"
	rs "github.com/diogo123310/lockeremergent/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/rentals
func (h *Controller) Create(c echo.Context) error {
	var req CreateRentalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.Create(c.Request().Context(), model.LockerSize(req.LockerSize))
	if err != nil {
		h.Log.Error("rental create", "locker_size", req.LockerSize, "err", err)
		switch rs.Code(err) {
		case rs.ErrNoAvailability:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": fmt.Sprintf("No %s lockers available", req.LockerSize),
			})
		case rs.ErrInvalidSize:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid locker size"})
		case rs.ErrGateway:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "payment gateway error"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, CreateRentalResp{
		RentalID:    out.RentalID,
		CheckoutURL: out.CheckoutURL,
		SessionID:   out.SessionID,
	})
}
