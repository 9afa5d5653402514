package locker

import (
	"log/slog"
	"net/http"

	ls "github.com/diogo123310/lockeremergent/service/locker"
	rs "github.com/diogo123310/lockeremergent/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc    ls.Service
	Rental rs.Service
	V      *validator.Validate
	Log    *slog.Logger
}

// GET /api/lockers/availability
func (h *Controller) Availability(c echo.Context) error {
	out, err := h.Svc.Availability(c.Request().Context())
	if err != nil {
		h.Log.Error("availability", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/lockers/unlock
//
// Always 200: whether the credentials worked is carried in the body, so the
// status code leaks nothing about PIN validity.
func (h *Controller) Unlock(c echo.Context) error {
	var req UnlockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	res, err := h.Rental.Unlock(c.Request().Context(), req.LockerNumber, req.AccessPin)
	if err != nil {
		h.Log.Error("unlock", "locker_number", req.LockerNumber, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, UnlockResp{
		Success:      res.Success,
		Message:      res.Message,
		LockerNumber: res.LockerNumber,
	})
}
