package admin

import (
	"log/slog"
	"net/http"

	ls "github.com/diogo123310/lockeremergent/service/locker"
	rs "github.com/diogo123310/lockeremergent/service/rental"

	"github.com/labstack/echo/v4"
)

// Controller dumps raw records for operators. Unauthenticated on purpose:
// the deployment fronts these routes with its own access control.
type Controller struct {
	Lockers ls.Service
	Rentals rs.Service
	Log     *slog.Logger
}

// GET /api/admin/lockers
func (h *Controller) ListLockers(c echo.Context) error {
	out, err := h.Lockers.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("admin list lockers", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/admin/rentals
func (h *Controller) ListRentals(c echo.Context) error {
	out, err := h.Rentals.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("admin list rentals", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}
