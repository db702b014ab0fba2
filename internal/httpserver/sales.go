package httpserver

import (
	"errors"
	"net/http"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/ledger"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/labstack/echo/v4"
)

type SaleHTTP struct {
	Ledger *ledger.SaleLedger
	Events *events.Publisher
}

func (h *SaleHTTP) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ledger.List())
}

func (h *SaleHTTP) Get(c echo.Context) error {
	s, ok := h.Ledger.GetByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SaleHTTP) Return(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sale.return")

	sale, err := h.Ledger.ReturnSale(ctx, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSaleNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "sale not found")
		case errors.Is(err, ledger.ErrAlreadyReturned):
			l.Warn("sale_return_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "sale already returned")
		default:
			l.Error("sale_return_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot return sale")
		}
	}

	if err := h.Events.Publish(ctx, events.TypeSaleReturned, sale.ID, map[string]any{
		"sale_id": sale.ID,
		"total":   sale.Total,
		"items":   len(sale.Items),
	}); err != nil {
		l.Warn("sale_event_error", "error", err)
	}

	return c.JSON(http.StatusOK, sale)
}
