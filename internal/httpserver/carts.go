package httpserver

import (
	"errors"
	"net/http"

	"github.com/avoskov/retail_pos/internal/cart"
	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/ledger"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/transport"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Pool   *cart.Pool
	Ledger *ledger.SaleLedger
	Events *events.Publisher
}

func cartResponse(c *cart.Cart) transport.CartResponse {
	return transport.CartResponse{Items: c.Items(), Total: c.Total()}
}

func (h *CartHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, cartResponse(h.Pool.For(callerID(c))))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		l.Warn("cart_add_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	staged := h.Pool.For(callerID(c))
	if err := staged.AddItem(req.ProductID); err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, cart.ErrOutOfStock):
			l.Warn("cart_add_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "product is out of stock")
		case errors.Is(err, cart.ErrExceedsStock):
			l.Warn("cart_add_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "cannot exceed available stock")
		default:
			l.Error("cart_add_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, cartResponse(staged))
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	var req transport.SetCartQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_set_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	staged := h.Pool.For(callerID(c))
	if err := staged.SetItemQuantity(c.Param("productID"), req.Quantity); err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, cart.ErrExceedsStock):
			l.Warn("cart_set_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "cannot exceed available stock")
		default:
			l.Error("cart_set_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, cartResponse(staged))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	staged := h.Pool.For(callerID(c))
	staged.RemoveItem(c.Param("productID"))
	return c.JSON(http.StatusOK, cartResponse(staged))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	staged := h.Pool.For(callerID(c))
	staged.Clear()
	return c.JSON(http.StatusOK, cartResponse(staged))
}

// Checkout commits the caller's staged cart through the ledger and clears it
// on success.
func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	staged := h.Pool.For(callerID(c))
	items := staged.Items()
	lines := make([]ledger.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, ledger.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	seller := models.User{ID: callerID(c), Username: callerUsername(c)}
	sale, err := h.Ledger.RecordSale(ctx, lines, req.Discount, seller)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrValidation):
			l.Warn("checkout_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, registry.ErrNotFound):
			l.Warn("checkout_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, registry.ErrInsufficientStock):
			l.Warn("checkout_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("checkout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot record sale")
		}
	}

	staged.Clear()

	if err := h.Events.Publish(ctx, events.TypeSaleRecorded, sale.ID, map[string]any{
		"sale_id": sale.ID,
		"total":   sale.Total,
		"items":   len(sale.Items),
	}); err != nil {
		l.Warn("sale_event_error", "error", err)
	}

	return c.JSON(http.StatusCreated, sale)
}
