package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	items, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) GetCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_item")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_cart_item_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	item, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_cart_item_error", "status", 404, "cart_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("get_cart_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart item")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	productID, err1 := strconv.Atoi(c.QueryParam("productId"))
	quantity, err2 := strconv.Atoi(c.QueryParam("quantity"))
	if err := errors.Join(err1, err2); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "bad query params", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "productId and quantity must be integers")
	}

	item, err := h.Svc.Add(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, service.ErrValidation) || errors.Is(err, service.ErrNotFound) {
			l.Warn("add_to_cart_error", "status", 400, "reason", err.Error(), "product_id", productID, "quantity", quantity)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add item to cart")
	}

	l.Info("add_to_cart_success", "cart_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}
	quantity, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "quantity is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be an integer")
	}

	item, err := h.Svc.Update(ctx, id, quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_cart_error", "status", 404, "cart_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_cart_error", "status", 400, "reason", err.Error(), "cart_id", id, "quantity", quantity)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("update_cart_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart item")
		}
	}

	l.Info("update_cart_success", "cart_id", id, "quantity", quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) DeleteCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_cart_item_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		l.Error("delete_cart_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Error deleting cart item")
	}

	l.Info("delete_cart_item_success", "cart_id", id)
	return ok(c, "Cart item deleted successfully")
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Error clearing cart")
	}

	l.Info("clear_cart_success")
	return ok(c, "Cart cleared successfully")
}

func (h *CartHTTP) GetTotal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.total")

	total, err := h.Svc.Total(ctx)
	if err != nil {
		l.Error("cart_total_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot compute cart total")
	}
	return c.JSON(http.StatusOK, total)
}
