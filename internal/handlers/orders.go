package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/syrlavka/shop/internal/logging"
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/mykafka"
	"github.com/syrlavka/shop/internal/store"
)

type OrderHandler struct {
	Store    *store.Store
	Producer *mykafka.Producer

	mu sync.Mutex
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// GetMyOrders returns the current user's order history, newest first.
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	orders, err := h.Store.LoadOrders(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load orders")
	}

	mine := make([]models.Order, 0)
	for _, o := range orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	return c.JSON(http.StatusOK, mine)
}

// ListOrders returns every order for the admin view.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.Store.LoadOrders(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load orders")
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return c.JSON(http.StatusOK, orders)
}

// UpdateStatus moves one order to a new lifecycle status. Status is the only
// mutable field of a placed order.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	orderID := c.Param("id")
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !req.Status.Valid() {
		l.Warn("update_status_failed", "status", 400, "reason", "unknown order status")
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	orders, err := h.Store.LoadOrders(ctx)
	if err != nil {
		l.Error("update_status_failed", "status", 500, "reason", "cannot load orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load orders")
	}

	for i := range orders {
		if orders[i].ID == orderID {
			orders[i].Status = req.Status
			if err := h.Store.SaveOrders(ctx, orders); err != nil {
				l.Error("update_status_failed", "status", 500, "reason", "cannot save orders", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot save orders")
			}
			h.publish(c, map[string]any{
				"type":    "order_status_changed",
				"orderID": orderID,
				"status":  req.Status,
			})
			l.Info("update_status_success", "orderID", orderID, "order_status", req.Status)
			return c.JSON(http.StatusOK, orders[i])
		}
	}

	l.Warn("update_status_failed", "status", 404, "reason", "order not found", "orderID", orderID)
	return echo.NewHTTPError(http.StatusNotFound, "order not found")
}
