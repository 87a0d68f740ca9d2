package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/syrlavka/shop/internal/cart"
	"github.com/syrlavka/shop/internal/catalog"
	"github.com/syrlavka/shop/internal/logging"
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/mykafka"
	"github.com/syrlavka/shop/internal/order"
	"github.com/syrlavka/shop/internal/store"
)

// Carts scopes one ledger per user. The ledgers live in memory: a cart is a
// session artifact, only orders are persisted.
type Carts struct {
	mu     sync.Mutex
	byUser map[uint]*cart.Ledger
}

func NewCarts() *Carts {
	return &Carts{byUser: make(map[uint]*cart.Ledger)}
}

// With runs fn while holding the registry lock, handing it the caller's ledger.
func (cs *Carts) With(userID uint, fn func(l *cart.Ledger) error) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	l, ok := cs.byUser[userID]
	if !ok {
		l = &cart.Ledger{}
		cs.byUser[userID] = l
	}
	return fn(l)
}

type CartHandler struct {
	Carts    *Carts
	Store    *store.Store
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func currentUserID(c echo.Context) (uint, error) {
	userID, _ := c.Get("userID").(uint)
	if userID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return userID, nil
}

type cartView struct {
	Lines         []cart.Line `json:"lines"`
	TotalCount    int         `json:"total_count"`
	TotalAmount   float64     `json:"total_amount"`
	TotalWeightKg float64     `json:"total_weight_kg"`
}

func viewOf(l *cart.Ledger) cartView {
	return cartView{
		Lines:         l.Lines(),
		TotalCount:    l.TotalCount(),
		TotalAmount:   l.TotalAmount(),
		TotalWeightKg: l.TotalWeightKg(),
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var view cartView
	_ = h.Carts.With(userID, func(l *cart.Ledger) error {
		view = viewOf(l)
		return nil
	})
	return c.JSON(http.StatusOK, view)
}

// AddToCart adds one portion of a product, or bumps the quantity of the
// existing line. The line freezes the price the shopper sees right now.
func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	tier, _ := c.Get("tier").(models.CustomerType)
	if tier == "" {
		tier = models.CustomerRetail
	}

	var req struct {
		ProductID uint           `json:"product_id"`
		Portion   models.Portion `json:"portion"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Portion == "" {
		req.Portion = models.PortionWhole
	}
	if !req.Portion.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown portion")
	}

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("add_to_cart_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	product, err := catalog.Find(products, req.ProductID)
	if err != nil {
		l.Warn("add_to_cart_failed", "status", 404, "reason", "product not found", "productID", req.ProductID)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if !product.AllowsPortion(req.Portion) {
		return echo.NewHTTPError(http.StatusBadRequest, "portion not available for this product")
	}

	var line cart.Line
	_ = h.Carts.With(userID, func(ledger *cart.Ledger) error {
		line = ledger.Add(product, req.Portion, tier)
		return nil
	})

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"portion":   req.Portion,
		"quantity":  line.Quantity,
	})
	return c.JSON(http.StatusOK, line)
}

// SetQuantity sets a line's quantity; zero or negative removes the line.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint           `json:"product_id"`
		Portion   models.Portion `json:"portion"`
		Quantity  int            `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	key := cart.Key{ProductID: req.ProductID, Portion: req.Portion}
	var view cartView
	_ = h.Carts.With(userID, func(l *cart.Ledger) error {
		l.SetQuantity(key, req.Quantity)
		view = viewOf(l)
		return nil
	})

	h.publish(c, map[string]any{
		"type":      "cart_quantity_set",
		"userID":    userID,
		"productID": req.ProductID,
		"portion":   req.Portion,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, view)
}

// RemoveLine deletes the (product, portion) line; removing a line that is not
// there is a no-op.
func (h *CartHandler) RemoveLine(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	portion := models.Portion(c.Param("portion"))
	if !portion.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown portion")
	}

	key := cart.Key{ProductID: uint(id), Portion: portion}
	var view cartView
	_ = h.Carts.With(userID, func(l *cart.Ledger) error {
		l.Remove(key)
		view = viewOf(l)
		return nil
	})

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": id,
		"portion":   portion,
	})
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	_ = h.Carts.With(userID, func(l *cart.Ledger) error {
		l.Clear()
		return nil
	})

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.NoContent(http.StatusNoContent)
}

// MakeOrder snapshots the cart into an order and persists it. The cart is
// cleared only after the order write succeeds, so a failed write leaves it
// intact for a retry.
func (h *CartHandler) MakeOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.make_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var placed models.Order
	opErr := h.Carts.With(userID, func(ledger *cart.Ledger) error {
		built, err := order.Build(ledger.Lines(), userID, time.Now().UTC())
		if err != nil {
			return err
		}

		orders, err := h.Store.LoadOrders(ctx)
		if err != nil {
			return fmt.Errorf("cannot load orders: %w", err)
		}
		orders = append(orders, built)
		if err := h.Store.SaveOrders(ctx, orders); err != nil {
			return fmt.Errorf("cannot save orders: %w", err)
		}

		ledger.Clear()
		placed = built
		return nil
	})
	if opErr != nil {
		switch {
		case errors.Is(opErr, order.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		case errors.Is(opErr, order.ErrValidation):
			l.Warn("make_order_failed", "status", 400, "reason", opErr.Error())
			return echo.NewHTTPError(http.StatusBadRequest, opErr.Error())
		default:
			l.Error("make_order_failed", "status", 500, "error", opErr)
			return echo.NewHTTPError(http.StatusInternalServerError, opErr.Error())
		}
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": placed.ID,
		"total":   placed.TotalAmount,
	})
	l.Info("make_order_success", "userID", userID, "orderID", placed.ID)
	return c.JSON(http.StatusOK, placed)
}
