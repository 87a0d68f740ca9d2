package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/syrlavka/shop/internal/catalog"
	"github.com/syrlavka/shop/internal/logging"
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/mykafka"
	"github.com/syrlavka/shop/internal/pricing"
	"github.com/syrlavka/shop/internal/service/search"
	"github.com/syrlavka/shop/internal/store"
	"github.com/syrlavka/shop/internal/util"
)

type ProductHandler struct {
	Store    *store.Store
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string

	// serializes the load-modify-save cycle over the products blob
	mu sync.Mutex
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) unindex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	if err := search.DeleteProduct(c.Request().Context(), h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrValidation), errors.Is(err, pricing.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// mutate runs one catalog mutation inside the load-modify-save cycle and
// returns the product the mutation touched.
func (h *ProductHandler) mutate(c echo.Context, id uint, op func([]models.Product) ([]models.Product, error)) (models.Product, error) {
	ctx := c.Request().Context()

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		return models.Product{}, echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}

	next, err := op(products)
	if err != nil {
		return models.Product{}, echo.NewHTTPError(statusOf(err), err.Error())
	}
	if err := h.Store.SaveProducts(ctx, next); err != nil {
		return models.Product{}, echo.NewHTTPError(http.StatusInternalServerError, "cannot save products")
	}

	p, err := catalog.Find(next, id)
	if err != nil {
		// the mutation removed the product
		return models.Product{}, nil
	}
	return p, nil
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("get_product_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	p, err := catalog.Find(products, uint(id))
	if err != nil {
		l.Warn("get_product_failed", "status", 404, "reason", "product not found")
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

// GetProducts lists the shop catalog: hidden products filtered out, paginated.
// The admin table uses ListAllProducts instead.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("get_products_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}

	visible := catalog.Visible(products)
	total := len(visible)
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": visible[offset:end],
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
			"has_prev":    page > 1,
			"has_next":    end < total,
		},
	})
}

// ListAllProducts returns every product, hidden included, for the admin table.
func (h *ProductHandler) ListAllProducts(c echo.Context) error {
	ctx := c.Request().Context()
	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) ListCategories(c echo.Context) error {
	categories, err := h.Store.LoadCategories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load categories")
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req models.Product
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("create_product_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}

	next, created, err := catalog.Append(products, req)
	if err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Store.SaveProducts(ctx, next); err != nil {
		l.Error("create_product_failed", "status", 500, "reason", "cannot save products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save products")
	}

	categories, err := h.Store.LoadCategories(ctx)
	if err == nil {
		if err := h.Store.SaveCategories(ctx, catalog.UnionCategories(categories, created.Categories)); err != nil {
			l.Error("create_product_failed", "reason", "cannot save categories", "error", err)
		}
	}

	h.index(c, created)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": created.ID,
		"name":      created.Name,
	})
	l.Info("create_product_success", "productID", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if _, err := h.mutate(c, uint(id), func(products []models.Product) ([]models.Product, error) {
		return catalog.Delete(products, uint(id))
	}); err != nil {
		return err
	}

	h.unindex(c, uint(id))
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	l.Info("delete_product_success", "productID", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) productID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}
	return uint(id), nil
}

// CycleStatus advances a product one step along available -> out_of_stock ->
// hidden -> available.
func (h *ProductHandler) CycleStatus(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.CycleStatus(products, id)
	})
	if err != nil {
		return err
	}

	h.index(c, p)
	h.publish(c, map[string]any{
		"type":      "product_status_cycled",
		"productID": id,
		"status":    p.Status,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) TogglePortion(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		Portion models.Portion `json:"portion"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.TogglePortion(products, id, req.Portion)
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "product_portions_changed",
		"productID": id,
		"portions":  p.AllowedPortions,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdateDetails(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Unit        models.ProductUnit `json:"unit"`
		Packaging   string             `json:"packaging"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.UpdateDetails(products, id, req.Name, req.Description, req.Unit, req.Packaging)
	})
	if err != nil {
		return err
	}

	h.index(c, p)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": id,
		"name":      p.Name,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdatePrices(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		PricePerUnit float64               `json:"price_per_unit"`
		Overrides    models.PriceOverrides `json:"price_overrides"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.UpdatePrices(products, id, req.PricePerUnit, req.Overrides)
	})
	if err != nil {
		return err
	}

	h.index(c, p)
	h.publish(c, map[string]any{
		"type":      "product_prices_updated",
		"productID": id,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdateUnitValue(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		UnitValue float64 `json:"unit_value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.UpdateUnitValue(products, id, req.UnitValue)
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "product_unit_value_updated",
		"productID": id,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdateCategories(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		Categories []string `json:"categories"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.UpdateCategories(products, id, req.Categories)
	})
	if err != nil {
		return err
	}

	// labels persist in the global list even after the last product drops them
	categories, err := h.Store.LoadCategories(ctx)
	if err == nil {
		if err := h.Store.SaveCategories(ctx, catalog.UnionCategories(categories, req.Categories)); err != nil {
			c.Logger().Errorf("save categories: %v", err)
		}
	}

	h.index(c, p)
	h.publish(c, map[string]any{
		"type":      "product_categories_updated",
		"productID": id,
	})
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdateImages(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		ImageURLs []string `json:"image_urls"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.UpdateImages(products, id, req.ImageURLs)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteImage removes one image; deleting the last remaining image is
// rejected with 400.
func (h *ProductHandler) DeleteImage(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "index is not an integer")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		return catalog.DeleteImage(products, id, index)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateWholesale writes cost price, tier table and markup modes together,
// mirroring the admin wholesale row save.
func (h *ProductHandler) UpdateWholesale(c echo.Context) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}

	var req struct {
		CostPrice   *float64                                  `json:"cost_price"`
		PriceTiers  map[models.CustomerType]float64           `json:"price_tiers"`
		MarkupModes map[models.CustomerType]models.MarkupMode `json:"markup_modes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.mutate(c, id, func(products []models.Product) ([]models.Product, error) {
		next, err := catalog.UpdateCostPrice(products, id, req.CostPrice)
		if err != nil {
			return nil, err
		}
		next, err = catalog.UpdatePriceTiers(next, id, req.PriceTiers)
		if err != nil {
			return nil, err
		}
		for tier, mode := range req.MarkupModes {
			next, err = catalog.SetMarkupMode(next, id, tier, mode)
			if err != nil {
				return nil, err
			}
		}
		return next, nil
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "product_wholesale_updated",
		"productID": id,
	})
	return c.JSON(http.StatusOK, p)
}

// ApplyMarkup runs the bulk markup over the whole catalog for one tier.
// Percent and fixed amount are mutually exclusive; manual-mode products are
// skipped.
func (h *ProductHandler) ApplyMarkup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.apply_markup")

	var req struct {
		Tier    models.CustomerType `json:"tier"`
		Percent *float64            `json:"percent"`
		Amount  *float64            `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	tier := req.Tier
	if tier == "" {
		tier = models.CustomerWholesale
	}
	if !tier.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown customer type")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("apply_markup_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}

	next, updated, err := pricing.ApplyBulkMarkup(products, tier, pricing.MarkupInput{
		Percent: req.Percent,
		Amount:  req.Amount,
	})
	if err != nil {
		l.Warn("apply_markup_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Store.SaveProducts(ctx, next); err != nil {
		l.Error("apply_markup_failed", "status", 500, "reason", "cannot save products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save products")
	}

	h.publish(c, map[string]any{
		"type":    "bulk_markup_applied",
		"tier":    tier,
		"updated": updated,
	})
	l.Info("apply_markup_success", "tier", tier, "updated", updated)
	return c.JSON(http.StatusOK, map[string]any{"updated": updated})
}

// ImportProducts appends already-parsed import rows; each row is validated
// independently and bad rows are reported without aborting the rest.
func (h *ProductHandler) ImportProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.import")

	var req struct {
		Rows []catalog.ImportRow `json:"rows"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Rows) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "rows required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.Store.LoadProducts(ctx)
	if err != nil {
		l.Error("import_failed", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	categories, err := h.Store.LoadCategories(ctx)
	if err != nil {
		l.Error("import_failed", "status", 500, "reason", "cannot load categories", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load categories")
	}

	next, nextCategories, report := catalog.ImportRows(products, categories, req.Rows)
	if err := h.Store.SaveProducts(ctx, next); err != nil {
		l.Error("import_failed", "status", 500, "reason", "cannot save products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save products")
	}
	if err := h.Store.SaveCategories(ctx, nextCategories); err != nil {
		l.Error("import_failed", "reason", "cannot save categories", "error", err)
	}

	for _, p := range next[len(products):] {
		h.index(c, p)
	}

	h.publish(c, map[string]any{
		"type":   "products_imported",
		"added":  report.Added,
		"errors": len(report.Errors),
	})
	l.Info("import_success", "added", report.Added, "errors", len(report.Errors))
	return c.JSON(http.StatusOK, report)
}
