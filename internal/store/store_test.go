package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syrlavka/shop/internal/models"
)

func fl(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Record{}))

	return New(&GormKV{DB: db})
}

func TestKV_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.KV.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKV_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.KV.Put(ctx, "k", []byte(`"a"`)))
	require.NoError(t, s.KV.Put(ctx, "k", []byte(`"b"`)))

	raw, ok, err := s.KV.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"b"`, string(raw))
}

func TestProducts_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	products := []models.Product{{
		ID:              1,
		Name:            "Пармезан",
		Description:     "выдержка 24 месяца",
		PricePerUnit:    1000,
		Unit:            models.UnitKg,
		Packaging:       "головка",
		UnitValue:       4,
		Categories:      []string{"твёрдые"},
		ImageURLs:       []string{"/images/parmesan.jpg"},
		AllowedPortions: []models.Portion{models.PortionWhole, models.PortionHalf, models.PortionQuarter},
		Status:          models.StatusAvailable,
		PriceOverrides:  models.PriceOverrides{Half: fl(1100)},
		CostPrice:       fl(600),
		PriceTiers: map[models.CustomerType]float64{
			models.CustomerWholesale: 800,
		},
		MarkupModes: map[models.CustomerType]models.MarkupMode{
			models.CustomerWholesale: models.MarkupManual,
		},
	}}

	require.NoError(t, s.SaveProducts(ctx, products))
	got, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, got)
}

func TestProducts_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LoadProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProducts_LegacyShapeMigration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	raw := []byte(`[{
		"id": 1,
		"name": "Гауда",
		"price_per_kg": 900,
		"weight": 4,
		"category": "твёрдые",
		"image_urls": ["/images/gouda.jpg"],
		"is_visible": false,
		"portion_prices": {"half": 950}
	}]`)
	require.NoError(t, s.KV.Put(ctx, "products", raw))

	got, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, uint(1), p.ID)
	assert.InDelta(t, 900.0, p.PricePerUnit, 1e-9)
	assert.InDelta(t, 4.0, p.UnitValue, 1e-9)
	assert.Equal(t, []string{"твёрдые"}, p.Categories)
	assert.Equal(t, models.UnitKg, p.Unit)
	assert.Equal(t, "головка", p.Packaging)
	assert.Equal(t, models.StatusHidden, p.Status)
	assert.Equal(t, []models.Portion{models.PortionWhole}, p.AllowedPortions)
	require.NotNil(t, p.PriceOverrides.Half)
	assert.InDelta(t, 950.0, *p.PriceOverrides.Half, 1e-9)

	// migrated product survives a save/load cycle unchanged
	require.NoError(t, s.SaveProducts(ctx, got))
	again, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestProducts_LegacyCamelCaseShapeMigration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// records written by the old single-page app used camelCase keys
	raw := []byte(`[{
		"id": 2,
		"name": "Брынза",
		"pricePerKg": 650,
		"isVisible": true,
		"portionPrices": {"quarter": 180}
	}]`)
	require.NoError(t, s.KV.Put(ctx, "products", raw))

	got, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.InDelta(t, 650.0, p.PricePerUnit, 1e-9)
	assert.InDelta(t, 1.0, p.UnitValue, 1e-9)
	assert.Equal(t, models.StatusAvailable, p.Status)
	require.NotNil(t, p.PriceOverrides.Quarter)
	assert.InDelta(t, 180.0, *p.PriceOverrides.Quarter, 1e-9)
}

func TestOrders_DefaultStatusOnLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	raw, err := json.Marshal([]map[string]any{{
		"id":           "legacy-1",
		"user_id":      3,
		"created_at":   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"total_amount": 100,
	}})
	require.NoError(t, err)
	require.NoError(t, s.KV.Put(ctx, "orders", raw))

	orders, err := s.LoadOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusNew, orders[0].Status)
}

func TestUsers_DefaultCustomerTypeOnLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	raw, err := json.Marshal([]map[string]any{{
		"id":    1,
		"email": "x@example.com",
	}})
	require.NoError(t, err)
	require.NoError(t, s.KV.Put(ctx, "users", raw))

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.CustomerRetail, users[0].CustomerType)
}

func TestUsers_RoundTripKeepsPasswordHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users := []models.User{{
		ID:           1,
		Email:        "x@example.com",
		PasswordHash: "$2a$10$abcdefg",
		IsAdmin:      true,
		CustomerType: models.CustomerWholesale,
	}}
	require.NoError(t, s.SaveUsers(ctx, users))

	got, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestCategories_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCategories(ctx, []string{"мягкие", "твёрдые"}))
	got, err := s.LoadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"мягкие", "твёрдые"}, got)
}
