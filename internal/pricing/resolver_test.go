package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syrlavka/shop/internal/models"
)

func fl(v float64) *float64 { return &v }

func kgProduct() models.Product {
	return models.Product{
		ID:           1,
		Name:         "Пармезан",
		PricePerUnit: 1000,
		Unit:         models.UnitKg,
		UnitValue:    4,
	}
}

func TestResolveRetailPortion_NoOverrides(t *testing.T) {
	t.Parallel()

	p := kgProduct()

	tests := []struct {
		portion      models.Portion
		wantValue    float64
		wantLine     float64
		wantUnitCost float64
	}{
		{models.PortionWhole, 4, 4000, 1000},
		{models.PortionHalf, 2, 2000, 1000},
		{models.PortionQuarter, 1, 1000, 1000},
	}

	for _, tt := range tests {
		got := ResolveRetailPortion(p, tt.portion)
		assert.InDelta(t, tt.wantUnitCost, got.UnitPrice, 1e-9, "portion %s", tt.portion)
		assert.InDelta(t, tt.wantValue, got.PortionValue, 1e-9, "portion %s", tt.portion)
		assert.InDelta(t, tt.wantLine, got.LinePrice, 1e-9, "portion %s", tt.portion)
	}
}

func TestResolveRetailPortion_Overrides(t *testing.T) {
	t.Parallel()

	p := kgProduct()
	p.PriceOverrides = models.PriceOverrides{Half: fl(1200), Quarter: fl(1400)}

	half := ResolveRetailPortion(p, models.PortionHalf)
	assert.InDelta(t, 1200.0, half.UnitPrice, 1e-9)
	assert.InDelta(t, 2400.0, half.LinePrice, 1e-9)

	quarter := ResolveRetailPortion(p, models.PortionQuarter)
	assert.InDelta(t, 1400.0, quarter.UnitPrice, 1e-9)
	assert.InDelta(t, 1400.0, quarter.LinePrice, 1e-9)

	// whole never uses overrides
	whole := ResolveRetailPortion(p, models.PortionWhole)
	assert.InDelta(t, 1000.0, whole.UnitPrice, 1e-9)
}

func TestResolveRetailPortion_ZeroOverrideFallsBack(t *testing.T) {
	t.Parallel()

	p := kgProduct()
	p.PriceOverrides = models.PriceOverrides{Half: fl(0)}

	got := ResolveRetailPortion(p, models.PortionHalf)
	assert.InDelta(t, 1000.0, got.UnitPrice, 1e-9)
	assert.InDelta(t, 2000.0, got.LinePrice, 1e-9)
}

func TestResolveRetailPortion_DefensiveDefaults(t *testing.T) {
	t.Parallel()

	p := kgProduct()
	p.PricePerUnit = math.NaN()
	p.UnitValue = math.Inf(1)

	got := ResolveRetailPortion(p, models.PortionWhole)
	assert.Zero(t, got.UnitPrice)
	assert.Zero(t, got.PortionValue)
	assert.Zero(t, got.LinePrice)
}

func TestResolveWholesaleUnitPrice(t *testing.T) {
	t.Parallel()

	p := kgProduct()
	p.PriceTiers = map[models.CustomerType]float64{
		models.CustomerWholesale: 800,
	}

	assert.InDelta(t, 800.0, ResolveWholesaleUnitPrice(p, models.CustomerWholesale), 1e-9)
	// tiers without an entry fall back to retail
	assert.InDelta(t, 1000.0, ResolveWholesaleUnitPrice(p, models.CustomerMidWholesale), 1e-9)
	assert.InDelta(t, 1000.0, ResolveWholesaleUnitPrice(p, models.CustomerRetail), 1e-9)
}

func TestResolvePortion_TierPriceIgnoresRetailOverrides(t *testing.T) {
	t.Parallel()

	p := kgProduct()
	p.PriceOverrides = models.PriceOverrides{Half: fl(1500)}
	p.PriceTiers = map[models.CustomerType]float64{
		models.CustomerWholesale: 700,
	}

	got := ResolvePortion(p, models.PortionHalf, models.CustomerWholesale)
	assert.InDelta(t, 700.0, got.UnitPrice, 1e-9)
	assert.InDelta(t, 2.0, got.PortionValue, 1e-9)
	assert.InDelta(t, 1400.0, got.LinePrice, 1e-9)

	retail := ResolvePortion(p, models.PortionHalf, models.CustomerRetail)
	assert.InDelta(t, 1500.0, retail.UnitPrice, 1e-9)
}
