package pricing

import (
	"math"

	"github.com/syrlavka/shop/internal/models"
)

// PortionPrice is the effective price of one portion of a product.
type PortionPrice struct {
	UnitPrice    float64 `json:"unit_price"`
	PortionValue float64 `json:"portion_value"`
	LinePrice    float64 `json:"line_price"`
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// override returns the per-unit override for the portion, if one is set.
// An override of exactly 0 counts as unset, same as a missing one.
func override(p models.Product, portion models.Portion) (float64, bool) {
	var v *float64
	switch portion {
	case models.PortionHalf:
		v = p.PriceOverrides.Half
	case models.PortionQuarter:
		v = p.PriceOverrides.Quarter
	}
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}

// ResolveRetailPortion computes the effective retail price for one portion of
// a product. It never fails: malformed inputs resolve to zero prices.
func ResolveRetailPortion(p models.Product, portion models.Portion) PortionPrice {
	base := sanitize(p.PricePerUnit)
	unitValue := sanitize(p.UnitValue)

	unitPrice := base
	portionValue := unitValue
	switch portion {
	case models.PortionHalf:
		portionValue = unitValue / 2
		if v, ok := override(p, portion); ok {
			unitPrice = v
		}
	case models.PortionQuarter:
		portionValue = unitValue / 4
		if v, ok := override(p, portion); ok {
			unitPrice = v
		}
	}

	return PortionPrice{
		UnitPrice:    unitPrice,
		PortionValue: portionValue,
		LinePrice:    unitPrice * portionValue,
	}
}

// ResolveWholesaleUnitPrice returns the per-unit price for the customer's
// tier, falling back to the retail base price when the product has no entry
// for that tier.
func ResolveWholesaleUnitPrice(p models.Product, tier models.CustomerType) float64 {
	if price, ok := p.PriceTiers[tier]; ok {
		return price
	}
	return sanitize(p.PricePerUnit)
}

// ResolvePortion computes the portion price a given customer tier sees: the
// tier's wholesale unit price when the product defines one, retail portion
// resolution (including overrides) otherwise.
func ResolvePortion(p models.Product, portion models.Portion, tier models.CustomerType) PortionPrice {
	tierPrice, ok := p.PriceTiers[tier]
	if !ok {
		return ResolveRetailPortion(p, portion)
	}

	unitValue := sanitize(p.UnitValue)
	portionValue := unitValue
	switch portion {
	case models.PortionHalf:
		portionValue = unitValue / 2
	case models.PortionQuarter:
		portionValue = unitValue / 4
	}
	return PortionPrice{
		UnitPrice:    tierPrice,
		PortionValue: portionValue,
		LinePrice:    tierPrice * portionValue,
	}
}
