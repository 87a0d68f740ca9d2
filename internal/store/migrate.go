package store

import (
	"encoding/json"

	"github.com/syrlavka/shop/internal/models"
)

// productRecord is the superset of the current product shape and every legacy
// shape that ever hit the store: an early boolean visibility flag instead of
// status, kg-specific price/override field names, a single category string
// and a "weight" unit value.
type productRecord struct {
	models.Product

	IsVisible          *bool                  `json:"is_visible,omitempty"`
	IsVisibleCamel     *bool                  `json:"isVisible,omitempty"`
	PricePerKg         *float64               `json:"price_per_kg,omitempty"`
	PricePerKgCamel    *float64               `json:"pricePerKg,omitempty"`
	Weight             *float64               `json:"weight,omitempty"`
	Category           string                 `json:"category,omitempty"`
	PriceOverridesKg   *models.PriceOverrides `json:"price_overrides_per_kg,omitempty"`
	PriceOverridesSpa  *models.PriceOverrides `json:"priceOverridesPerKg,omitempty"`
	PortionPrices      *models.PriceOverrides `json:"portion_prices,omitempty"`
	PortionPricesCamel *models.PriceOverrides `json:"portionPrices,omitempty"`
}

func coalesceBool(vals ...*bool) *bool {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func coalesceFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func coalesceOverrides(vals ...*models.PriceOverrides) *models.PriceOverrides {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func migrateProduct(raw json.RawMessage) (models.Product, error) {
	var rec productRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Product{}, err
	}
	p := rec.Product

	isVisible := coalesceBool(rec.IsVisible, rec.IsVisibleCamel)
	pricePerKg := coalesceFloat(rec.PricePerKg, rec.PricePerKgCamel)
	overrides := coalesceOverrides(rec.PriceOverridesKg, rec.PriceOverridesSpa, rec.PortionPrices, rec.PortionPricesCamel)

	if p.PricePerUnit == 0 && pricePerKg != nil {
		p.PricePerUnit = *pricePerKg
	}
	if p.UnitValue == 0 {
		if rec.Weight != nil {
			p.UnitValue = *rec.Weight
		} else {
			p.UnitValue = 1
		}
	}
	if len(p.Categories) == 0 && rec.Category != "" {
		p.Categories = []string{rec.Category}
	}
	if p.Unit == "" {
		p.Unit = models.UnitKg
	}
	if p.Packaging == "" {
		p.Packaging = "головка"
	}
	if len(p.AllowedPortions) == 0 {
		p.AllowedPortions = []models.Portion{models.PortionWhole}
	}
	if p.Status == "" {
		if isVisible != nil && !*isVisible {
			p.Status = models.StatusHidden
		} else {
			p.Status = models.StatusAvailable
		}
	}
	if p.PriceOverrides.Half == nil && p.PriceOverrides.Quarter == nil && overrides != nil {
		p.PriceOverrides = *overrides
	}

	return p, nil
}
