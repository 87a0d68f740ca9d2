package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/syrlavka/shop/internal/models"
)

var ErrValidation = errors.New("validation")

// MarkupInput carries the bulk markup parameters. Exactly one of Percent and
// Amount must be set: percentage and fixed-amount markup are mutually
// exclusive per invocation.
type MarkupInput struct {
	Percent *float64 `json:"percent,omitempty"`
	Amount  *float64 `json:"amount,omitempty"`
}

// ApplyBulkMarkup recomputes the tier price for every product that has a
// positive cost price and whose markup mode for the tier is global. Products
// flagged manual keep their hand-entered price. The input slice is not
// mutated; the returned slice is a fresh copy with updated tier prices, along
// with the number of products changed.
func ApplyBulkMarkup(products []models.Product, tier models.CustomerType, in MarkupInput) ([]models.Product, int, error) {
	if in.Percent != nil && in.Amount != nil {
		return nil, 0, fmt.Errorf("%w: percent and amount are mutually exclusive", ErrValidation)
	}
	if in.Percent == nil && in.Amount == nil {
		return nil, 0, fmt.Errorf("%w: percent or amount required", ErrValidation)
	}
	if in.Percent != nil && *in.Percent < 0 {
		return nil, 0, fmt.Errorf("%w: percent must be >= 0", ErrValidation)
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, 0, fmt.Errorf("%w: amount must be >= 0", ErrValidation)
	}

	out := make([]models.Product, len(products))
	copy(out, products)

	updated := 0
	for i := range out {
		p := &out[i]
		if p.CostPrice == nil || *p.CostPrice <= 0 {
			continue
		}
		if p.MarkupModes[tier] == models.MarkupManual {
			continue
		}

		var newPrice float64
		if in.Percent != nil {
			newPrice = math.Round(*p.CostPrice * (1 + *in.Percent/100))
		} else {
			newPrice = math.Round(*p.CostPrice + *in.Amount)
		}

		tiers := make(map[models.CustomerType]float64, len(p.PriceTiers)+1)
		for k, v := range p.PriceTiers {
			tiers[k] = v
		}
		tiers[tier] = newPrice
		p.PriceTiers = tiers
		updated++
	}

	return out, updated, nil
}
