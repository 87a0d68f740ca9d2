package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/syrlavka/shop/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// Every mutation below is copy-on-write: the input slice is left untouched
// and a fresh slice with the change applied is returned, so readers never
// observe a half-applied update.

func clone(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}

func indexOf(products []models.Product, id uint) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the product with the given id.
func Find(products []models.Product, id uint) (models.Product, error) {
	i := indexOf(products, id)
	if i < 0 {
		return models.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return products[i], nil
}

// NextID assigns ids monotonically: one past the largest id in the set.
func NextID(products []models.Product) uint {
	var max uint
	for i := range products {
		if products[i].ID > max {
			max = products[i].ID
		}
	}
	return max + 1
}

// Validate checks the structural invariants a product must hold before it
// enters the catalog.
func Validate(p models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.PricePerUnit < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if !p.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrValidation, p.Unit)
	}
	if p.UnitValue <= 0 {
		return fmt.Errorf("%w: unit value must be > 0", ErrValidation)
	}
	if len(p.ImageURLs) == 0 {
		return fmt.Errorf("%w: at least one image required", ErrValidation)
	}
	if !p.AllowsPortion(models.PortionWhole) {
		return fmt.Errorf("%w: whole portion is mandatory", ErrValidation)
	}
	if p.CostPrice != nil && *p.CostPrice < 0 {
		return fmt.Errorf("%w: cost price must be >= 0", ErrValidation)
	}
	return nil
}

// Append adds a new product with a fresh id and default status.
func Append(products []models.Product, p models.Product) ([]models.Product, models.Product, error) {
	if len(p.AllowedPortions) == 0 {
		p.AllowedPortions = []models.Portion{models.PortionWhole}
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	if err := Validate(p); err != nil {
		return nil, models.Product{}, err
	}
	p.ID = NextID(products)
	out := clone(products)
	out = append(out, p)
	return out, p, nil
}

// Delete removes a product permanently. Unknown ids are reported, not
// silently ignored: the admin confirmed deleting something specific.
func Delete(products []models.Product, id uint) ([]models.Product, error) {
	i := indexOf(products, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	out := clone(products)
	return append(out[:i], out[i+1:]...), nil
}

func update(products []models.Product, id uint, fn func(*models.Product) error) ([]models.Product, error) {
	i := indexOf(products, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	out := clone(products)
	if err := fn(&out[i]); err != nil {
		return nil, err
	}
	return out, nil
}

// CycleStatus advances the product one step along the fixed cycle
// available -> out_of_stock -> hidden -> available.
func CycleStatus(products []models.Product, id uint) ([]models.Product, error) {
	return update(products, id, func(p *models.Product) error {
		switch p.Status {
		case models.StatusAvailable:
			p.Status = models.StatusOutOfStock
		case models.StatusOutOfStock:
			p.Status = models.StatusHidden
		default:
			p.Status = models.StatusAvailable
		}
		return nil
	})
}

// TogglePortion flips half/quarter membership in the allowed set. Toggling
// whole is a no-op: whole can never be disabled.
func TogglePortion(products []models.Product, id uint, portion models.Portion) ([]models.Product, error) {
	if !portion.Valid() {
		return nil, fmt.Errorf("%w: unknown portion %q", ErrValidation, portion)
	}
	return update(products, id, func(p *models.Product) error {
		if portion == models.PortionWhole {
			return nil
		}
		for i, allowed := range p.AllowedPortions {
			if allowed == portion {
				next := make([]models.Portion, 0, len(p.AllowedPortions)-1)
				next = append(next, p.AllowedPortions[:i]...)
				next = append(next, p.AllowedPortions[i+1:]...)
				p.AllowedPortions = next
				return nil
			}
		}
		p.AllowedPortions = append(append([]models.Portion{}, p.AllowedPortions...), portion)
		return nil
	})
}

// UpdateCategories replaces the product's category set. Labels must be
// non-empty; the caller unions them into the global list via UnionCategories.
func UpdateCategories(products []models.Product, id uint, categories []string) ([]models.Product, error) {
	for _, c := range categories {
		if c == "" {
			return nil, fmt.Errorf("%w: empty category label", ErrValidation)
		}
	}
	return update(products, id, func(p *models.Product) error {
		p.Categories = append([]string{}, categories...)
		return nil
	})
}

// UnionCategories merges new labels into the global category list. Labels are
// never removed once introduced: dropping a category from the last product
// that used it keeps the label available for reuse.
func UnionCategories(global []string, added []string) []string {
	seen := make(map[string]bool, len(global)+len(added))
	for _, c := range global {
		seen[c] = true
	}
	out := append([]string{}, global...)
	for _, c := range added {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// UpdateImages replaces the image list; a product must keep at least one image.
func UpdateImages(products []models.Product, id uint, urls []string) ([]models.Product, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one image required", ErrValidation)
	}
	return update(products, id, func(p *models.Product) error {
		p.ImageURLs = append([]string{}, urls...)
		return nil
	})
}

// DeleteImage removes one image by index. Deleting the last remaining image
// is rejected.
func DeleteImage(products []models.Product, id uint, index int) ([]models.Product, error) {
	return update(products, id, func(p *models.Product) error {
		if index < 0 || index >= len(p.ImageURLs) {
			return fmt.Errorf("%w: image index %d out of range", ErrValidation, index)
		}
		if len(p.ImageURLs) == 1 {
			return fmt.Errorf("%w: cannot delete the last image", ErrValidation)
		}
		next := make([]string, 0, len(p.ImageURLs)-1)
		next = append(next, p.ImageURLs[:index]...)
		next = append(next, p.ImageURLs[index+1:]...)
		p.ImageURLs = next
		return nil
	})
}

// UpdatePrices sets the base price and the per-portion overrides together.
func UpdatePrices(products []models.Product, id uint, pricePerUnit float64, overrides models.PriceOverrides) ([]models.Product, error) {
	if pricePerUnit < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return update(products, id, func(p *models.Product) error {
		p.PricePerUnit = pricePerUnit
		p.PriceOverrides = overrides
		return nil
	})
}

// UpdateUnitValue sets the quantity of unit contained in one packaging.
func UpdateUnitValue(products []models.Product, id uint, unitValue float64) ([]models.Product, error) {
	if unitValue <= 0 {
		return nil, fmt.Errorf("%w: unit value must be > 0", ErrValidation)
	}
	return update(products, id, func(p *models.Product) error {
		p.UnitValue = unitValue
		return nil
	})
}

// UpdateDetails sets name, description, unit and packaging.
func UpdateDetails(products []models.Product, id uint, name, description string, unit models.ProductUnit, packaging string) ([]models.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}
	return update(products, id, func(p *models.Product) error {
		p.Name = name
		p.Description = description
		p.Unit = unit
		p.Packaging = packaging
		return nil
	})
}

// UpdateCostPrice sets or clears the markup base for a product.
func UpdateCostPrice(products []models.Product, id uint, costPrice *float64) ([]models.Product, error) {
	if costPrice != nil && *costPrice < 0 {
		return nil, fmt.Errorf("%w: cost price must be >= 0", ErrValidation)
	}
	return update(products, id, func(p *models.Product) error {
		p.CostPrice = costPrice
		return nil
	})
}

// UpdatePriceTiers replaces the wholesale price table for a product.
func UpdatePriceTiers(products []models.Product, id uint, tiers map[models.CustomerType]float64) ([]models.Product, error) {
	for tier, price := range tiers {
		if !tier.Valid() {
			return nil, fmt.Errorf("%w: unknown customer type %q", ErrValidation, tier)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: tier price must be >= 0", ErrValidation)
		}
	}
	return update(products, id, func(p *models.Product) error {
		if len(tiers) == 0 {
			p.PriceTiers = nil
			return nil
		}
		next := make(map[models.CustomerType]float64, len(tiers))
		for k, v := range tiers {
			next[k] = v
		}
		p.PriceTiers = next
		return nil
	})
}

// SetMarkupMode switches a tier between global-markup and manual pricing.
func SetMarkupMode(products []models.Product, id uint, tier models.CustomerType, mode models.MarkupMode) ([]models.Product, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown customer type %q", ErrValidation, tier)
	}
	if mode != models.MarkupGlobal && mode != models.MarkupManual {
		return nil, fmt.Errorf("%w: unknown markup mode %q", ErrValidation, mode)
	}
	return update(products, id, func(p *models.Product) error {
		next := make(map[models.CustomerType]models.MarkupMode, len(p.MarkupModes)+1)
		for k, v := range p.MarkupModes {
			next[k] = v
		}
		next[tier] = mode
		p.MarkupModes = next
		return nil
	})
}

// Visible filters out hidden products for the shop listing; the admin views
// use the full slice.
func Visible(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Status != models.StatusHidden {
			out = append(out, p)
		}
	}
	return out
}
