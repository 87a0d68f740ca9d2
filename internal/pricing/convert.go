package pricing

import "github.com/syrlavka/shop/internal/models"

// ToKilograms converts a value in the given unit to kilograms. Units that do
// not carry weight (pcs, l) contribute 0 to weight totals.
func ToKilograms(unit models.ProductUnit, value float64) float64 {
	switch unit {
	case models.UnitKg:
		return value
	case models.UnitG:
		return value / 1000
	default:
		return 0
	}
}
