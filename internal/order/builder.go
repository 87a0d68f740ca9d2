package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syrlavka/shop/internal/cart"
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/pricing"
)

var (
	ErrValidation      = errors.New("validation")
	ErrUnauthenticated = errors.New("unauthenticated")
)

func portionSuffix(p models.Portion) string {
	switch p {
	case models.PortionHalf:
		return " (Половинка)"
	case models.PortionQuarter:
		return " (Четвертинка)"
	}
	return ""
}

// Build snapshots cart lines into an immutable order. It does not touch the
// ledger: the caller clears the cart only after the order has been persisted,
// so a failed write leaves the cart intact for a retry.
func Build(lines []cart.Line, userID uint, now time.Time) (models.Order, error) {
	if userID == 0 {
		return models.Order{}, fmt.Errorf("%w: no current user", ErrUnauthenticated)
	}
	if len(lines) == 0 {
		return models.Order{}, fmt.Errorf("%w: no items in cart", ErrValidation)
	}

	items := make([]models.OrderItem, 0, len(lines))
	var totalAmount, totalWeight float64
	for _, line := range lines {
		qty := float64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name + portionSuffix(line.Portion),
			Quantity:  line.UnitValue * qty,
			Price:     line.Price * qty,
		})
		totalAmount += line.Price * qty
		totalWeight += pricing.ToKilograms(line.Unit, line.UnitValue) * qty
	}

	return models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatedAt:   now,
		Items:       items,
		TotalAmount: totalAmount,
		TotalWeight: totalWeight,
		Status:      models.OrderStatusNew,
	}, nil
}
