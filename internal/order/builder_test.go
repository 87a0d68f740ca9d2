package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syrlavka/shop/internal/cart"
	"github.com/syrlavka/shop/internal/models"
)

func testLines() []cart.Line {
	return []cart.Line{
		{
			Key:       cart.Key{ProductID: 1, Portion: models.PortionHalf},
			Name:      "Камамбер",
			Unit:      models.UnitKg,
			Quantity:  2,
			Price:     300,
			UnitValue: 0.5,
		},
		{
			Key:       cart.Key{ProductID: 2, Portion: models.PortionWhole},
			Name:      "Сырная тарелка",
			Unit:      models.UnitPcs,
			Quantity:  1,
			Price:     700,
			UnitValue: 1,
		},
	}
}

func TestBuild_RequiresUser(t *testing.T) {
	t.Parallel()

	_, err := Build(testLines(), 0, time.Now())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestBuild_RequiresItems(t *testing.T) {
	t.Parallel()

	_, err := Build(nil, 7, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuild_Totals(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	o, err := Build(testLines(), 7, now)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, uint(7), o.UserID)
	assert.Equal(t, now, o.CreatedAt)
	assert.Equal(t, models.OrderStatusNew, o.Status)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Камамбер (Половинка)", o.Items[0].Name)
	assert.InDelta(t, 1.0, o.Items[0].Quantity, 1e-9) // 0.5 kg x 2
	assert.InDelta(t, 600.0, o.Items[0].Price, 1e-9)
	assert.Equal(t, "Сырная тарелка", o.Items[1].Name)

	assert.InDelta(t, 1300.0, o.TotalAmount, 1e-9)
	// pcs line contributes nothing to weight
	assert.InDelta(t, 1.0, o.TotalWeight, 1e-9)
}

func TestBuild_QuarterSuffix(t *testing.T) {
	t.Parallel()

	lines := []cart.Line{{
		Key:       cart.Key{ProductID: 3, Portion: models.PortionQuarter},
		Name:      "Пармезан",
		Unit:      models.UnitKg,
		Quantity:  1,
		Price:     250,
		UnitValue: 1,
	}}
	o, err := Build(lines, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Пармезан (Четвертинка)", o.Items[0].Name)
}

func TestBuild_UniqueIDs(t *testing.T) {
	t.Parallel()

	a, err := Build(testLines(), 1, time.Now())
	require.NoError(t, err)
	b, err := Build(testLines(), 1, time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
