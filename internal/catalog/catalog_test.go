package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syrlavka/shop/internal/models"
)

func fl(v float64) *float64 { return &v }

func testCatalog() []models.Product {
	return []models.Product{
		{
			ID:              1,
			Name:            "Гауда",
			PricePerUnit:    900,
			Unit:            models.UnitKg,
			UnitValue:       4,
			Categories:      []string{"твёрдые"},
			ImageURLs:       []string{"/images/gouda-1.jpg", "/images/gouda-2.jpg"},
			AllowedPortions: []models.Portion{models.PortionWhole, models.PortionHalf},
			Status:          models.StatusAvailable,
		},
		{
			ID:              2,
			Name:            "Моцарелла",
			PricePerUnit:    450,
			Unit:            models.UnitG,
			UnitValue:       250,
			Categories:      []string{"мягкие"},
			ImageURLs:       []string{"/images/mozzarella.jpg"},
			AllowedPortions: []models.Portion{models.PortionWhole},
			Status:          models.StatusHidden,
		},
	}
}

func TestCycleStatus_ThreeStepsReturnToStart(t *testing.T) {
	t.Parallel()

	products := testCatalog()
	start := products[0].Status

	for i := 0; i < 3; i++ {
		var err error
		products, err = CycleStatus(products, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, start, products[0].Status)
}

func TestCycleStatus_Order(t *testing.T) {
	t.Parallel()

	products := testCatalog()
	want := []models.ProductStatus{models.StatusOutOfStock, models.StatusHidden, models.StatusAvailable}
	for _, expected := range want {
		var err error
		products, err = CycleStatus(products, 1)
		require.NoError(t, err)
		assert.Equal(t, expected, products[0].Status)
	}
}

func TestCycleStatus_NotFound(t *testing.T) {
	t.Parallel()

	_, err := CycleStatus(testCatalog(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTogglePortion_WholeIsNoOp(t *testing.T) {
	t.Parallel()

	products, err := TogglePortion(testCatalog(), 1, models.PortionWhole)
	require.NoError(t, err)
	assert.Equal(t, []models.Portion{models.PortionWhole, models.PortionHalf}, products[0].AllowedPortions)
	assert.True(t, products[0].AllowsPortion(models.PortionWhole))
}

func TestTogglePortion_FlipsMembership(t *testing.T) {
	t.Parallel()

	products, err := TogglePortion(testCatalog(), 1, models.PortionHalf)
	require.NoError(t, err)
	assert.False(t, products[0].AllowsPortion(models.PortionHalf))

	products, err = TogglePortion(products, 1, models.PortionHalf)
	require.NoError(t, err)
	assert.True(t, products[0].AllowsPortion(models.PortionHalf))
}

func TestTogglePortion_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	products := testCatalog()
	_, err := TogglePortion(products, 1, models.PortionQuarter)
	require.NoError(t, err)
	assert.Equal(t, []models.Portion{models.PortionWhole, models.PortionHalf}, products[0].AllowedPortions)
}

func TestDeleteImage_RejectsLastImage(t *testing.T) {
	t.Parallel()

	products := testCatalog()
	_, err := DeleteImage(products, 2, 0)
	assert.ErrorIs(t, err, ErrValidation)
	// original untouched
	assert.Len(t, products[1].ImageURLs, 1)
}

func TestDeleteImage_RemovesByIndex(t *testing.T) {
	t.Parallel()

	products, err := DeleteImage(testCatalog(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"/images/gouda-2.jpg"}, products[0].ImageURLs)

	_, err = DeleteImage(products, 1, 5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnionCategories_LabelsPersist(t *testing.T) {
	t.Parallel()

	global := []string{"мягкие", "твёрдые"}

	global = UnionCategories(global, []string{"рассольные", "твёрдые"})
	assert.Equal(t, []string{"мягкие", "рассольные", "твёрдые"}, global)

	// removing the label from its last product does not shrink the global list;
	// there is no removal operation at all
	global = UnionCategories(global, nil)
	assert.Contains(t, global, "рассольные")
}

func TestUpdateCategories(t *testing.T) {
	t.Parallel()

	products, err := UpdateCategories(testCatalog(), 1, []string{"выдержанные"})
	require.NoError(t, err)
	assert.Equal(t, []string{"выдержанные"}, products[0].Categories)

	_, err = UpdateCategories(products, 1, []string{""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAppend_AssignsNextID(t *testing.T) {
	t.Parallel()

	p := models.Product{
		Name:         "Рикотта",
		PricePerUnit: 300,
		Unit:         models.UnitG,
		UnitValue:    500,
		ImageURLs:    []string{"/images/ricotta.jpg"},
	}
	products, created, err := Append(testCatalog(), p)
	require.NoError(t, err)
	assert.Equal(t, uint(3), created.ID)
	assert.Equal(t, models.StatusAvailable, created.Status)
	assert.Equal(t, []models.Portion{models.PortionWhole}, created.AllowedPortions)
	assert.Len(t, products, 3)
}

func TestAppend_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  func(*models.Product)
	}{
		{name: "missing name", mod: func(p *models.Product) { p.Name = "" }},
		{name: "negative price", mod: func(p *models.Product) { p.PricePerUnit = -1 }},
		{name: "bad unit", mod: func(p *models.Product) { p.Unit = "oz" }},
		{name: "zero unit value", mod: func(p *models.Product) { p.UnitValue = 0 }},
		{name: "no images", mod: func(p *models.Product) { p.ImageURLs = nil }},
		{name: "negative cost price", mod: func(p *models.Product) { p.CostPrice = fl(-5) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := models.Product{
				Name:         "Рикотта",
				PricePerUnit: 300,
				Unit:         models.UnitG,
				UnitValue:    500,
				ImageURLs:    []string{"/images/ricotta.jpg"},
			}
			tt.mod(&p)
			_, _, err := Append(testCatalog(), p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	products, err := Delete(testCatalog(), 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, uint(2), products[0].ID)

	_, err = Delete(products, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePriceTiers(t *testing.T) {
	t.Parallel()

	tiers := map[models.CustomerType]float64{
		models.CustomerWholesale:    700,
		models.CustomerMidWholesale: 650,
	}
	products, err := UpdatePriceTiers(testCatalog(), 1, tiers)
	require.NoError(t, err)
	assert.InDelta(t, 700.0, products[0].PriceTiers[models.CustomerWholesale], 1e-9)

	_, err = UpdatePriceTiers(products, 1, map[models.CustomerType]float64{"vip": 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = UpdatePriceTiers(products, 1, map[models.CustomerType]float64{models.CustomerWholesale: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVisible(t *testing.T) {
	t.Parallel()

	visible := Visible(testCatalog())
	require.Len(t, visible, 1)
	assert.Equal(t, uint(1), visible[0].ID)
}
