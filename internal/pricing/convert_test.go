package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syrlavka/shop/internal/models"
)

func TestToKilograms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		unit  models.ProductUnit
		value float64
		want  float64
	}{
		{name: "kg passes through", unit: models.UnitKg, value: 5.3, want: 5.3},
		{name: "g divides by 1000", unit: models.UnitG, value: 250, want: 0.25},
		{name: "pcs has no weight", unit: models.UnitPcs, value: 7, want: 0},
		{name: "l has no weight", unit: models.UnitL, value: 2, want: 0},
		{name: "unknown unit has no weight", unit: "oz", value: 10, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ToKilograms(tt.unit, tt.value), 1e-9)
		})
	}
}
