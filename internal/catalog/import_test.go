package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syrlavka/shop/internal/models"
)

func TestImportRows_SkipsBadRowsAndContinues(t *testing.T) {
	t.Parallel()

	rows := []ImportRow{
		{Name: "Рокфор", Price: "1200", Unit: "kg", UnitValue: "2", Categories: "с плесенью, выдержанные"},
		{Name: "", Price: "500"},                         // missing name
		{Name: "Фета", Price: "десять"},                  // unparseable price
		{Name: "Халуми", Price: "800", Unit: "фунт"},     // invalid unit
		{Name: "Маскарпоне", Price: "650", Unit: ""},     // unit defaults to kg
		{Name: "Буррата", Price: "550", UnitValue: "-1"}, // bad unit value
	}

	products, global, report := ImportRows(nil, []string{"мягкие"}, rows)

	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Errors, 4)
	assert.Equal(t, 1, report.Errors[0].Row)
	assert.Equal(t, 2, report.Errors[1].Row)
	assert.Equal(t, 3, report.Errors[2].Row)
	assert.Equal(t, 5, report.Errors[3].Row)

	require.Len(t, products, 2)
	assert.Equal(t, uint(1), products[0].ID)
	assert.Equal(t, "Рокфор", products[0].Name)
	assert.Equal(t, []string{"с плесенью", "выдержанные"}, products[0].Categories)
	assert.Equal(t, models.UnitKg, products[1].Unit)
	assert.Equal(t, models.StatusAvailable, products[0].Status)
	assert.Equal(t, []models.Portion{models.PortionWhole}, products[0].AllowedPortions)

	assert.ElementsMatch(t, []string{"мягкие", "с плесенью", "выдержанные"}, global)
}

func TestImportRows_AppendsToExistingCatalog(t *testing.T) {
	t.Parallel()

	existing := testCatalog()
	rows := []ImportRow{{Name: "Рикотта", Price: "300"}}

	products, _, report := ImportRows(existing, nil, rows)
	assert.Equal(t, 1, report.Added)
	assert.Empty(t, report.Errors)
	require.Len(t, products, 3)
	assert.Equal(t, uint(3), products[2].ID)

	// import is copy-on-write too
	assert.Len(t, existing, 2)
}

func TestImportRows_ImportedRowsGetPlaceholderImage(t *testing.T) {
	t.Parallel()

	products, _, report := ImportRows(nil, nil, []ImportRow{{Name: "Качотта", Price: "720"}})
	require.Equal(t, 1, report.Added)
	require.Len(t, products[0].ImageURLs, 1)
	assert.NotEmpty(t, products[0].ImageURLs[0])
}
