package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syrlavka/shop/internal/models"
)

// ImportRow is one already-parsed row from a bulk import. File parsing
// happens upstream; the engine only sees named fields.
type ImportRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Unit        string `json:"unit"`
	Packaging   string `json:"packaging"`
	UnitValue   string `json:"unit_value"`
	Categories  string `json:"categories"`
	ImageURL    string `json:"image_url"`
}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	Added  int        `json:"added"`
	Errors []RowError `json:"errors"`
}

func parseRow(row ImportRow) (models.Product, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return models.Product{}, fmt.Errorf("name required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row.Price), 64)
	if err != nil || price < 0 {
		return models.Product{}, fmt.Errorf("unparseable price %q", row.Price)
	}

	unit := models.ProductUnit(strings.TrimSpace(row.Unit))
	if unit == "" {
		unit = models.UnitKg
	}
	if !unit.Valid() {
		return models.Product{}, fmt.Errorf("unknown unit %q", row.Unit)
	}

	unitValue := 1.0
	if v := strings.TrimSpace(row.UnitValue); v != "" {
		unitValue, err = strconv.ParseFloat(v, 64)
		if err != nil || unitValue <= 0 {
			return models.Product{}, fmt.Errorf("unparseable unit value %q", row.UnitValue)
		}
	}

	var categories []string
	for _, c := range strings.Split(row.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	imageURL := strings.TrimSpace(row.ImageURL)
	if imageURL == "" {
		imageURL = "/images/placeholder.jpg"
	}

	return models.Product{
		Name:            name,
		Description:     strings.TrimSpace(row.Description),
		PricePerUnit:    price,
		Unit:            unit,
		Packaging:       strings.TrimSpace(row.Packaging),
		UnitValue:       unitValue,
		Categories:      categories,
		ImageURLs:       []string{imageURL},
		AllowedPortions: []models.Portion{models.PortionWhole},
		Status:          models.StatusAvailable,
	}, nil
}

// ImportRows validates each row independently: a bad row is skipped and
// reported, the rest of the import continues. There is no all-or-nothing
// transaction. Returns the grown catalog, the union of new category labels
// and a per-row report.
func ImportRows(products []models.Product, global []string, rows []ImportRow) ([]models.Product, []string, ImportReport) {
	out := clone(products)
	report := ImportReport{}

	for i, row := range rows {
		p, err := parseRow(row)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: i, Reason: err.Error()})
			continue
		}
		p.ID = NextID(out)
		out = append(out, p)
		global = UnionCategories(global, p.Categories)
		report.Added++
	}

	return out, global, report
}
