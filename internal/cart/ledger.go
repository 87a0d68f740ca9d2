package cart

import (
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/pricing"
)

// Key identifies a cart line: one line per (product, portion) pair.
type Key struct {
	ProductID uint           `json:"product_id"`
	Portion   models.Portion `json:"portion"`
}

// Line is a cart line item. Name, image, unit, price and unit value are
// captured when the line is first added and never refreshed afterwards, so
// the shopper keeps the price they were shown even if the catalog changes.
type Line struct {
	Key
	Name      string             `json:"name"`
	ImageURL  string             `json:"image_url"`
	Unit      models.ProductUnit `json:"unit"`
	Quantity  int                `json:"quantity"`
	Price     float64            `json:"price"`
	UnitValue float64            `json:"unit_value"`
}

// Ledger is an ordered collection of cart lines; insertion order is display
// order. The zero value is an empty, usable ledger. A Ledger is not safe for
// concurrent use; callers own synchronization.
type Ledger struct {
	lines []Line
}

func (l *Ledger) find(key Key) int {
	for i := range l.lines {
		if l.lines[i].Key == key {
			return i
		}
	}
	return -1
}

// Add increments the line for (product, portion) or inserts a new one with
// quantity 1, freezing the price the given customer tier sees right now.
func (l *Ledger) Add(p models.Product, portion models.Portion, tier models.CustomerType) Line {
	key := Key{ProductID: p.ID, Portion: portion}
	if i := l.find(key); i >= 0 {
		l.lines[i].Quantity++
		return l.lines[i]
	}

	resolved := pricing.ResolvePortion(p, portion, tier)
	imageURL := ""
	if len(p.ImageURLs) > 0 {
		imageURL = p.ImageURLs[0]
	}
	line := Line{
		Key:       key,
		Name:      p.Name,
		ImageURL:  imageURL,
		Unit:      p.Unit,
		Quantity:  1,
		Price:     resolved.LinePrice,
		UnitValue: resolved.PortionValue,
	}
	l.lines = append(l.lines, line)
	return line
}

// SetQuantity sets the quantity of an existing line; n <= 0 removes the line.
// Unknown keys are ignored.
func (l *Ledger) SetQuantity(key Key, n int) {
	i := l.find(key)
	if i < 0 {
		return
	}
	if n <= 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
		return
	}
	l.lines[i].Quantity = n
}

// Remove deletes the line for key; removing an absent key is a no-op.
func (l *Ledger) Remove(key Key) {
	if i := l.find(key); i >= 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
	}
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Ledger) Len() int { return len(l.lines) }

// TotalCount is the total number of portions in the cart.
func (l *Ledger) TotalCount() int {
	sum := 0
	for i := range l.lines {
		sum += l.lines[i].Quantity
	}
	return sum
}

// TotalAmount is the cart total.
func (l *Ledger) TotalAmount() float64 {
	var sum float64
	for i := range l.lines {
		sum += l.lines[i].Price * float64(l.lines[i].Quantity)
	}
	return sum
}

// TotalWeightKg is the kg-equivalent weight of the cart; pcs and l lines
// contribute nothing.
func (l *Ledger) TotalWeightKg() float64 {
	var sum float64
	for i := range l.lines {
		sum += pricing.ToKilograms(l.lines[i].Unit, l.lines[i].UnitValue) * float64(l.lines[i].Quantity)
	}
	return sum
}
