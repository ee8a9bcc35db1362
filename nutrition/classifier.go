package nutrition

import (
	"math"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

const (
	defaultGrams = 100
	defaultCount = 1
)

// Estimate is an advisory starting quantity for an item that only carries
// absolute values.
type Estimate struct {
	Quantity   float64
	CountBased bool
	Entry      *FoodEntry
}

// Estimate guesses how much of the food the item's calories represent.
// Weight-based matches give grams, count-based matches give pieces, and
// unknown foods default to 100 g.
func (t *Table) Estimate(item models.FoodItem) Estimate {
	e, ok := t.Match(item.Name)
	if !ok {
		return Estimate{Quantity: defaultGrams}
	}
	est := Estimate{CountBased: e.CountBased(), Entry: &e}
	per := e.Values.Calories
	var q float64
	if per > 0 && validQuantity(item.Calories) {
		if est.CountBased {
			q = math.Round(item.Calories / per)
		} else {
			q = math.Round(item.Calories / per * 100)
		}
	}
	if !validQuantity(q) {
		if est.CountBased {
			q = defaultCount
		} else {
			q = defaultGrams
		}
	}
	est.Quantity = q
	return est
}

// Seed turns a stored item into an editable one with its baseline and rate
// in place.
func (t *Table) Seed(item models.FoodItem) EditableItem {
	est := t.Estimate(item)
	out := EditableItem{
		FoodItem:         item,
		Quantity:         est.Quantity,
		OriginalQuantity: est.Quantity,
		IsCountBased:     est.CountBased,
	}
	out, _ = withRate(out)
	return out
}

// SeedAll seeds every item of a meal, keeping order.
func (t *Table) SeedAll(items []models.FoodItem) []EditableItem {
	out := make([]EditableItem, len(items))
	for i, it := range items {
		out[i] = t.Seed(it)
	}
	return out
}

// Seed uses the built-in table.
func Seed(item models.FoodItem) EditableItem { return defaultTable.Seed(item) }
