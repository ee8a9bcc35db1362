package nutrition

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

// Nutrient names a single editable value of a food item.
type Nutrient string

const (
	Calories Nutrient = "calories"
	Protein  Nutrient = "protein"
	Carbs    Nutrient = "carbs"
	Fat      Nutrient = "fat"
)

func (n Nutrient) Valid() bool {
	switch n {
	case Calories, Protein, Carbs, Fat:
		return true
	}
	return false
}

// EditableItem is a food item while it is being edited. Quantity is grams
// for weight-based foods and pieces for count-based ones. Rate is the cached
// per-100 g (or per-piece) value set; once present it is reused by every
// later quantity change.
type EditableItem struct {
	models.FoodItem
	Quantity         float64    `json:"quantity"`
	OriginalQuantity float64    `json:"originalQuantity"`
	IsCountBased     bool       `json:"isCountBased"`
	Rate             *Nutrients `json:"rate,omitempty"`
}

// Strip drops all editing state.
func (e EditableItem) Strip() models.FoodItem { return e.FoodItem }

// StripAll strips a list of items, keeping order.
func StripAll(items []EditableItem) []models.FoodItem {
	out := make([]models.FoodItem, len(items))
	for i, it := range items {
		out[i] = it.Strip()
	}
	return out
}

func (e EditableItem) unit() float64 {
	if e.IsCountBased {
		return 1
	}
	return 100
}

func (e EditableItem) values() Nutrients {
	return Nutrients{Calories: e.Calories, Protein: e.Protein, Carbs: e.Carbs, Fat: e.Fat}
}

func (e *EditableItem) setValues(n Nutrients) {
	e.Calories = n.Calories
	e.Protein = n.Protein
	e.Carbs = n.Carbs
	e.Fat = n.Fat
}

func validQuantity(q float64) bool {
	return q > 0 && !math.IsInf(q, 0) && !math.IsNaN(q)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func roundValues(n Nutrients) Nutrients {
	return Nutrients{
		Calories: math.Round(n.Calories),
		Protein:  round1(n.Protein),
		Carbs:    round1(n.Carbs),
		Fat:      round1(n.Fat),
	}
}

// withRate returns the item with its rate cached, deriving it from the
// baseline quantity when missing. The baseline is OriginalQuantity, then
// Quantity, then 100. ok is false when the baseline is unusable.
func withRate(item EditableItem) (EditableItem, bool) {
	if item.Rate != nil {
		return item, true
	}
	base := item.OriginalQuantity
	if base == 0 {
		base = item.Quantity
	}
	if base == 0 {
		base = 100
	}
	if !validQuantity(base) {
		return item, false
	}
	r := item.values().scale(item.unit() / base)
	if !r.finite() {
		return item, false
	}
	item.Rate = &r
	return item, true
}

// Recalculate scales the item's values to newQuantity. Quantity itself is
// left alone; callers set it with SetQuantity. Invalid targets, unusable
// baselines and results that overflow float64 return the item unchanged.
func Recalculate(item EditableItem, newQuantity float64) EditableItem {
	out, _ := scaleTo(item, newQuantity)
	return out
}

// scaleTo is Recalculate that also reports whether the scaled values fit.
func scaleTo(item EditableItem, newQuantity float64) (EditableItem, bool) {
	if !validQuantity(newQuantity) {
		return item, true
	}
	out, ok := withRate(item)
	if !ok {
		return item, true
	}
	values := roundValues(out.Rate.scale(newQuantity / out.unit()))
	if !values.finite() {
		return item, false
	}
	out.setValues(values)
	return out, true
}

// SetQuantity records a new quantity without touching nutrition values.
func SetQuantity(item EditableItem, q float64) EditableItem {
	if !validQuantity(q) {
		return item
	}
	item.Quantity = q
	return item
}

// EditNutrient applies a manual value. The rate is re-derived from the
// current quantity so later quantity changes scale from the edited values.
func EditNutrient(item EditableItem, field Nutrient, value float64) EditableItem {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		value = 0
	}
	switch field {
	case Calories:
		item.Calories = value
	case Protein:
		item.Protein = value
	case Carbs:
		item.Carbs = value
	case Fat:
		item.Fat = value
	default:
		return item
	}

	base := item.Quantity
	if !validQuantity(base) {
		base = item.OriginalQuantity
	}
	if !validQuantity(base) {
		base = 100
	}
	r := item.values().scale(item.unit() / base)
	item.Rate = nil
	if r.finite() {
		item.Rate = &r
	}
	item.OriginalQuantity = base
	return item
}

// ReplaceNutrition overwrites every value at once, e.g. after a re-parse.
// The cached rate is dropped and the current quantity becomes the baseline.
func ReplaceNutrition(item EditableItem, values Nutrients) EditableItem {
	item.setValues(Nutrients{
		Calories: nonNegative(values.Calories),
		Protein:  nonNegative(values.Protein),
		Carbs:    nonNegative(values.Carbs),
		Fat:      nonNegative(values.Fat),
	})
	item.Rate = nil
	if validQuantity(item.Quantity) {
		item.OriginalQuantity = item.Quantity
	}
	return item
}

var leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`)

// parseLenient reads the leading number of raw, ignoring trailing text
// such as units ("150g").
func parseLenient(raw string) (float64, bool) {
	m := leadingNumber.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ApplyQuantity commits a quantity typed by the user. Unparseable or
// non-positive input restores the baseline quantity (100 when there is
// none) and keeps the values. Otherwise the quantity is floored to a whole
// number, the values are recalculated for it, and it is stored. A quantity
// so large that the values overflow leaves the item as it was.
func ApplyQuantity(item EditableItem, raw string) EditableItem {
	v, ok := parseLenient(raw)
	q := math.Floor(v)
	if !ok || q < 1 {
		if validQuantity(item.OriginalQuantity) {
			item.Quantity = item.OriginalQuantity
		} else {
			item.Quantity = 100
		}
		return item
	}
	out, ok := scaleTo(item, q)
	if !ok {
		return item
	}
	return SetQuantity(out, q)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
