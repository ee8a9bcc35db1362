package nutrition

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

var (
	leadIn     = regexp.MustCompile(`(?i)^\s*i\s+(?:had|ate|consumed|drank)\s+`)
	gramAmount = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:grams|gram|g)\b(?:\s*of\b)?`)
	unitAmount = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(?:x|×)?\s*(?:of\s+)?`)
)

// separators in precedence order; the first one present splits the text.
var separators = []string{" and ", " & ", " with ", " plus ", ", "}

// Generic estimates for unknown foods.
var (
	perGram      = Nutrients{Calories: 2, Protein: 0.2, Carbs: 0.3, Fat: 0.05}
	unknownGuess = Nutrients{Calories: 200, Protein: 10, Carbs: 20, Fat: 8}
)

// Parser turns free text like "I had 2 eggs and 100g rice" into food
// items using a reference table. It is the offline fallback for the
// generative estimator and never fails.
type Parser struct {
	table *Table
}

func NewParser(t *Table) *Parser {
	if t == nil {
		t = defaultTable
	}
	return &Parser{table: t}
}

// Parse uses the built-in table.
func Parse(text string) []models.FoodItem { return NewParser(nil).Parse(text) }

// Parse splits text into segments and estimates each one independently.
// The result always holds at least one item.
func (p *Parser) Parse(text string) []models.FoodItem {
	cleaned := strings.TrimSpace(leadIn.ReplaceAllString(text, ""))

	parts := splitSegments(cleaned)
	if len(parts) > 1 {
		items := make([]models.FoodItem, 0, len(parts))
		for _, part := range parts {
			if it := p.ParseSegment(part); it.Name != "" {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return []models.FoodItem{p.ParseSegment(cleaned)}
}

func splitSegments(text string) []string {
	lower := strings.ToLower(text)
	for _, sep := range separators {
		if !strings.Contains(lower, sep) {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sep))
		var parts []string
		for _, p := range re.Split(text, -1) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return parts
	}
	return []string{text}
}

// ParseSegment estimates a single food mention.
func (p *Parser) ParseSegment(text string) models.FoodItem {
	text = strings.TrimSpace(text)
	grams, hasGrams := gramQuantity(text)

	entry, ok := p.table.Match(text)
	if !ok {
		if hasGrams {
			n := perGram.scale(grams)
			return models.FoodItem{
				Name:     text,
				Calories: math.Round(n.Calories),
				Protein:  math.Round(n.Protein),
				Carbs:    math.Round(n.Carbs),
				Fat:      math.Round(n.Fat),
			}
		}
		return item(text, unknownGuess)
	}

	var (
		multiplier = 1.0
		name       = entry.displayName(1)
	)
	switch {
	case hasGrams:
		if entry.CountBased() && entry.ServingGrams > 0 {
			multiplier = grams / entry.ServingGrams
		} else {
			multiplier = grams / 100
		}
		name = entry.Name + " " + formatAmount(grams) + "g"
	default:
		if units, ok := unitQuantity(text); ok {
			multiplier = units
			if entry.CountBased() {
				count := 2
				if units == 1 {
					count = 1
				}
				name = formatAmount(units) + " " + entry.displayName(count)
			} else {
				name = entry.Name + " " + formatAmount(units*100) + "g"
			}
		}
	}

	n := entry.Values.scale(multiplier)
	return item(name, Nutrients{
		Calories: round1(n.Calories),
		Protein:  round1(n.Protein),
		Carbs:    round1(n.Carbs),
		Fat:      round1(n.Fat),
	})
}

func item(name string, n Nutrients) models.FoodItem {
	return models.FoodItem{Name: name, Calories: n.Calories, Protein: n.Protein, Carbs: n.Carbs, Fat: n.Fat}
}

func gramQuantity(text string) (float64, bool) {
	m := gramAmount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	g, err := strconv.ParseFloat(m[1], 64)
	if err != nil || g <= 0 {
		return 0, false
	}
	return g, true
}

func unitQuantity(text string) (float64, bool) {
	m := unitAmount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	u, err := strconv.ParseFloat(m[1], 64)
	if err != nil || u <= 0 {
		return 0, false
	}
	return u, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Sanitize normalizes items coming from outside (model output, clients):
// missing names become "Unknown Food" and unusable numbers become 0.
func Sanitize(items []models.FoodItem) []models.FoodItem {
	out := make([]models.FoodItem, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			it.Name = "Unknown Food"
		}
		it.Calories = nonNegative(it.Calories)
		it.Protein = nonNegative(it.Protein)
		it.Carbs = nonNegative(it.Carbs)
		it.Fat = nonNegative(it.Fat)
		out = append(out, it)
	}
	return out
}
