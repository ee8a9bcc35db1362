// Package nutrition holds the pure, storage-free pieces of meal editing:
// the built-in food table, the quantity classifier, the quantity-aware
// calculator and the natural-language fallback parser.
package nutrition

import (
	"math"
	"sort"
	"strings"
)

// Basis says how an entry's reference values are expressed.
type Basis int

const (
	// PerHundredGrams entries are weighed; values are per 100 g.
	PerHundredGrams Basis = iota
	// PerUnit entries are counted; values are per piece.
	PerUnit
)

// Nutrients is a calories/protein/carbs/fat tuple. Depending on context it
// holds absolute values or a rate (per 100 g or per unit).
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrients) scale(f float64) Nutrients {
	return Nutrients{
		Calories: n.Calories * f,
		Protein:  n.Protein * f,
		Carbs:    n.Carbs * f,
		Fat:      n.Fat * f,
	}
}

func (n Nutrients) finite() bool {
	for _, v := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FoodEntry is one record of the reference table.
type FoodEntry struct {
	Keyword string
	Name    string // canonical display name
	Plural  string // used with counts other than one; empty means Name
	Basis   Basis
	Values  Nutrients
	// ServingGrams is the weight of one piece for PerUnit entries. Gram
	// quantities typed by the user are converted with it.
	ServingGrams float64
}

// CountBased reports whether quantities for this entry are piece counts.
func (e FoodEntry) CountBased() bool { return e.Basis == PerUnit }

func (e FoodEntry) displayName(count int) string {
	if count != 1 && e.Plural != "" {
		return e.Plural
	}
	return e.Name
}

// Table is an ordered keyword table. Lookups pick the longest keyword that
// occurs in the text; equal lengths resolve to the earlier entry.
type Table struct {
	entries []FoodEntry
}

// NewTable copies entries and orders them for longest-keyword matching.
// Keywords are compared lowercase.
func NewTable(entries []FoodEntry) *Table {
	cp := make([]FoodEntry, len(entries))
	for i, e := range entries {
		e.Keyword = strings.ToLower(strings.TrimSpace(e.Keyword))
		cp[i] = e
	}
	sort.SliceStable(cp, func(i, j int) bool {
		return len(cp[i].Keyword) > len(cp[j].Keyword)
	})
	return &Table{entries: cp}
}

// Entries returns the table in match order.
func (t *Table) Entries() []FoodEntry {
	out := make([]FoodEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Match finds the entry whose keyword is the longest substring of text.
func (t *Table) Match(text string) (FoodEntry, bool) {
	lower := strings.ToLower(text)
	for _, e := range t.entries {
		if e.Keyword != "" && strings.Contains(lower, e.Keyword) {
			return e, true
		}
	}
	return FoodEntry{}, false
}

var defaultTable = NewTable([]FoodEntry{
	{Keyword: "egg", Name: "Egg", Plural: "Eggs", Basis: PerUnit, ServingGrams: 50,
		Values: Nutrients{Calories: 70, Protein: 6, Carbs: 0.6, Fat: 5}},
	{Keyword: "eggs", Name: "Egg", Plural: "Eggs", Basis: PerUnit, ServingGrams: 50,
		Values: Nutrients{Calories: 70, Protein: 6, Carbs: 0.6, Fat: 5}},
	{Keyword: "chicken", Name: "Chicken", Basis: PerHundredGrams,
		Values: Nutrients{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}},
	{Keyword: "chicken breast", Name: "Chicken Breast", Basis: PerHundredGrams,
		Values: Nutrients{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}},
	{Keyword: "rice", Name: "Rice", Basis: PerHundredGrams,
		Values: Nutrients{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}},
	{Keyword: "white rice", Name: "White Rice", Basis: PerHundredGrams,
		Values: Nutrients{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}},
	{Keyword: "apple", Name: "Apple", Plural: "Apples", Basis: PerUnit, ServingGrams: 182,
		Values: Nutrients{Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3}},
	{Keyword: "banana", Name: "Banana", Plural: "Bananas", Basis: PerUnit, ServingGrams: 118,
		Values: Nutrients{Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4}},
	{Keyword: "bread", Name: "Bread", Basis: PerHundredGrams,
		Values: Nutrients{Calories: 265, Protein: 9, Carbs: 49, Fat: 3.2}},
	{Keyword: "sandwich", Name: "Sandwich", Plural: "Sandwiches", Basis: PerUnit, ServingGrams: 100,
		Values: Nutrients{Calories: 250, Protein: 10, Carbs: 30, Fat: 10}},
})

// DefaultTable is the built-in reference table.
func DefaultTable() *Table { return defaultTable }
