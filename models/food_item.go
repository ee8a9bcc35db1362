package models

// FoodItem is the only persisted shape of a food entry inside a meal log.
// Editing state (quantities, cached rates) never reaches storage.
type FoodItem struct {
	Name     string  `json:"name" binding:"required"`
	Calories float64 `json:"calories" binding:"gte=0,lte=100000"`
	Protein  float64 `json:"protein" binding:"gte=0,lte=100000"`
	Carbs    float64 `json:"carbs" binding:"gte=0,lte=100000"`
	Fat      float64 `json:"fat" binding:"gte=0,lte=100000"`
}
