package models

// Request and response bodies shared by the API and its Go client. The
// binding tags are checked by gin on bind and again by the services.

type SignupInput struct {
	Username           string `json:"username" binding:"required"`
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required"`
	DailyCalorieTarget *int   `json:"dailyCalorieTarget" binding:"omitempty,min=1000,max=5000"`
}

type ProfileInput struct {
	Username           *string `json:"username" binding:"omitempty,min=1"`
	Email              *string `json:"email" binding:"omitempty,email"`
	DailyCalorieTarget *int    `json:"dailyCalorieTarget" binding:"omitempty,min=1000,max=5000"`
}

// MealInput is the body of a create request. TotalCalories defaults to the
// rounded sum of item calories when missing or zero.
type MealInput struct {
	Date          string     `json:"date" binding:"required"`
	MealType      MealType   `json:"mealType" binding:"required,oneof=Breakfast Lunch Dinner Snack"`
	FoodItems     []FoodItem `json:"foodItems" binding:"required,min=1,dive"`
	TotalCalories *float64   `json:"totalCalories" binding:"omitempty,gte=0,lte=2147483647"`
	ImageURL      *string    `json:"imageUrl"`
	Notes         *string    `json:"notes"`
}

// MealPatch updates only the fields that are present. An empty imageUrl or
// notes string clears the value.
type MealPatch struct {
	Date          *string     `json:"date"`
	MealType      *MealType   `json:"mealType" binding:"omitempty,oneof=Breakfast Lunch Dinner Snack"`
	FoodItems     *[]FoodItem `json:"foodItems" binding:"omitempty,min=1,dive"`
	TotalCalories *float64    `json:"totalCalories" binding:"omitempty,gte=0,lte=2147483647"`
	ImageURL      *string     `json:"imageUrl"`
	Notes         *string     `json:"notes"`
}

func (p MealPatch) Empty() bool {
	return p.Date == nil && p.MealType == nil && p.FoodItems == nil &&
		p.TotalCalories == nil && p.ImageURL == nil && p.Notes == nil
}

// Estimate sources.
const (
	SourceGemini      = "gemini"
	SourceRekognition = "rekognition"
	SourceParser      = "parser"
	SourceFallback    = "fallback"
)

type TextEstimate struct {
	Items  []FoodItem `json:"items"`
	Source string     `json:"source"`
}

type ImageEstimate struct {
	FoodItem
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
	Source     string  `json:"source"`
}

type Insight struct {
	Tip    string `json:"tip"`
	Source string `json:"source"`
}
