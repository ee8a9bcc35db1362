package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// MealLog is one recorded meal. Date is a YYYY-MM-DD calendar day and
// Timestamp the creation instant in unix milliseconds.
type MealLog struct {
	ID            string                        `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string                        `gorm:"type:varchar(36);not null;index:idx_meal_logs_user_date,priority:1;index:idx_meal_logs_user_ts,priority:1" json:"userId"`
	Date          string                        `gorm:"type:varchar(10);not null;index:idx_meal_logs_user_date,priority:2" json:"date"`
	MealType      MealType                      `gorm:"type:varchar(16);not null" json:"mealType"`
	FoodItems     datatypes.JSONSlice[FoodItem] `gorm:"not null" json:"foodItems"`
	TotalCalories int                           `gorm:"not null;default:0" json:"totalCalories"`
	ImageURL      *string                       `gorm:"type:text" json:"imageUrl,omitempty"`
	Notes         *string                       `gorm:"type:text" json:"notes,omitempty"`
	Timestamp     int64                         `gorm:"not null;index:idx_meal_logs_user_ts,priority:2" json:"timestamp"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

func (m *MealLog) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	return nil
}

// Totals sums the macro-nutrients of every food item.
func (m *MealLog) Totals() (calories, protein, carbs, fat float64) {
	for _, it := range m.FoodItems {
		calories += it.Calories
		protein += it.Protein
		carbs += it.Carbs
		fat += it.Fat
	}
	return
}
