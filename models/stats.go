package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyStat is the per user, per day rollup of meal logs.
type DailyStat struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_daily_user_date,priority:1" json:"user_id"`
	Date          string    `gorm:"type:varchar(10);not null;uniqueIndex:uniq_daily_user_date,priority:2" json:"date"`
	TotalCalories int       `gorm:"not null;default:0" json:"total_calories"`
	TotalProtein  float64   `gorm:"not null;default:0" json:"total_protein"`
	TotalCarbs    float64   `gorm:"not null;default:0" json:"total_carbs"`
	TotalFat      float64   `gorm:"not null;default:0" json:"total_fat"`
	MealCount     int       `gorm:"not null;default:0" json:"meal_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (d *DailyStat) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// WeeklyStat rolls daily stats up into Monday..Sunday weeks.
type WeeklyStat struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_weekly_user_week,priority:1" json:"user_id"`
	WeekStartDate    string    `gorm:"type:varchar(10);not null;uniqueIndex:uniq_weekly_user_week,priority:2" json:"week_start_date"`
	WeekEndDate      string    `gorm:"type:varchar(10);not null" json:"week_end_date"`
	TotalCalories    int       `gorm:"not null;default:0" json:"total_calories"`
	AvgDailyCalories float64   `gorm:"not null;default:0" json:"avg_daily_calories"`
	TotalProtein     float64   `gorm:"not null;default:0" json:"total_protein"`
	TotalCarbs       float64   `gorm:"not null;default:0" json:"total_carbs"`
	TotalFat         float64   `gorm:"not null;default:0" json:"total_fat"`
	MealCount        int       `gorm:"not null;default:0" json:"meal_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (w *WeeklyStat) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
