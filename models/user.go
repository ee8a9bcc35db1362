package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const DefaultCalorieTarget = 2000

type User struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username           string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email              string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"type:varchar(255);not null" json:"-"`
	Role               Role      `gorm:"type:varchar(10);not null;default:USER" json:"role"`
	DailyCalorieTarget int       `gorm:"not null;default:2000" json:"dailyCalorieTarget"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
