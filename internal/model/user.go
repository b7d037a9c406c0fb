package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string         `gorm:"type:varchar(255);not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string         `gorm:"type:varchar(80);not null;default:''" json:"display_name"`
	HomeCity     string         `gorm:"type:varchar(80);not null;default:''" json:"home_city"`
	Handicap     *float64       `gorm:"type:decimal(4,1)" json:"handicap,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// ProfileComplete reports whether the user may join or be invited to
// rounds. Handicap is optional; name and city are not.
func (u *User) ProfileComplete() bool {
	return u.DisplayName != "" && u.HomeCity != ""
}
