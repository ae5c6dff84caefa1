package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Coach   UserRole = "coach"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Sport     string    `gorm:"size:50" json:"sport"` // primary sport, e.g. football, track
	XP        int       `gorm:"default:0" json:"xp"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin *time.Time `json:"lastLogin"`
	LastSeen  *time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
