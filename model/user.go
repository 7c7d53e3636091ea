package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Phone        string         `gorm:"type:varchar(20)" json:"phone,omitempty"`
	City         string         `gorm:"type:varchar(100)" json:"city,omitempty"`
	Avatar       string         `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`
	IsSuperuser  bool           `gorm:"default:false" json:"-"`
	IsModerator  bool           `gorm:"default:false;index" json:"is_moderator"`
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login,omitempty"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Courses       []Course       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Lessons       []Lesson       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Payments      []Payment      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
