package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a learning course owned by the user who created it
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Preview     string         `gorm:"type:varchar(255)" json:"preview,omitempty"`
	Price       float64        `gorm:"not null;default:0" json:"price"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`

	// Relationships
	Owner         User           `gorm:"foreignKey:OwnerID" json:"-"`
	Lessons       []Lesson       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Lesson represents a single lesson inside a course
type Lesson struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Preview     string         `gorm:"type:varchar(255)" json:"preview,omitempty"`
	VideoLink   string         `gorm:"type:varchar(500)" json:"video_link"`
	Price       float64        `gorm:"not null;default:0" json:"price"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Owner  User   `gorm:"foreignKey:OwnerID" json:"-"`
}
