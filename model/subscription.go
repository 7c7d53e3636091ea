package model

import "time"

// Subscription links a user to a course they follow. One row per (user, course)
// pair; the unique index backs the idempotent toggle.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID     uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"course_id"`
	SubscribedAt time.Time `gorm:"autoCreateTime" json:"subscribed_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}
