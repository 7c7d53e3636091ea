package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment methods
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodStripe   = "stripe"
)

// Payment statuses. Transitions only go forward: pending -> succeeded or
// pending -> failed.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

var (
	ErrPaymentTargetMissing = errors.New("payment must reference a course or a lesson")
	ErrPaymentTargetBoth    = errors.New("payment cannot reference both a course and a lesson")
)

// Payment represents a payment record for a course or a lesson
type Payment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	PaidCourseID *uint          `gorm:"index" json:"paid_course_id,omitempty"`
	PaidLessonID *uint          `gorm:"index" json:"paid_lesson_id,omitempty"`
	Amount       float64        `gorm:"not null" json:"amount"`
	Method       string         `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status       string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentDate  time.Time      `gorm:"autoCreateTime" json:"payment_date"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// External payment provider references. The session id is NULL until the
	// checkout session exists (and always for cash/transfer payments), so the
	// unique index only constrains real session ids.
	StripeProductID       string         `gorm:"type:varchar(100)" json:"stripe_product_id,omitempty"`
	StripePriceID         string         `gorm:"type:varchar(100)" json:"stripe_price_id,omitempty"`
	StripeSessionID       *string        `gorm:"type:varchar(100);uniqueIndex" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string         `gorm:"type:varchar(100)" json:"stripe_payment_intent_id,omitempty"`
	Metadata              datatypes.JSON `json:"metadata,omitempty"`

	// Relationships
	User       User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PaidCourse *Course `gorm:"foreignKey:PaidCourseID;constraint:OnDelete:CASCADE" json:"paid_course,omitempty"`
	PaidLesson *Lesson `gorm:"foreignKey:PaidLessonID;constraint:OnDelete:CASCADE" json:"paid_lesson,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Validate enforces the course-XOR-lesson invariant.
func (p *Payment) Validate() error {
	if p.PaidCourseID == nil && p.PaidLessonID == nil {
		return ErrPaymentTargetMissing
	}
	if p.PaidCourseID != nil && p.PaidLessonID != nil {
		return ErrPaymentTargetBoth
	}
	return nil
}

// BeforeSave rejects rows that reference both or neither of course/lesson.
func (p *Payment) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}
