package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
)

// NotificationDebounce is the minimum gap since a lesson's previous update
// before subscribers are notified again.
const NotificationDebounce = 4 * time.Hour

// ShouldNotify reports whether a lesson edit at now warrants a subscriber
// notification, given the lesson's previous update timestamp.
func ShouldNotify(prevUpdatedAt, now time.Time) bool {
	return now.Sub(prevUpdatedAt) > NotificationDebounce
}

// NotificationService sends course-update notifications to subscribers
type NotificationService struct {
	db     *gorm.DB
	sender Sender
	domain string
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, sender Sender, domain string) *NotificationService {
	return &NotificationService{
		db:     db,
		sender: sender,
		domain: domain,
	}
}

// SendCourseUpdateNotification gathers the distinct emails of a course's
// subscribers and sends one batch email. It is invoked from the job queue,
// outside any request; outcomes are reported as status strings and never
// propagate as errors to the worker.
func (s *NotificationService) SendCourseUpdateNotification(ctx context.Context, courseID uint) string {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "course not found"
		}
		return fmt.Sprintf("failed to load course: %v", err)
	}

	var emails []string
	err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Distinct("users.email").
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Where("subscriptions.course_id = ? AND users.email <> ''", courseID).
		Pluck("users.email", &emails).Error
	if err != nil {
		return fmt.Sprintf("failed to load subscribers: %v", err)
	}

	if len(emails) == 0 {
		return "no subscribers to notify"
	}

	subject := fmt.Sprintf("Course %q has been updated", course.Name)
	body := fmt.Sprintf(
		"Hello!\n\nThe course %q has been updated. Check out the new materials!\n\nCourse link: %s/courses/%d/\n\nThe LMS Team",
		course.Name, s.domain, course.ID,
	)

	if err := s.sender.Send(subject, body, emails); err != nil {
		log.Printf("[NOTIFY] Failed to email %d subscribers of course %d: %v", len(emails), courseID, err)
		return fmt.Sprintf("failed to send notifications: %v", err)
	}

	return fmt.Sprintf("notified %d subscribers of course %q", len(emails), course.Name)
}
