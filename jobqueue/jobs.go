package jobqueue

import (
	"context"
	"encoding/json"

	"github.com/avdeevk/lms-api/services"
)

// JobCourseUpdateNotification emails course subscribers after a lesson edit
const JobCourseUpdateNotification = "course_update_notification"

// CourseUpdatePayload is the argument schema for JobCourseUpdateNotification
type CourseUpdatePayload struct {
	CourseID uint `json:"course_id"`
}

// RegisterNotificationJobs binds the notification jobs to the queue
func RegisterNotificationJobs(q *Queue, notifications *services.NotificationService) {
	q.Register(JobCourseUpdateNotification, func(ctx context.Context, payload json.RawMessage) string {
		var p CourseUpdatePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return "invalid payload: " + err.Error()
		}
		return notifications.SendCourseUpdateNotification(ctx, p.CourseID)
	})
}
