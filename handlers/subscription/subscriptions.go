package subscription

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/utils/middleware"
	"github.com/avdeevk/lms-api/utils/response"
)

// SubscriptionHandler handles course subscription toggling
type SubscriptionHandler struct {
	db *gorm.DB
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(db *gorm.DB) *SubscriptionHandler {
	return &SubscriptionHandler{db: db}
}

// ToggleResponse reports the result of a toggle
type ToggleResponse struct {
	CourseID   uint   `json:"course_id"`
	Subscribed bool   `json:"subscribed"`
	Message    string `json:"message"`
}

// Toggle handles POST /api/v1/courses/:id/subscribe
// Creates the subscription if absent, removes it if present. The unique
// (user, course) index guards concurrent toggles.
func (h *SubscriptionHandler) Toggle(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, "id = ?", courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var existing model.Subscription
	err := h.db.Where("user_id = ? AND course_id = ?", userID, course.ID).First(&existing).Error

	switch {
	case err == nil:
		if err := h.db.Delete(&existing).Error; err != nil {
			return response.InternalServerError(c, "Failed to remove subscription")
		}
		return response.Success(c, ToggleResponse{
			CourseID:   course.ID,
			Subscribed: false,
			Message:    "subscription removed",
		})

	case err == gorm.ErrRecordNotFound:
		sub := model.Subscription{UserID: userID, CourseID: course.ID}
		if err := h.db.Create(&sub).Error; err != nil {
			return response.InternalServerError(c, "Failed to add subscription")
		}
		return response.Success(c, ToggleResponse{
			CourseID:   course.ID,
			Subscribed: true,
			Message:    "subscription added",
		})

	default:
		return response.InternalServerError(c, "Failed to check subscription")
	}
}
