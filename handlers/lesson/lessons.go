package lesson

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/jobqueue"
	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/services"
	"github.com/avdeevk/lms-api/utils/middleware"
	"github.com/avdeevk/lms-api/utils/policy"
	"github.com/avdeevk/lms-api/utils/response"
	"github.com/avdeevk/lms-api/utils/validation"
)

// LessonHandler handles lesson-related requests
type LessonHandler struct {
	db        *gorm.DB
	queue     jobqueue.Enqueuer
	validator *validation.Validator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(db *gorm.DB, queue jobqueue.Enqueuer) *LessonHandler {
	return &LessonHandler{
		db:        db,
		queue:     queue,
		validator: validation.NewValidator(),
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Preview     string  `json:"preview" validate:"omitempty,max=255"`
	VideoLink   string  `json:"video_link" validate:"omitempty,url,max=500"`
	Price       float64 `json:"price" validate:"gte=0"`
	CourseID    uint    `json:"course_id" validate:"required,min=1"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Name        string   `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Preview     *string  `json:"preview" validate:"omitempty,max=255"`
	VideoLink   *string  `json:"video_link" validate:"omitempty,url,max=500"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

// listOrderings whitelists the client-selectable sort columns; a leading
// dash flips the direction
var listOrderings = map[string]string{
	"name":        "name ASC",
	"-name":       "name DESC",
	"id":          "id ASC",
	"-id":         "id DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

// validateContent runs the external-link filter over the free-text fields
func validateContent(description, videoLink string) map[string]string {
	if err := validation.ValidateNoExternalLinks(description); err != nil {
		return map[string]string{"description": err.Error()}
	}
	if err := validation.ValidateNoExternalLinks(videoLink); err != nil {
		return map[string]string{"video_link": err.Error()}
	}
	return nil
}

// ListLessons handles GET /api/v1/lessons
// Moderators see every lesson, other users only their own. Supports
// filtering by course and name search.
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	courseID := c.Query("course_id", "")

	query := policy.ScopeOwned(h.db.Model(&model.Lesson{}), actor, "owner_id")

	if search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	order := "created_at DESC"
	if o, ok := listOrderings[c.Query("ordering")]; ok {
		order = o
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count lessons")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var lessons []model.Lesson
	if err := query.Order(order).
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&lessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Paginated(c, lessons, pagination)
}

// GetLesson handles GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var lesson model.Lesson
	err := policy.ScopeOwned(h.db.Model(&model.Lesson{}), actor, "owner_id").
		Preload("Course").
		First(&lesson, "lessons.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	return response.Success(c, lesson)
}

// CreateLesson handles POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if !policy.CanCreate(actor) {
		return response.Forbidden(c, "Moderators cannot create lessons")
	}

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Description = validation.SanitizeString(req.Description)

	if fields := validateContent(req.Description, req.VideoLink); fields != nil {
		return response.ValidationError(c, fields)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to verify course")
	}

	lesson := model.Lesson{
		Name:        req.Name,
		Description: req.Description,
		Preview:     req.Preview,
		VideoLink:   req.VideoLink,
		Price:       req.Price,
		CourseID:    course.ID,
		OwnerID:     actor.ID,
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/v1/lessons/:id
// When the previous update is older than the notification debounce window,
// a course-update notification job is enqueued after saving.
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var lesson model.Lesson
	err := policy.ScopeOwned(h.db.Model(&model.Lesson{}), actor, "owner_id").
		First(&lesson, "lessons.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = validation.SanitizeString(req.Name)
	}
	if req.Description != nil {
		desc := validation.SanitizeString(*req.Description)
		if err := validation.ValidateNoExternalLinks(desc); err != nil {
			return response.ValidationError(c, map[string]string{"description": err.Error()})
		}
		updates["description"] = desc
	}
	if req.VideoLink != nil {
		if err := validation.ValidateNoExternalLinks(*req.VideoLink); err != nil {
			return response.ValidationError(c, map[string]string{"video_link": err.Error()})
		}
		updates["video_link"] = *req.VideoLink
	}
	if req.Preview != nil {
		updates["preview"] = *req.Preview
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	prevUpdatedAt := lesson.UpdatedAt

	// Notify only on an actual edit; an empty body past the debounce window
	// must not reach subscribers
	if len(updates) > 0 {
		if err := h.db.Model(&lesson).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update lesson")
		}

		if services.ShouldNotify(prevUpdatedAt, time.Now()) {
			// Fire-and-forget: the response does not wait for delivery
			_, err := h.queue.Enqueue(c.Context(), jobqueue.JobCourseUpdateNotification,
				jobqueue.CourseUpdatePayload{CourseID: lesson.CourseID})
			if err != nil {
				log.Printf("[LESSON] Failed to enqueue update notification for course %d: %v", lesson.CourseID, err)
			}
		}
	}

	return response.Success(c, lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons/:id
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var lesson model.Lesson
	err := policy.ScopeOwned(h.db.Model(&model.Lesson{}), actor, "owner_id").
		First(&lesson, "lessons.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if !policy.CanDestroy(actor, lesson.OwnerID) {
		return response.Forbidden(c, "Only the owner can delete a lesson")
	}

	if err := h.db.Delete(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete lesson")
	}

	return response.NoContent(c)
}
