package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/utils/middleware"
	"github.com/avdeevk/lms-api/utils/policy"
	"github.com/avdeevk/lms-api/utils/response"
	"github.com/avdeevk/lms-api/utils/validation"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Preview     string  `json:"preview" validate:"omitempty,max=255"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Name        string   `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Preview     *string  `json:"preview" validate:"omitempty,max=255"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

// CourseDetail is the retrieve payload: the course with its lessons plus
// subscription state for the requesting user
type CourseDetail struct {
	model.Course
	LessonsCount int  `json:"lessons_count"`
	IsSubscribed bool `json:"is_subscribed"`
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

// ListCourses handles GET /api/v1/courses
// Moderators see every course, other users only their own.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")

	query := policy.ScopeOwned(h.db.Model(&model.Course{}), actor, "owner_id")

	if search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	order := "created_at DESC"
	if o, ok := listOrderings[c.Query("ordering")]; ok {
		order = o
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var courses []model.Course
	if err := query.Preload("Lessons").
		Order(order).
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
// Out-of-scope courses surface as not-found, never forbidden.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	err := policy.ScopeOwned(h.db.Model(&model.Course{}), actor, "owner_id").
		Preload("Lessons").
		First(&course, "courses.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var subscribed int64
	h.db.Model(&model.Subscription{}).
		Where("user_id = ? AND course_id = ?", actor.ID, course.ID).
		Count(&subscribed)

	return response.Success(c, CourseDetail{
		Course:       course,
		LessonsCount: len(course.Lessons),
		IsSubscribed: subscribed > 0,
	})
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if !policy.CanCreate(actor) {
		return response.Forbidden(c, "Moderators cannot create courses")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Description = validation.SanitizeString(req.Description)

	if err := validation.ValidateNoExternalLinks(req.Description); err != nil {
		return response.ValidationError(c, map[string]string{"description": err.Error()})
	}

	course := model.Course{
		Name:        req.Name,
		Description: req.Description,
		Preview:     req.Preview,
		Price:       req.Price,
		OwnerID:     actor.ID,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
// Owners and moderators may update; the owner field never changes.
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	err := policy.ScopeOwned(h.db.Model(&model.Course{}), actor, "owner_id").
		First(&course, "courses.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var req UpdateCourseRequest
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
	if req.Preview != nil {
		updates["preview"] = *req.Preview
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if len(updates) > 0 {
		if err := h.db.Model(&course).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update course")
		}
	}

	return response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
// Only the owner may delete; moderators get forbidden.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	err := policy.ScopeOwned(h.db.Model(&model.Course{}), actor, "owner_id").
		First(&course, "courses.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if !policy.CanDestroy(actor, course.OwnerID) {
		return response.Forbidden(c, "Only the owner can delete a course")
	}

	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.NoContent(c)
}
