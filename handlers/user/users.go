package user

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

// UserHandler handles user account requests
type UserHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// UpdateUserRequest represents the request body for updating a profile
type UpdateUserRequest struct {
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	City   *string `json:"city" validate:"omitempty,max=100"`
	Avatar *string `json:"avatar" validate:"omitempty,max=255"`
}

// UserDetail is the retrieve payload: the account plus its recent payments
type UserDetail struct {
	model.User
	Payments []model.Payment `json:"payments"`
}

// ListUsers handles GET /api/v1/users
// Staff see every account, others only their own.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := policy.ScopeUsers(h.db.Model(&model.User{}), actor)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var users []model.User
	if err := query.Order("id").
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, pagination)
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var user model.User
	err := policy.ScopeUsers(h.db.Model(&model.User{}), actor).
		First(&user, "users.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var payments []model.Payment
	h.db.Where("user_id = ?", user.ID).
		Order("payment_date DESC").
		Limit(5).
		Find(&payments)

	return response.Success(c, UserDetail{
		User:     user,
		Payments: payments,
	})
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var user model.User
	err := policy.ScopeUsers(h.db.Model(&model.User{}), actor).
		First(&user, "users.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	updates := map[string]interface{}{}
	if req.Phone != nil {
		updates["phone"] = validation.SanitizeString(*req.Phone)
	}
	if req.City != nil {
		updates["city"] = validation.SanitizeString(*req.City)
	}
	if req.Avatar != nil {
		updates["avatar"] = validation.SanitizeString(*req.Avatar)
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var user model.User
	err := policy.ScopeUsers(h.db.Model(&model.User{}), actor).
		First(&user, "users.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if err := h.db.Delete(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.NoContent(c)
}
