package payment

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/services"
	"github.com/avdeevk/lms-api/utils/middleware"
	"github.com/avdeevk/lms-api/utils/policy"
	"github.com/avdeevk/lms-api/utils/response"
	"github.com/avdeevk/lms-api/utils/validation"
)

// PaymentHandler handles payment-related requests
type PaymentHandler struct {
	db        *gorm.DB
	payments  *services.PaymentService
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		payments:  payments,
		validator: validation.NewValidator(),
	}
}

// CreatePaymentRequest represents the request body for creating a payment.
// Exactly one of paid_course_id/paid_lesson_id must be set.
type CreatePaymentRequest struct {
	PaidCourseID *uint  `json:"paid_course_id" validate:"omitempty,min=1"`
	PaidLessonID *uint  `json:"paid_lesson_id" validate:"omitempty,min=1"`
	Method       string `json:"payment_method" validate:"required,oneof=cash transfer stripe"`
}

// PaymentStatusResponse is the poll/status payload
type PaymentStatusResponse struct {
	ID              uint   `json:"id"`
	Status          string `json:"status"`
	StripeSessionID string `json:"stripe_session_id,omitempty"`
	PaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`
}

// ListPayments handles GET /api/v1/payments
// Users see their own payments, staff see all. Supports filtering by paid
// course, paid lesson and method, and ordering by payment date.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := policy.ScopePayments(h.db.Model(&model.Payment{}), actor)

	if courseID := c.Query("paid_course_id"); courseID != "" {
		query = query.Where("paid_course_id = ?", courseID)
	}
	if lessonID := c.Query("paid_lesson_id"); lessonID != "" {
		query = query.Where("paid_lesson_id = ?", lessonID)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("method = ?", method)
	}

	order := "payment_date DESC"
	if c.Query("ordering") == "payment_date" {
		order = "payment_date ASC"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count payments")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var payments []model.Payment
	if err := query.Order(order).
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Paginated(c, payments, pagination)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var payment model.Payment
	err := policy.ScopePayments(h.db.Model(&model.Payment{}), actor).
		First(&payment, "payments.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}

	return response.Success(c, payment)
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if !policy.CanCreate(actor) {
		return response.Forbidden(c, "Moderators cannot create payments")
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	payment, err := h.payments.Create(c.Context(), services.CreatePaymentInput{
		UserID:       actor.ID,
		PaidCourseID: req.PaidCourseID,
		PaidLessonID: req.PaidLessonID,
		Method:       req.Method,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPaymentTargetMissing), errors.Is(err, model.ErrPaymentTargetBoth):
			return response.ValidationError(c, map[string]string{"paid_course_id": err.Error()})
		case errors.Is(err, services.ErrInvalidMethod):
			return response.ValidationError(c, map[string]string{"payment_method": err.Error()})
		case errors.Is(err, services.ErrResourceNotFound):
			return response.NotFound(c, "Paid course or lesson not found")
		default:
			// Remote provider failure: the payment is marked failed
			return response.BadRequest(c, "Payment provider error: "+err.Error())
		}
	}

	return response.Created(c, payment)
}

// PaymentSuccess handles GET /api/v1/payments/success?session_id=...
// Polls the provider and settles the payment when it reports paid.
func (h *PaymentHandler) PaymentSuccess(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		return response.BadRequest(c, "session_id is required")
	}

	payment, err := h.payments.Confirm(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to confirm payment")
	}

	// The session id already discloses the payment's existence, so a
	// mismatched user gets forbidden rather than not-found
	if !policy.CanViewPayment(actor, payment.UserID) {
		return response.Forbidden(c, "Payment belongs to another user")
	}

	if payment.Status == model.PaymentStatusSucceeded {
		return response.SuccessWithMessage(c, "Payment completed", statusOf(payment))
	}
	return response.SuccessWithMessage(c, "Payment not completed yet", statusOf(payment))
}

// PaymentCancel handles GET /api/v1/payments/cancel
func (h *PaymentHandler) PaymentCancel(c *fiber.Ctx) error {
	return response.SuccessWithMessage(c, "Payment cancelled. You can retry the checkout at any time.", nil)
}

// PaymentStatus handles GET /api/v1/payments/:id/status
func (h *PaymentHandler) PaymentStatus(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var payment model.Payment
	if err := h.db.First(&payment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}

	if !policy.CanViewPayment(actor, payment.UserID) {
		return response.Forbidden(c, "Payment belongs to another user")
	}

	return response.Success(c, statusOf(&payment))
}

func statusOf(p *model.Payment) PaymentStatusResponse {
	resp := PaymentStatusResponse{
		ID:              p.ID,
		Status:          p.Status,
		PaymentIntentID: p.StripePaymentIntentID,
	}
	if p.StripeSessionID != nil {
		resp.StripeSessionID = *p.StripeSessionID
	}
	return resp
}
