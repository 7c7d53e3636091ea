package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/services/stripe"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrResourceNotFound = errors.New("paid course or lesson not found")
	ErrInvalidMethod    = errors.New("unsupported payment method")
)

// PaymentService drives the payment lifecycle: creation, the remote
// checkout-session round trip and status polling. Transitions only move
// forward: pending -> succeeded or pending -> failed.
type PaymentService struct {
	db     *gorm.DB
	stripe *stripe.Client
	domain string
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, stripeClient *stripe.Client, domain string) *PaymentService {
	return &PaymentService{
		db:     db,
		stripe: stripeClient,
		domain: domain,
	}
}

// CreatePaymentInput describes a payment to create. Exactly one of
// PaidCourseID/PaidLessonID must be set.
type CreatePaymentInput struct {
	UserID       uint
	PaidCourseID *uint
	PaidLessonID *uint
	Method       string
}

// Create persists a payment for a course or a lesson. The amount comes from
// the resource's price. Cash and transfer payments succeed immediately; the
// stripe method creates a remote product, price and checkout session and
// leaves the payment pending until polled. A failed remote call marks the
// payment failed and returns the error.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput) (*model.Payment, error) {
	switch input.Method {
	case model.PaymentMethodCash, model.PaymentMethodTransfer, model.PaymentMethodStripe:
	default:
		return nil, ErrInvalidMethod
	}

	payment := &model.Payment{
		UserID:       input.UserID,
		PaidCourseID: input.PaidCourseID,
		PaidLessonID: input.PaidLessonID,
		Method:       input.Method,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	var itemName, itemDescription, itemType string
	var itemID uint

	if input.PaidCourseID != nil {
		var course model.Course
		if err := s.db.WithContext(ctx).First(&course, *input.PaidCourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrResourceNotFound
			}
			return nil, err
		}
		payment.Amount = course.Price
		itemName, itemDescription, itemType, itemID = course.Name, course.Description, "course", course.ID
	} else {
		var lesson model.Lesson
		if err := s.db.WithContext(ctx).First(&lesson, *input.PaidLessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrResourceNotFound
			}
			return nil, err
		}
		payment.Amount = lesson.Price
		itemName, itemDescription, itemType, itemID = lesson.Name, lesson.Description, "lesson", lesson.ID
	}

	if input.Method != model.PaymentMethodStripe {
		// Non-electronic methods are recorded as settled
		payment.Status = model.PaymentStatusSucceeded
		if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
			return nil, err
		}
		return payment, nil
	}

	payment.Status = model.PaymentStatusPending
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}

	session, productID, priceID, err := s.createCheckoutSession(ctx, payment, itemName, itemDescription, itemType, itemID)
	if err != nil {
		// Never leave the row silently pending after a remote failure
		if derr := s.db.WithContext(ctx).Model(payment).Update("status", model.PaymentStatusFailed).Error; derr != nil {
			log.Printf("[PAYMENT] Failed to mark payment %d as failed: %v", payment.ID, derr)
		}
		payment.Status = model.PaymentStatusFailed
		return payment, err
	}

	metadata, _ := json.Marshal(map[string]string{
		"item_type":    itemType,
		"item_id":      strconv.FormatUint(uint64(itemID), 10),
		"checkout_url": session.URL,
	})

	updates := map[string]interface{}{
		"stripe_product_id": productID,
		"stripe_price_id":   priceID,
		"stripe_session_id": session.ID,
		"metadata":          datatypes.JSON(metadata),
	}
	if err := s.db.WithContext(ctx).Model(payment).Updates(updates).Error; err != nil {
		return nil, err
	}

	payment.StripeProductID = productID
	payment.StripePriceID = priceID
	payment.StripeSessionID = &session.ID
	payment.Metadata = datatypes.JSON(metadata)

	return payment, nil
}

func (s *PaymentService) createCheckoutSession(ctx context.Context, payment *model.Payment, name, description, itemType string, itemID uint) (*stripe.CheckoutSession, string, string, error) {
	product, err := s.stripe.CreateProduct(ctx, name, description)
	if err != nil {
		return nil, "", "", fmt.Errorf("create product: %w", err)
	}

	price, err := s.stripe.CreatePrice(ctx, product.ID, payment.Amount, "rub")
	if err != nil {
		return nil, "", "", fmt.Errorf("create price: %w", err)
	}

	successURL := s.domain + "/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.domain + "/api/v1/payments/cancel"

	session, err := s.stripe.CreateCheckoutSession(ctx, price.ID, successURL, cancelURL, map[string]string{
		"payment_id": strconv.FormatUint(uint64(payment.ID), 10),
		"item_type":  itemType,
		"item_id":    strconv.FormatUint(uint64(itemID), 10),
		"user_id":    strconv.FormatUint(uint64(payment.UserID), 10),
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("create checkout session: %w", err)
	}

	return session, product.ID, price.ID, nil
}

// Confirm polls the remote session and, when it reports paid, transitions the
// payment from pending to succeeded recording the payment-intent id. Already
// settled payments are returned as-is; polling errors are swallowed and the
// last known status is reported.
func (s *PaymentService) Confirm(ctx context.Context, sessionID string) (*model.Payment, error) {
	var payment model.Payment
	if err := s.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status != model.PaymentStatusPending {
		return &payment, nil
	}

	session, err := s.stripe.RetrieveSession(ctx, sessionID)
	if err != nil {
		log.Printf("[PAYMENT] Failed to poll session %s: %v", sessionID, err)
		return &payment, nil
	}

	if session.PaymentStatus != stripe.PaymentStatusPaid {
		return &payment, nil
	}

	// Conditional update guards against a concurrent poll settling the row
	result := s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":                   model.PaymentStatusSucceeded,
			"stripe_payment_intent_id": session.PaymentIntent,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	payment.Status = model.PaymentStatusSucceeded
	payment.StripePaymentIntentID = session.PaymentIntent

	return &payment, nil
}
