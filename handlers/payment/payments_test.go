package payment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avdeevk/lms-api/model"
	"github.com/avdeevk/lms-api/services"
)

func newTestApp(t *testing.T, user *model.User) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	h := NewPaymentHandler(db, services.NewPaymentService(db, nil, "http://localhost:8080"))

	asUser := func(handler fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals("user_id", user.ID)
			c.Locals("user", user)
			return handler(c)
		}
	}

	app := fiber.New()
	app.Get("/api/v1/payments/success", asUser(h.PaymentSuccess))
	app.Get("/api/v1/payments/cancel", asUser(h.PaymentCancel))
	app.Get("/api/v1/payments/:id", asUser(h.GetPayment))
	app.Get("/api/v1/payments/:id/status", asUser(h.PaymentStatus))

	return app, mock
}

func paymentRow(userID uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "paid_course_id", "amount", "method", "status", "stripe_session_id"}).
		AddRow(11, userID, 3, 1500.0, model.PaymentMethodStripe, status, "cs_1")
}

func TestGetPaymentHiddenFromOtherUsers(t *testing.T) {
	app, mock := newTestApp(t, &model.User{ID: 2, IsActive: true})

	// Scoped by user, so another user's payment does not exist here
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/11", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentStatusForbiddenForOtherUsers(t *testing.T) {
	app, mock := newTestApp(t, &model.User{ID: 2, IsActive: true})

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(1, model.PaymentStatusPending))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/11/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPaymentStatusVisibleToStaff(t *testing.T) {
	app, mock := newTestApp(t, &model.User{ID: 5, IsActive: true, IsStaff: true})

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(1, model.PaymentStatusSucceeded))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/11/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data PaymentStatusResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, model.PaymentStatusSucceeded, body.Data.Status)
}

func TestPaymentSuccessRequiresSessionID(t *testing.T) {
	app, _ := newTestApp(t, &model.User{ID: 1, IsActive: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/success", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentSuccessForbiddenForMismatchedUser(t *testing.T) {
	app, mock := newTestApp(t, &model.User{ID: 2, IsActive: true})

	// Already settled, so Confirm returns without polling the provider
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(1, model.PaymentStatusSucceeded))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/success?session_id=cs_1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPaymentSuccessUnknownSession(t *testing.T) {
	app, mock := newTestApp(t, &model.User{ID: 1, IsActive: true})

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/success?session_id=cs_missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentCancel(t *testing.T) {
	app, _ := newTestApp(t, &model.User{ID: 1, IsActive: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/payments/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
