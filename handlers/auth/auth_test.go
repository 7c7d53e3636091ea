package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	authutil "github.com/avdeevk/lms-api/utils/auth"
	"github.com/avdeevk/lms-api/utils/response"
)

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
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

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "lms-api-test",
	})
	h := NewAuthHandler(db, jwtManager)

	app := fiber.New()
	app.Post("/api/v1/auth/register", h.Register)
	app.Post("/api/v1/auth/login", h.Login)

	return app, mock
}

func jsonRequest(t *testing.T, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	app, _ := newTestApp(t)

	req := jsonRequest(t, "/api/v1/auth/register", RegisterRequest{
		Email:     "alice@example.com",
		Password:  "correct-horse",
		Password2: "battery-staple",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "Passwords do not match", body.Error.Fields["password"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(1, "alice@example.com"))

	req := jsonRequest(t, "/api/v1/auth/register", RegisterRequest{
		Email:     "alice@example.com",
		Password:  "correct-horse",
		Password2: "correct-horse",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterCreatesUser(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	req := jsonRequest(t, "/api/v1/auth/register", RegisterRequest{
		Email:     "alice@example.com",
		Password:  "correct-horse",
		Password2: "correct-horse",
		City:      "Moscow",
	})
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginIssuesTokenPair(t *testing.T) {
	app, mock := newTestApp(t)

	hash, err := authutil.HashPassword("correct-horse")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "token_version"}).
			AddRow(1, "alice@example.com", hash, true, 0))
	mock.ExpectExec(`UPDATE "users" SET "last_login"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := jsonRequest(t, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Data.AccessToken)
	assert.NotEmpty(t, body.Data.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, mock := newTestApp(t)

	hash, err := authutil.HashPassword("correct-horse")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "token_version"}).
			AddRow(1, "alice@example.com", hash, true, 0))

	req := jsonRequest(t, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "battery-staple",
	})
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsBlockedAccount(t *testing.T) {
	app, mock := newTestApp(t)

	hash, err := authutil.HashPassword("correct-horse")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "token_version"}).
			AddRow(1, "alice@example.com", hash, false, 0))

	req := jsonRequest(t, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
