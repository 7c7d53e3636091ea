package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{
		SecretKey: "sk_test_123",
		BaseURL:   srv.URL,
	})
	return client, srv
}

func TestCreateProduct(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/products", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Go Basics", r.PostForm.Get("name"))
		assert.Equal(t, "Intro course", r.PostForm.Get("description"))

		w.Write([]byte(`{"id": "prod_1", "name": "Go Basics", "description": "Intro course"}`))
	})
	defer srv.Close()

	product, err := client.CreateProduct(context.Background(), "Go Basics", "Intro course")
	require.NoError(t, err)
	assert.Equal(t, "prod_1", product.ID)
}

func TestCreatePriceConvertsToMinorUnits(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "prod_1", r.PostForm.Get("product"))
		assert.Equal(t, "149950", r.PostForm.Get("unit_amount"))
		assert.Equal(t, "rub", r.PostForm.Get("currency"))

		w.Write([]byte(`{"id": "price_1", "product": "prod_1", "unit_amount": 149950, "currency": "rub"}`))
	})
	defer srv.Close()

	price, err := client.CreatePrice(context.Background(), "prod_1", 1499.50, "rub")
	require.NoError(t, err)
	assert.Equal(t, "price_1", price.ID)
	assert.Equal(t, int64(149950), price.UnitAmount)
}

func TestCreateCheckoutSession(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "price_1", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[payment_id]"))

		w.Write([]byte(`{"id": "cs_1", "url": "https://checkout.stripe.com/c/pay/cs_1", "payment_status": "unpaid"}`))
	})
	defer srv.Close()

	session, err := client.CreateCheckoutSession(context.Background(), "price_1",
		"https://lms.example/success", "https://lms.example/cancel",
		map[string]string{"payment_id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.NotEmpty(t, session.URL)
}

func TestRetrieveSession(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)

		w.Write([]byte(`{"id": "cs_1", "payment_status": "paid", "payment_intent": "pi_9"}`))
	})
	defer srv.Close()

	session, err := client.RetrieveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, session.PaymentStatus)
	assert.Equal(t, "pi_9", session.PaymentIntent)
}

func TestAPIErrorDecoding(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "message": "Your card was declined."}}`))
	})
	defer srv.Close()

	_, err := client.RetrieveSession(context.Background(), "cs_bad")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "card_error", apiErr.Type)
	assert.Contains(t, apiErr.Message, "declined")
}
