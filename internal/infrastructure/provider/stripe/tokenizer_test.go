package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/card"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
)

func tokenizeRequest() *provider.TokenizeRequest {
	return &provider.TokenizeRequest{
		Card: card.Input{
			Number:      "4111 1111 1111 1111",
			HolderName:  "Ana Souza",
			ExpiryMonth: "03",
			ExpiryYear:  "30",
			CVV:         "123",
		},
		PlanID:        "profissional",
		BillingPeriod: model.BillingPeriodMonthly,
	}
}

func TestTokenizer_CreatesPaymentMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_methods", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "card", r.PostForm.Get("type"))
		assert.Equal(t, "4111111111111111", r.PostForm.Get("card[number]"))
		assert.Equal(t, "2030", r.PostForm.Get("card[exp_year]"))
		assert.Equal(t, "profissional", r.PostForm.Get("metadata[plan_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pm_123","object":"payment_method","type":"card","card":{"brand":"visa","last4":"1111"}}`))
	}))
	defer server.Close()

	tokenizer := NewTokenizer("sk_test_123", server.URL, server.Client(), zap.NewNop())
	resp, err := tokenizer.Tokenize(context.Background(), tokenizeRequest())
	require.NoError(t, err)

	assert.Equal(t, "pm_123", resp.PaymentMethodID)
	assert.Equal(t, "visa", resp.Brand)
	assert.Equal(t, "1111", resp.Last4)
	assert.Equal(t, "stripe", tokenizer.GetProviderName())
}

func TestTokenizer_CardDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	tokenizer := NewTokenizer("sk_test_123", server.URL, server.Client(), zap.NewNop())
	_, err := tokenizer.Tokenize(context.Background(), tokenizeRequest())

	var providerErr *provider.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "card_declined", providerErr.Code)
	assert.Equal(t, "Your card was declined.", providerErr.Message)
}

func TestTokenizer_InvalidExpiry(t *testing.T) {
	tokenizer := NewTokenizer("sk_test_123", "http://127.0.0.1:0", http.DefaultClient, zap.NewNop())
	req := tokenizeRequest()
	req.Card.ExpiryMonth = "xx"

	_, err := tokenizer.Tokenize(context.Background(), req)

	var providerErr *provider.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "INVALID_EXPIRY", providerErr.Code)
}
