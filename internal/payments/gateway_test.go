package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kleihaven/internal/shared/config"

	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PaymentConfig{
		APIKey:       "test_key",
		BaseURL:      baseURL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		Timeout:      time.Second,
	})
}

func paymentResponse(id, status, checkoutURL string) map[string]interface{} {
	resp := map[string]interface{}{
		"id":     id,
		"status": status,
		"amount": map[string]string{"currency": "EUR", "value": "95.00"},
		"metadata": map[string]interface{}{
			"courseId":      "c1",
			"periodId":      "p1",
			"email":         "anna@example.nl",
			"name":          "Anna",
			"numberOfSpots": 1,
		},
	}
	if checkoutURL != "" {
		resp["_links"] = map[string]interface{}{
			"checkout": map[string]string{"href": checkoutURL},
		}
	}
	return resp
}

func TestCreateCheckout(t *testing.T) {
	var gotAuth string
	var gotBody createPaymentBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(paymentResponse("tr_123", "open", "https://pay.test/tr_123"))
	}))
	defer srv.Close()

	checkout, err := newTestClient(srv.URL).CreateCheckout(context.Background(), CheckoutRequest{
		Amount:      Amount{Currency: "EUR", Value: "95.00"},
		Description: "Boeking voor Draaien voor beginners (1 plekken)",
		RedirectURL: "https://studio.test/bevestiging",
		Metadata:    Metadata{Email: "anna@example.nl", NumberOfSpots: 1},
	})
	require.NoError(t, err)
	require.Equal(t, "tr_123", checkout.PaymentID)
	require.Equal(t, "https://pay.test/tr_123", checkout.CheckoutURL)

	require.Equal(t, "Bearer test_key", gotAuth)
	require.Equal(t, "95.00", gotBody.Amount.Value)
	require.Equal(t, 1, gotBody.Metadata.NumberOfSpots)
}

func TestCreateCheckoutWithoutCheckoutURLFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(paymentResponse("tr_123", "open", ""))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateCheckout(context.Background(), CheckoutRequest{})
	require.ErrorIs(t, err, ErrGateway)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/payments/tr_123", r.URL.Path)
		json.NewEncoder(w).Encode(paymentResponse("tr_123", "paid", ""))
	}))
	defer srv.Close()

	payment, err := newTestClient(srv.URL).GetPayment(context.Background(), "tr_123")
	require.NoError(t, err)
	require.Equal(t, StatusPaid, payment.Status)
	require.True(t, payment.Status.IsPaid())
	require.Equal(t, "anna@example.nl", payment.Metadata.Email)
}

func TestGetPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 404, "title": "Not Found", "detail": "No payment exists with token tr_nope.",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPayment(context.Background(), "tr_nope")
	require.ErrorIs(t, err, ErrPaymentNotFound)
	require.ErrorContains(t, err, "No payment exists")
}

func TestGetPaymentEmptyID(t *testing.T) {
	_, err := newTestClient("http://unused.test").GetPayment(context.Background(), "")
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestRetriesTransientServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(paymentResponse("tr_123", "open", ""))
	}))
	defer srv.Close()

	payment, err := newTestClient(srv.URL).GetPayment(context.Background(), "tr_123")
	require.NoError(t, err)
	require.Equal(t, StatusOpen, payment.Status)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 422, "title": "Unprocessable Entity", "detail": "The amount is invalid.",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateCheckout(context.Background(), CheckoutRequest{})
	require.ErrorIs(t, err, ErrGateway)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPayment(context.Background(), "tr_123")
	require.ErrorIs(t, err, ErrGateway)
	// initial attempt + MaxRetries
	require.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestUpdateRedirectURL(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v2/payments/tr_123", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(paymentResponse("tr_123", "open", ""))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UpdateRedirectURL(context.Background(),
		"tr_123", "https://studio.test/bevestiging?id=tr_123")
	require.NoError(t, err)
	require.Equal(t, "https://studio.test/bevestiging?id=tr_123", gotBody["redirectUrl"])
}

func TestStatusTerminality(t *testing.T) {
	require.False(t, StatusOpen.IsTerminal())
	require.False(t, StatusPending.IsTerminal())
	require.True(t, StatusPaid.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
	require.True(t, StatusCanceled.IsTerminal())
	require.True(t, StatusExpired.IsTerminal())
	require.False(t, StatusOpen.IsPaid())
	require.True(t, StatusPaid.IsPaid())
}
