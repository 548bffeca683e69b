package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"kleihaven/internal/shared/config"

	"github.com/sethvargo/go-retry"
)

// ErrGateway wraps failures of the payment provider itself. Terminal payment
// outcomes (failed, expired, canceled) are regular statuses, not errors.
var ErrGateway = errors.New("payment provider error")

// ErrPaymentNotFound means the provider does not know the payment id
var ErrPaymentNotFound = errors.New("payment not found")

// Gateway is the payment provider adapter: it opens hosted-checkout sessions
// and retrieves payment records by id
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)

	// UpdateRedirectURL rewrites where the customer lands after checkout.
	// Used to append the payment id once it is known.
	UpdateRedirectURL(ctx context.Context, paymentID, redirectURL string) error
}

// Client talks to a Mollie-style hosted checkout API. Transient transport and
// 5xx failures are retried with exponential backoff; 4xx responses and
// payment outcomes are never retried.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	maxRetries   uint64
	retryBackoff time.Duration
}

func NewClient(cfg config.PaymentConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxRetries:   uint64(cfg.MaxRetries),
		retryBackoff: cfg.RetryBackoff,
	}
}

// provider wire formats

type apiPayment struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Amount      Amount   `json:"amount"`
	Description string   `json:"description"`
	Metadata    Metadata `json:"metadata"`
	Links       struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type createPaymentBody struct {
	Amount      Amount   `json:"amount"`
	Description string   `json:"description"`
	RedirectURL string   `json:"redirectUrl"`
	WebhookURL  string   `json:"webhookUrl,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// CreateCheckout opens a hosted-checkout session with the provider
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	body, err := json.Marshal(createPaymentBody{
		Amount:      req.Amount,
		Description: req.Description,
		RedirectURL: req.RedirectURL,
		WebhookURL:  req.WebhookURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	var payment apiPayment
	if err := c.doWithRetry(ctx, http.MethodPost, "/v2/payments", body, &payment); err != nil {
		return nil, err
	}

	if payment.Links.Checkout.Href == "" {
		return nil, fmt.Errorf("%w: checkout session has no checkout URL", ErrGateway)
	}

	return &Checkout{
		PaymentID:   payment.ID,
		CheckoutURL: payment.Links.Checkout.Href,
	}, nil
}

// GetPayment retrieves the payment record by id
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: empty payment id", ErrPaymentNotFound)
	}

	var payment apiPayment
	if err := c.doWithRetry(ctx, http.MethodGet, "/v2/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}

	return &Payment{
		ID:          payment.ID,
		Status:      Status(payment.Status),
		Amount:      payment.Amount,
		Description: payment.Description,
		Metadata:    payment.Metadata,
		CheckoutURL: payment.Links.Checkout.Href,
	}, nil
}

// UpdateRedirectURL patches the payment's redirect URL
func (c *Client) UpdateRedirectURL(ctx context.Context, paymentID, redirectURL string) error {
	body, err := json.Marshal(map[string]string{"redirectUrl": redirectURL})
	if err != nil {
		return fmt.Errorf("failed to marshal redirect update: %w", err)
	}

	var payment apiPayment
	return c.doWithRetry(ctx, http.MethodPatch, "/v2/payments/"+paymentID, body, &payment)
}

// doWithRetry performs one provider call with bounded exponential backoff
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte, out interface{}) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build provider request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport-level failure, worth another attempt
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrGateway, err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: reading response: %v", ErrGateway, err))
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("%w: malformed response: %v", ErrGateway, err)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, providerMessage(respBody))

		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(fmt.Errorf("%w: provider returned %d: %s",
				ErrGateway, resp.StatusCode, providerMessage(respBody)))

		default:
			// 4xx: our request is wrong, retrying cannot help
			return fmt.Errorf("%w: provider returned %d: %s",
				ErrGateway, resp.StatusCode, providerMessage(respBody))
		}
	})
}

func providerMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
