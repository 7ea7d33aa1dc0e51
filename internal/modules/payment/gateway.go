package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway creates hosted checkout sessions with the payment provider.
type Gateway interface {
	CreatePaymentRequest(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error)
}

// GatewayRequest is the form body sent to POST /payment-requests.
type GatewayRequest struct {
	Amount          decimal.Decimal
	Currency        string
	ReferenceNumber string
	Name            string
	Email           string
	Phone           string
	Purpose         string
	RedirectURL     string
	WebhookURL      string
}

// GatewayResponse carries the fields of an accepted payment request.
type GatewayResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RejectedError is returned when the gateway answers with a non-success status.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request (HTTP %d): %s", e.StatusCode, e.Body)
}

// GatewayConfig configures the HitPay client.
type GatewayConfig struct {
	BaseURL string // e.g. https://api.sandbox.hit-pay.com/v1
	APIKey  string
	Timeout time.Duration
}

// ── HitPay Adapter ────────────────────────────────────────────────────────────
// HitPay API docs: https://docs.hitpayapp.com/apis/payment-request

type hitPayGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHitPayGateway(cfg GatewayConfig) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &hitPayGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *hitPayGateway) CreatePaymentRequest(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
	form := url.Values{}
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("reference_number", req.ReferenceNumber)
	form.Set("name", req.Name)
	form.Set("email", req.Email)
	form.Set("phone", req.Phone)
	form.Set("purpose", req.Purpose)
	form.Set("redirect_url", req.RedirectURL)
	form.Set("webhook", req.WebhookURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment-requests", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-BUSINESS-API-KEY", g.apiKey)
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out GatewayResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding gateway response: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return nil, fmt.Errorf("gateway response missing id or url")
	}
	return &out, nil
}

// redirectURL appends the reference number to the configured return page.
func redirectURL(base, ref string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?reference_number=" + url.QueryEscape(ref)
	}
	q := u.Query()
	q.Set("reference_number", ref)
	u.RawQuery = q.Encode()
	return u.String()
}
