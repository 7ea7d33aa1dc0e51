package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/validation"
)

const maxReferenceAttempts = 3

// Config is the payment settings the service needs at construction time.
type Config struct {
	DefaultCurrency string
	RedirectURL     string // return page; reference_number is appended as a query param
	WebhookURL      string
	Salt            string // shared HMAC secret for webhook signatures
}

// Service defines payment business logic.
type Service interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	HandleWebhook(ctx context.Context, n *Notification) (*PaymentRecord, error)
	GetStatus(ctx context.Context, ref string) (*StatusResponse, error)
	OverrideStatus(ctx context.Context, ref string, status string) (*PaymentRecord, error)
	CancelStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo     Repository
	gateway  Gateway
	verifier *Verifier
	cfg      Config
	logger   *slog.Logger

	now          func() time.Time
	newReference func() string
}

func NewService(repo Repository, gateway Gateway, cfg Config, logger *slog.Logger) Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "SGD"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:         repo,
		gateway:      gateway,
		verifier:     NewVerifier(cfg.Salt),
		cfg:          cfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newReference: uuid.NewString,
	}
}

// ── Initiator ─────────────────────────────────────────────────────────────────

func (s *service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if req.Amount == nil {
		return nil, apperr.ValidationErr("amount is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.ValidationErr("amount must be greater than 0")
	}
	// whole cents only
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, apperr.ValidationErr("amount must have at most 2 decimal places")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	rec, err := s.createRecord(ctx, req, currency)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("creating payment record: %w", err))
	}

	resp, err := s.gateway.CreatePaymentRequest(ctx, &GatewayRequest{
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		ReferenceNumber: rec.ReferenceNumber,
		Name:            rec.Name,
		Email:           rec.Email,
		Phone:           rec.Phone,
		Purpose:         rec.Purpose,
		RedirectURL:     redirectURL(s.cfg.RedirectURL, rec.ReferenceNumber),
		WebhookURL:      s.cfg.WebhookURL,
	})
	if err != nil {
		s.discard(ctx, rec.ReferenceNumber)
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			s.logger.WarnContext(ctx, "gateway rejected payment request",
				"reference_number", rec.ReferenceNumber, "status_code", rejected.StatusCode, "body", rejected.Body)
			msg := rejected.Body
			if msg == "" {
				msg = fmt.Sprintf("payment gateway rejected the request (HTTP %d)", rejected.StatusCode)
			}
			return nil, apperr.GatewayErr(msg)
		}
		return nil, apperr.Wrap(fmt.Errorf("gateway create payment request: %w", err))
	}

	ref := rec.ReferenceNumber
	rec, err = s.repo.UpdateByReference(ctx, ref, func(p *PaymentRecord) (bool, error) {
		p.PaymentRequestID = resp.ID
		p.CheckoutURL = resp.URL
		return true, nil
	})
	if err != nil {
		s.discard(ctx, ref)
		return nil, apperr.Wrap(fmt.Errorf("attaching payment request %s: %w", resp.ID, err))
	}

	s.logger.InfoContext(ctx, "payment request created",
		"reference_number", rec.ReferenceNumber, "payment_request_id", rec.PaymentRequestID,
		"amount", rec.Amount.StringFixed(2), "currency", rec.Currency)

	return &CreatePaymentResponse{
		CheckoutURL:      rec.CheckoutURL,
		PaymentRequestID: rec.PaymentRequestID,
		ReferenceNumber:  rec.ReferenceNumber,
		Status:           rec.Status,
	}, nil
}

func (s *service) createRecord(ctx context.Context, req CreatePaymentRequest, currency string) (*PaymentRecord, error) {
	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		rec := &PaymentRecord{
			ID:              uuid.New(),
			ReferenceNumber: s.newReference(),
			Amount:          *req.Amount,
			Currency:        currency,
			Name:            req.Name,
			Email:           req.Email,
			Phone:           strings.TrimSpace(req.Phone),
			Purpose:         strings.TrimSpace(req.Purpose),
			Status:          StatusPending,
		}
		err = s.repo.Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrDuplicateReference) {
			return nil, err
		}
	}
	return nil, err
}

// discard is the compensating delete for a record that never got a checkout
// route. It runs even if the caller has gone away.
func (s *service) discard(ctx context.Context, ref string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.Delete(ctx, ref); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to delete orphaned payment record", "reference_number", ref, "err", err)
	}
}

// ── Webhook ───────────────────────────────────────────────────────────────────

func (s *service) HandleWebhook(ctx context.Context, n *Notification) (*PaymentRecord, error) {
	if n == nil || n.Signature == "" {
		return nil, apperr.ValidationErr("missing HMAC signature")
	}
	if !s.verifier.Verify(n.Fields, n.Signature) {
		s.logger.WarnContext(ctx, "webhook signature mismatch", "payment_request_id", n.Get("payment_request_id"))
		return nil, apperr.AuthenticationErr("HMAC verification failed")
	}

	requestID := n.Get("payment_request_id")
	if requestID == "" {
		return nil, apperr.ValidationErr("payment_request_id is required")
	}
	gwStatus := n.Get("status")

	var out outcome
	rec, err := s.repo.UpdateByRequestID(ctx, requestID, func(p *PaymentRecord) (bool, error) {
		out = applyNotification(p, gwStatus, n.Get("payment_id"), s.now())
		return out == outcomeApplied, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFoundErr("Payment not found")
	}
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("applying webhook for %s: %w", requestID, err))
	}

	s.logger.InfoContext(ctx, "webhook "+out.String(),
		"reference_number", rec.ReferenceNumber, "payment_request_id", requestID,
		"gateway_status", gwStatus, "status", rec.Status)
	return rec, nil
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeDuplicate
	outcomeIgnored
)

func (o outcome) String() string {
	switch o {
	case outcomeApplied:
		return "applied"
	case outcomeDuplicate:
		return "deduplicated"
	default:
		return "ignored"
	}
}

// applyNotification folds one verified notification into p.
//
// completed and failed move the status and mirror the gateway ids. Any other
// gateway status only mirrors gateway_status. A completed record never moves
// again, and a cancelled one only accepts completed.
func applyNotification(p *PaymentRecord, gwStatus, gwPaymentID string, now time.Time) outcome {
	target := gatewayTarget(gwStatus)

	if target == "" {
		if p.Status == StatusCompleted || p.Status == StatusCancelled {
			return outcomeIgnored
		}
		if p.GatewayStatus == gwStatus {
			return outcomeDuplicate
		}
		p.GatewayStatus = gwStatus
		return outcomeApplied
	}

	if p.Status == target {
		return outcomeDuplicate
	}
	if !webhookMayMove(p.Status, target) {
		return outcomeIgnored
	}
	p.setStatus(target, now)
	p.GatewayPaymentID = gwPaymentID
	p.GatewayStatus = gwStatus
	return outcomeApplied
}

func gatewayTarget(gwStatus string) Status {
	switch strings.ToLower(strings.TrimSpace(gwStatus)) {
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	}
	return ""
}

func webhookMayMove(from, to Status) bool {
	switch from {
	case StatusPending:
		return true
	case StatusFailed, StatusCancelled:
		// a later attempt on the same request can still succeed
		return to == StatusCompleted
	}
	return false
}

// ── Status Query & Override ───────────────────────────────────────────────────

func (s *service) GetStatus(ctx context.Context, ref string) (*StatusResponse, error) {
	rec, err := s.repo.GetByReference(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFoundErr("Payment not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return newStatusResponse(rec), nil
}

// OverrideStatus sets the status unconditionally, bypassing the gateway.
// Reverting a terminal status is allowed and logged.
func (s *service) OverrideStatus(ctx context.Context, ref string, status string) (*PaymentRecord, error) {
	target := Status(strings.ToLower(strings.TrimSpace(status)))
	switch target {
	case StatusCompleted, StatusFailed, StatusPending:
	default:
		return nil, apperr.ValidationErr("Invalid status. Must be one of: completed, failed, pending")
	}

	var previous Status
	rec, err := s.repo.UpdateByReference(ctx, ref, func(p *PaymentRecord) (bool, error) {
		previous = p.Status
		if p.Status == target {
			return false, nil
		}
		p.setStatus(target, s.now())
		return true, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFoundErr("Payment not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	if previous.Terminal() && previous != target {
		s.logger.WarnContext(ctx, "terminal payment status overridden",
			"reference_number", ref, "from", previous, "to", target)
	} else {
		s.logger.InfoContext(ctx, "payment status overridden",
			"reference_number", ref, "from", previous, "to", target)
	}
	return rec, nil
}

// ── Orphan Sweep ──────────────────────────────────────────────────────────────

func (s *service) CancelStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, apperr.ValidationErr("older-than must be positive")
	}
	cutoff := s.now().Add(-olderThan)
	n, err := s.repo.CancelStale(ctx, cutoff)
	if err != nil {
		return 0, apperr.Wrap(fmt.Errorf("cancelling stale payments: %w", err))
	}
	s.logger.InfoContext(ctx, "stale pending payments cancelled", "count", n, "cutoff", cutoff)
	return n, nil
}
