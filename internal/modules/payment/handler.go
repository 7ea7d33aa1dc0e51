package payment

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/httpx"
)

const maxWebhookBytes = 64 << 10

// Handler exposes payment HTTP endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	adminOnly func(http.Handler) http.Handler
}

// NewHandler builds the payment handler. adminOnly wraps the status override;
// pass nil to leave it open.
func NewHandler(service Service, logger *slog.Logger, adminOnly func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, adminOnly: adminOnly}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/create", h.create)
		// Called by HitPay, not a logged-in user: protected only by the HMAC.
		r.Post("/hitpay/webhook", h.webhook)
		r.Get("/status/{reference_number}", h.status)
		r.Group(func(r chi.Router) {
			if h.adminOnly != nil {
				r.Use(h.adminOnly)
			}
			r.Post("/update-status/{reference_number}", h.updateStatus)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	resp, err := h.service.CreatePayment(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, resp)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httpx.Error(w, r, h.logger, apperr.ValidationErr("invalid body"))
		return
	}
	n, err := ParseNotification(r.Header.Get("Content-Type"), body)
	if err != nil {
		httpx.Error(w, r, h.logger, apperr.ValidationErr("invalid payload"))
		return
	}
	if _, err := h.service.HandleWebhook(r.Context(), n); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "reference_number"))
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, resp)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	rec, err := h.service.OverrideStatus(r.Context(), chi.URLParam(r, "reference_number"), req.Status)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, UpdateStatusResponse{
		Message:         "Payment status updated to " + string(rec.Status),
		ReferenceNumber: rec.ReferenceNumber,
		Status:          rec.Status,
	})
}
