package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/hitpay-reviews/internal/httpx"
	"github.com/georgemunganga/hitpay-reviews/internal/validation"
)

// Handler exposes the login endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, resp)
}
