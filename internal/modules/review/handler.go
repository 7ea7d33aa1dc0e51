package review

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
	"github.com/georgemunganga/hitpay-reviews/internal/httpx"
)

// Handler exposes review HTTP endpoints.
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
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.patch)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.Error(w, r, h.logger, apperr.NotFoundErr("Invalid page"))
			return
		}
		page = n
	}
	p, err := h.service.List(r.Context(), page)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	rv, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, rv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, rv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	rv, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, rv)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	rv, err := h.service.Patch(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.Respond(w, http.StatusOK, rv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
