package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/platform/httpx"
)

// Handler manages bill endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers bill routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input BillInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")
	bill, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("bill create rejected", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	bills, p, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("bill list failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": bills, "pagination": p})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	bill, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var input BillInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	bill, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Warn("bill update rejected", "error", err, "bill_id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("bill delete rejected", "error", err, "bill_id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
