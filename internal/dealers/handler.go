package dealers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/platform/httpx"
	"github.com/godown-app/godown/internal/shared"
)

// Handler manages dealer ledger and payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers ledger routes. Paths are registered flat next to the
// dealer CRUD routes owned by master data.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dealers/{id}/ledger", h.ledger)
	r.Get("/dealers/{id}/payments", h.listPayments)
	r.Post("/dealers/{id}/payments", h.recordPayment)
	r.Get("/dealers/payments/{paymentID}", h.getPayment)
	r.Delete("/dealers/payments/{paymentID}", h.deletePayment)
}

// period resolves ?month=YYYY-MM or explicit ?from=&to= RFC3339 bounds,
// defaulting to the current month.
func period(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return from, to, nil
	}
	mr, err := shared.ParseMonthRange(q.Get("month"), time.Now())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return mr.Start, mr.End, nil
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := h.dealerID(w, r)
	if !ok {
		return
	}
	from, to, err := period(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Period", err.Error())
		return
	}
	ledger, err := h.service.BuildLedger(r.Context(), dealerID, from, to)
	if err != nil {
		h.logger.Error("dealer ledger failed", "error", err, "dealer_id", dealerID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := h.dealerID(w, r)
	if !ok {
		return
	}
	from, to, err := period(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Period", err.Error())
		return
	}
	payments, err := h.service.ListPayments(r.Context(), dealerID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if payments == nil {
		payments = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": payments})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := h.dealerID(w, r)
	if !ok {
		return
	}
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.RecordPayment(r.Context(), dealerID, input)
	if err != nil {
		h.logger.Warn("dealer payment rejected", "error", err, "dealer_id", dealerID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "paymentID must be a UUID")
		return
	}
	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "paymentID must be a UUID")
		return
	}
	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dealerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
