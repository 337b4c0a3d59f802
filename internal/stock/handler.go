package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/platform/httpx"
	"github.com/godown-app/godown/internal/shared"
)

// Handler manages stock endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{productID}/{warehouseID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.setLevels)
			r.Delete("/", h.delete)
			r.Post("/delta", h.applyDelta)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("stock create failed", "error", err, "product_id", input.ProductID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewView(rec))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "product_id must be a UUID")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "warehouse_id must be a UUID")
			return
		}
		filter.WarehouseID = &id
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	records, p, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		h.logger.Error("stock list failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	views := make([]View, 0, len(records))
	for _, rec := range records {
		views = append(views, NewView(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       views,
		"pagination": p,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	productID, warehouseID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), productID, warehouseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(rec))
}

func (h *Handler) setLevels(w http.ResponseWriter, r *http.Request) {
	productID, warehouseID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	var input SetLevelsInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.SetLevels(r.Context(), productID, warehouseID, input)
	if err != nil {
		h.logger.Warn("stock update failed", "error", err, "product_id", productID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(rec))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	productID, warehouseID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), productID, warehouseID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deltaRequest carries either a pre-computed piece count or a boxes/loose
// pair that is converted using pieces_per_box.
type deltaRequest struct {
	Pieces       int64 `json:"pieces"`
	Boxes        int64 `json:"boxes"`
	LooseItems   int64 `json:"loose_items"`
	PiecesPerBox int64 `json:"pieces_per_box" validate:"omitempty,gte=1"`
	Create       bool  `json:"create_if_missing"`
}

func (req deltaRequest) pieces() (int64, error) {
	if req.Pieces != 0 {
		return req.Pieces, nil
	}
	if req.Boxes == 0 && req.LooseItems == 0 {
		return 0, shared.ErrValidation
	}
	if req.PiecesPerBox < 1 {
		return 0, shared.ErrInvalidUnit
	}
	return req.Boxes*req.PiecesPerBox + req.LooseItems, nil
}

func (h *Handler) applyDelta(w http.ResponseWriter, r *http.Request) {
	productID, warehouseID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	var req deltaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	pieces, err := req.pieces()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Create && req.PiecesPerBox < 1 {
		httpx.RespondError(w, shared.ErrInvalidUnit)
		return
	}
	rec, err := h.service.ApplyDelta(r.Context(), Delta{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Pieces:          pieces,
		PiecesPerBox:    req.PiecesPerBox,
		CreateIfMissing: req.Create,
	})
	if err != nil {
		h.logger.Warn("stock delta rejected", "error", err, "product_id", productID, "pieces", pieces)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(rec))
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "productID must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	warehouseID, err := uuid.Parse(chi.URLParam(r, "warehouseID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "warehouseID must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return productID, warehouseID, true
}
