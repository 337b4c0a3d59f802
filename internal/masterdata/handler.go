package masterdata

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

// Handler manages master data endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/warehouses", func(r chi.Router) {
		r.Get("/", h.listWarehouses)
		r.Post("/", h.createWarehouse)
		r.Get("/{id}", h.getWarehouse)
		r.Put("/{id}", h.updateWarehouse)
		r.Delete("/{id}", h.deleteWarehouse)
	})
	// Registered flat so the dealer ledger routes can live under the same
	// /dealers prefix from another handler.
	r.Get("/dealers", h.listDealers)
	r.Post("/dealers", h.createDealer)
	r.Get("/dealers/{id}", h.getDealer)
	r.Put("/dealers/{id}", h.updateDealer)
	r.Delete("/dealers/{id}", h.deleteDealer)
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
}

func listFilters(r *http.Request) ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return ListFilters{Page: page, Limit: limit, Search: r.URL.Query().Get("search")}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func listResponse[T any](items []T, p shared.Pagination) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{"data": items, "pagination": p}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f := listFilters(r)
	items, total, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(items, shared.NewPagination(f.Page, f.Limit, total)))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var form ProductForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form ProductForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	f := listFilters(r)
	items, total, err := h.service.ListWarehouses(r.Context(), f)
	if err != nil {
		h.logger.Error("list warehouses failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(items, shared.NewPagination(f.Page, f.Limit, total)))
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var form WarehouseForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	wh, err := h.service.CreateWarehouse(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wh)
}

func (h *Handler) getWarehouse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	wh, err := h.service.GetWarehouse(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wh)
}

func (h *Handler) updateWarehouse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form WarehouseForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	wh, err := h.service.UpdateWarehouse(r.Context(), id, form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wh)
}

func (h *Handler) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteWarehouse(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDealers(w http.ResponseWriter, r *http.Request) {
	f := listFilters(r)
	items, total, err := h.service.ListDealers(r.Context(), f)
	if err != nil {
		h.logger.Error("list dealers failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(items, shared.NewPagination(f.Page, f.Limit, total)))
}

func (h *Handler) createDealer(w http.ResponseWriter, r *http.Request) {
	var form DealerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.CreateDealer(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) getDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDealer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) updateDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form DealerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.UpdateDealer(r.Context(), id, form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deleteDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDealer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	f := listFilters(r)
	items, total, err := h.service.ListCustomers(r.Context(), f)
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(items, shared.NewPagination(f.Page, f.Limit, total)))
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var form CustomerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateCustomer(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form CustomerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateCustomer(r.Context(), id, form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
