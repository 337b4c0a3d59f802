package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/stock"
)

// StockPort exposes the ledger operations the engine needs.
type StockPort interface {
	ApplyDeltas(ctx context.Context, deltas []stock.Delta) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards document posting against duplicate submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service orchestrates purchase orders against the stock ledger. A purchase
// stocks pieces in; the first receipt of a product in a warehouse creates the
// stock row.
type Service struct {
	repo  RepositoryPort
	stock StockPort
	audit AuditPort
	idem  IdempotencyPort
}

// NewService constructs purchase service. Audit and idem may be nil.
func NewService(repo RepositoryPort, stockPort StockPort, audit AuditPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, stock: stockPort, audit: audit, idem: idem}
}

// Create computes the order, stocks every line in atomically, then persists
// the document.
func (s *Service) Create(ctx context.Context, input OrderInput) (Order, error) {
	lines, totals, err := ComputeOrder(input.Lines)
	if err != nil {
		return Order{}, err
	}

	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "purchase"); err != nil {
			return Order{}, err
		}
	}

	deltas := effectDeltas(lines)
	if err := s.stock.ApplyDeltas(ctx, deltas); err != nil {
		s.releaseKey(ctx, input.IdempotencyKey)
		return Order{}, err
	}

	order := assembleOrder(input, lines, totals)
	created, err := s.repo.Insert(ctx, order)
	if err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(deltas))
		s.releaseKey(ctx, input.IdempotencyKey)
		return Order{}, err
	}

	s.auditRecord(ctx, "purchase:create", created.ID, map[string]any{"grand_total": created.GrandTotal})
	return created, nil
}

// Get reads one purchase order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders newest first plus pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Order, shared.Pagination, error) {
	orders, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(page, perPage, total), nil
}

// ListForDealer returns a dealer's orders within the period, oldest first.
func (s *Service) ListForDealer(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Order, error) {
	return s.repo.ListByDealerPeriod(ctx, dealerID, from, to)
}

// Update replaces the order's lines wholesale. The old stock effect is
// reverted against each old line's warehouse and the new effect applied, as
// one net delta set. If reverting would drive a row negative because the
// stock was already sold, the edit fails and no row changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input OrderInput) (Order, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	lines, totals, err := ComputeOrder(input.Lines)
	if err != nil {
		return Order{}, err
	}

	diff := stock.DiffDeltas(effectDeltas(old.Lines), effectDeltas(lines))
	if err := s.stock.ApplyDeltas(ctx, diff); err != nil {
		return Order{}, err
	}

	order := assembleOrder(input, lines, totals)
	order.ID = old.ID
	order.CreatedAt = old.CreatedAt
	if err := s.repo.Update(ctx, order); err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(diff))
		return Order{}, err
	}

	s.auditRecord(ctx, "purchase:update", order.ID, map[string]any{"grand_total": order.GrandTotal})
	return s.repo.Get(ctx, id)
}

// Delete reverts the order's stock effect, subtracting the received pieces,
// then removes the document. Fails with ErrInsufficientStock when the pieces
// were already sold on.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	revert := negate(effectDeltas(order.Lines))
	if err := s.stock.ApplyDeltas(ctx, revert); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(revert))
		return err
	}

	s.auditRecord(ctx, "purchase:delete", id, nil)
	return nil
}

// effectDeltas is the order's effect on the ledger: a purchase adds pieces,
// creating the stock row on first receipt.
func effectDeltas(lines []Line) []stock.Delta {
	deltas := make([]stock.Delta, 0, len(lines))
	for _, line := range lines {
		deltas = append(deltas, stock.Delta{
			ProductID:       line.ProductID,
			WarehouseID:     line.WarehouseID,
			Pieces:          line.TotalQty,
			PiecesPerBox:    line.PiecesPerBox,
			CreateIfMissing: true,
		})
	}
	return deltas
}

func negate(deltas []stock.Delta) []stock.Delta {
	out := make([]stock.Delta, len(deltas))
	for i, d := range deltas {
		d.Pieces = -d.Pieces
		out[i] = d
	}
	return out
}

func assembleOrder(input OrderInput, lines []Line, totals Totals) Order {
	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now().UTC()
	}
	return Order{
		DealerID:      input.DealerID,
		InvoiceNumber: input.InvoiceNumber,
		PurchaseDate:  purchaseDate,
		Lines:         lines,
		SubTotal:      totals.SubTotal,
		TaxTotal:      totals.TaxTotal,
		GrandTotal:    totals.GrandTotal,
	}
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if s.idem == nil || key == "" {
		return
	}
	_ = s.idem.Delete(ctx, key)
}

func (s *Service) auditRecord(ctx context.Context, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "purchase",
		EntityID: id.String(),
		Meta:     meta,
	})
}
