package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/stock"
)

// StockPort exposes the ledger operations the engine needs. Deltas are
// applied all-or-nothing on the other side.
type StockPort interface {
	ApplyDeltas(ctx context.Context, deltas []stock.Delta) error
}

// CustomerPort persists per-customer price overrides.
type CustomerPort interface {
	SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error
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

// Service orchestrates bill creation, edits and deletion against the stock
// ledger. Validation always runs before any stock mutation; a failed persist
// after a successful delta set is compensated by applying the negated set.
type Service struct {
	repo      RepositoryPort
	stock     StockPort
	customers CustomerPort
	audit     AuditPort
	idem      IdempotencyPort
}

// NewService constructs billing service. Customers, audit and idem may be nil.
func NewService(repo RepositoryPort, stockPort StockPort, customers CustomerPort, audit AuditPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, stock: stockPort, customers: customers, audit: audit, idem: idem}
}

// Create computes the bill, deducts stock for every line atomically, then
// persists the document.
func (s *Service) Create(ctx context.Context, input BillInput) (Bill, error) {
	lines, totals, err := ComputeBill(input.Lines, input.Payment)
	if err != nil {
		return Bill{}, err
	}

	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "billing"); err != nil {
			return Bill{}, err
		}
	}

	deltas := effectDeltas(lines)
	if err := s.stock.ApplyDeltas(ctx, deltas); err != nil {
		s.releaseKey(ctx, input.IdempotencyKey)
		return Bill{}, err
	}

	bill := assembleBill(input, lines, totals)
	created, err := s.repo.Insert(ctx, bill)
	if err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(deltas))
		s.releaseKey(ctx, input.IdempotencyKey)
		return Bill{}, err
	}

	s.persistPriceOverrides(ctx, created)
	s.auditRecord(ctx, "bill:create", created.ID, map[string]any{"grand_total": created.GrandTotal})
	return created, nil
}

// Get reads one bill.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	return s.repo.Get(ctx, id)
}

// List returns bills newest first plus pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Bill, shared.Pagination, error) {
	bills, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return bills, shared.NewPagination(page, perPage, total), nil
}

// Update replaces the bill's lines wholesale. The old stock effect is
// reverted and the new one applied as a single net delta set keyed by each
// original line's (product, warehouse).
func (s *Service) Update(ctx context.Context, id uuid.UUID, input BillInput) (Bill, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return Bill{}, err
	}

	lines, totals, err := ComputeBill(input.Lines, input.Payment)
	if err != nil {
		return Bill{}, err
	}

	diff := stock.DiffDeltas(effectDeltas(old.Lines), effectDeltas(lines))
	if err := s.stock.ApplyDeltas(ctx, diff); err != nil {
		return Bill{}, err
	}

	bill := assembleBill(input, lines, totals)
	bill.ID = old.ID
	bill.CreatedAt = old.CreatedAt
	if err := s.repo.Update(ctx, bill); err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(diff))
		return Bill{}, err
	}

	s.persistPriceOverrides(ctx, bill)
	s.auditRecord(ctx, "bill:update", bill.ID, map[string]any{"grand_total": bill.GrandTotal})
	return s.repo.Get(ctx, id)
}

// Delete reverts the bill's stock effect, restoring the sold pieces, then
// removes the document.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	bill, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	revert := negate(effectDeltas(bill.Lines))
	if err := s.stock.ApplyDeltas(ctx, revert); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		_ = s.stock.ApplyDeltas(ctx, negate(revert))
		return err
	}

	s.auditRecord(ctx, "bill:delete", id, nil)
	return nil
}

// effectDeltas is the bill's effect on the ledger: a sale subtracts pieces.
func effectDeltas(lines []Line) []stock.Delta {
	deltas := make([]stock.Delta, 0, len(lines))
	for _, line := range lines {
		deltas = append(deltas, stock.Delta{
			ProductID:    line.ProductID,
			WarehouseID:  line.WarehouseID,
			Pieces:       -line.TotalPieces,
			PiecesPerBox: line.PiecesPerBox,
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

func assembleBill(input BillInput, lines []Line, totals Totals) Bill {
	billDate := input.BillDate
	if billDate.IsZero() {
		billDate = time.Now().UTC()
	}
	return Bill{
		CustomerID:      input.CustomerID,
		BillDate:        billDate,
		Lines:           lines,
		Payment:         input.Payment,
		TotalItems:      totals.TotalItems,
		TotalBeforeTax:  totals.TotalBeforeTax,
		TotalTax:        totals.TotalTax,
		GrandTotal:      totals.GrandTotal,
		AmountCollected: totals.AmountCollected,
		BalanceAmount:   totals.BalanceAmount,
	}
}

func (s *Service) persistPriceOverrides(ctx context.Context, bill Bill) {
	if s.customers == nil || bill.CustomerID == nil {
		return
	}
	for _, line := range bill.Lines {
		if !line.OverridePriceForCustomer {
			continue
		}
		if err := s.customers.SetCustomerPrice(ctx, *bill.CustomerID, line.ProductID, line.SellingPrice); err != nil {
			s.auditRecord(ctx, "bill:price_override_failed", bill.ID, map[string]any{
				"product_id": line.ProductID,
				"error":      err.Error(),
			})
		}
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
		Entity:   "bill",
		EntityID: id.String(),
		Meta:     meta,
	})
}
