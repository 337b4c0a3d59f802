package dealers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/purchase"
	"github.com/godown-app/godown/internal/shared"
)

// PurchasePort supplies the dealer's purchase orders for a period.
type PurchasePort interface {
	ListForDealer(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]purchase.Order, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains dealer payments and builds the read-side ledger. It never
// mutates stock.
type Service struct {
	repo      RepositoryPort
	purchases PurchasePort
	audit     AuditPort
}

// NewService constructs dealers service. Audit may be nil.
func NewService(repo RepositoryPort, purchases PurchasePort, audit AuditPort) *Service {
	return &Service{repo: repo, purchases: purchases, audit: audit}
}

// RecordPayment stores a payment made to a dealer.
func (s *Service) RecordPayment(ctx context.Context, dealerID uuid.UUID, input PaymentInput) (Payment, error) {
	if !input.Amount.IsPositive() {
		return Payment{}, fmt.Errorf("%w: payment amount must be positive", shared.ErrValidation)
	}
	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}
	p, err := s.repo.InsertPayment(ctx, Payment{
		DealerID:    dealerID,
		Amount:      input.Amount,
		Mode:        input.Mode,
		PaymentDate: paymentDate,
		Note:        input.Note,
	})
	if err != nil {
		return Payment{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "dealer:payment",
			Entity:   "dealer_payment",
			EntityID: p.ID.String(),
			Meta:     map[string]any{"dealer_id": dealerID, "amount": p.Amount},
		})
	}
	return p, nil
}

// GetPayment reads one payment.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns a dealer's payments within the period.
func (s *Service) ListPayments(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Payment, error) {
	return s.repo.ListPayments(ctx, dealerID, from, to)
}

// DeletePayment removes a payment record.
func (s *Service) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "dealer:payment_delete",
			Entity:   "dealer_payment",
			EntityID: id.String(),
		})
	}
	return nil
}

// BuildLedger merges the dealer's purchases and payments inside the period
// into one time-ordered sequence with a running balance. Date ties keep
// creation order. A positive closing balance is owed to the dealer.
func (s *Service) BuildLedger(ctx context.Context, dealerID uuid.UUID, from, to time.Time) (Ledger, error) {
	orders, err := s.purchases.ListForDealer(ctx, dealerID, from, to)
	if err != nil {
		return Ledger{}, err
	}
	payments, err := s.repo.ListPayments(ctx, dealerID, from, to)
	if err != nil {
		return Ledger{}, err
	}

	type raw struct {
		entry     LedgerEntry
		createdAt time.Time
	}
	items := make([]raw, 0, len(orders)+len(payments))
	for _, o := range orders {
		items = append(items, raw{
			entry: LedgerEntry{
				Kind:      EntryPurchase,
				RefID:     o.ID,
				Date:      o.PurchaseDate,
				Amount:    o.GrandTotal,
				Reference: o.InvoiceNumber,
			},
			createdAt: o.CreatedAt,
		})
	}
	for _, p := range payments {
		items = append(items, raw{
			entry: LedgerEntry{
				Kind:   EntryPayment,
				RefID:  p.ID,
				Date:   p.PaymentDate,
				Amount: p.Amount,
			},
			createdAt: p.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].entry.Date.Equal(items[j].entry.Date) {
			return items[i].entry.Date.Before(items[j].entry.Date)
		}
		return items[i].createdAt.Before(items[j].createdAt)
	})

	ledger := Ledger{
		DealerID:    dealerID,
		PeriodStart: from,
		PeriodEnd:   to,
		Entries:     []LedgerEntry{},
	}
	for _, it := range items {
		entry := it.entry
		switch entry.Kind {
		case EntryPurchase:
			ledger.Summary.TotalPurchase = ledger.Summary.TotalPurchase.Add(entry.Amount)
			ledger.Summary.Balance = ledger.Summary.Balance.Add(entry.Amount)
		case EntryPayment:
			ledger.Summary.TotalPaid = ledger.Summary.TotalPaid.Add(entry.Amount)
			ledger.Summary.Balance = ledger.Summary.Balance.Sub(entry.Amount)
		}
		entry.Balance = ledger.Summary.Balance
		ledger.Entries = append(ledger.Entries, entry)
	}
	return ledger, nil
}
