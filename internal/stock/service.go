package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/units"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts delta outcomes.
type MetricsPort interface {
	DeltaApplied()
	DeltaRejected(reason string)
}

// maxDeltaRetries bounds internal retries after a concurrent modification.
const maxDeltaRetries = 3

// Service coordinates stock reads and mutations.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	cache   *Cache
	metrics MetricsPort
}

// NewService builds Service. Cache and metrics may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache *Cache, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, metrics: metrics}
}

// Create registers a new stock row, normalising loose-item overflow into
// boxes before persisting.
func (s *Service) Create(ctx context.Context, input CreateInput) (Record, error) {
	boxes, loose, err := units.Normalize(input.Boxes, input.LooseItems, input.PiecesPerBox)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ProductID:     input.ProductID,
		WarehouseID:   input.WarehouseID,
		Boxes:         boxes,
		LooseItems:    loose,
		PiecesPerBox:  input.PiecesPerBox,
		LowStockBoxes: input.LowStockBoxes,
		LowStockItems: input.LowStockItems,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.Insert(ctx, rec)
		if err != nil {
			return err
		}
		rec = created
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	s.invalidate(ctx, rec.ProductID, rec.WarehouseID)
	s.auditRecord(ctx, "stock:create", rec, map[string]any{"total_pieces": rec.TotalPieces()})
	return rec, nil
}

// Get reads a single stock row.
func (s *Service) Get(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error) {
	if s.cache != nil {
		return s.cache.GetRecord(ctx, productID, warehouseID, func(ctx context.Context) (Record, error) {
			return s.repo.Get(ctx, productID, warehouseID)
		})
	}
	return s.repo.Get(ctx, productID, warehouseID)
}

// List returns stock rows matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, filter Filter, page, perPage int) ([]Record, shared.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return records, shared.NewPagination(page, perPage, total), nil
}

// ApplyDelta posts one signed piece movement against a stock row. Concurrent
// writers are retried a bounded number of times before the conflict surfaces.
func (s *Service) ApplyDelta(ctx context.Context, delta Delta) (Record, error) {
	var rec Record
	var err error
	for attempt := 0; attempt < maxDeltaRetries; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			updated, txErr := applyDeltaTx(ctx, tx, delta)
			if txErr != nil {
				return txErr
			}
			rec = updated
			return nil
		})
		if !errors.Is(err, shared.ErrConcurrentModification) {
			break
		}
	}
	if err != nil {
		s.countRejection(err)
		return Record{}, err
	}
	s.countApplied(1)
	s.invalidate(ctx, delta.ProductID, delta.WarehouseID)
	s.auditRecord(ctx, "stock:delta", rec, map[string]any{"pieces": delta.Pieces})
	return rec, nil
}

// ApplyDeltas posts several movements in one transaction. Either every row is
// updated or none is. Rows are locked in a stable order to avoid deadlocks
// between concurrent multi-row transactions.
func (s *Service) ApplyDeltas(ctx context.Context, deltas []Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	ordered := orderDeltas(deltas)
	var err error
	for attempt := 0; attempt < maxDeltaRetries; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			for _, d := range ordered {
				if _, txErr := applyDeltaTx(ctx, tx, d); txErr != nil {
					return txErr
				}
			}
			return nil
		})
		if !errors.Is(err, shared.ErrConcurrentModification) {
			break
		}
	}
	if err != nil {
		s.countRejection(err)
		return err
	}
	s.countApplied(len(deltas))
	for _, d := range deltas {
		s.invalidate(ctx, d.ProductID, d.WarehouseID)
	}
	return nil
}

// SetLevels is the administrative partial update of absolute quantities and
// low-stock thresholds.
func (s *Service) SetLevels(ctx context.Context, productID, warehouseID uuid.UUID, input SetLevelsInput) (Record, error) {
	var rec Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		if input.Boxes != nil {
			current.Boxes = *input.Boxes
		}
		if input.LooseItems != nil {
			current.LooseItems = *input.LooseItems
		}
		if input.LowStockBoxes != nil {
			current.LowStockBoxes = input.LowStockBoxes
		}
		if input.LowStockItems != nil {
			current.LowStockItems = input.LowStockItems
		}
		boxes, loose, err := units.Normalize(current.Boxes, current.LooseItems, current.PiecesPerBox)
		if err != nil {
			return err
		}
		current.Boxes = boxes
		current.LooseItems = loose
		if err := tx.UpdateLevels(ctx, current); err != nil {
			return err
		}
		current.Version++
		rec = current
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	s.invalidate(ctx, productID, warehouseID)
	s.auditRecord(ctx, "stock:set_levels", rec, map[string]any{"total_pieces": rec.TotalPieces()})
	return rec, nil
}

// Delete removes a stock row.
func (s *Service) Delete(ctx context.Context, productID, warehouseID uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Delete(ctx, productID, warehouseID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, productID, warehouseID)
	s.auditRecord(ctx, "stock:delete", Record{ProductID: productID, WarehouseID: warehouseID}, nil)
	return nil
}

// applyDeltaTx performs the read-modify-write for one delta inside an open
// transaction. Negative outcomes are rejected before any write.
func applyDeltaTx(ctx context.Context, tx TxRepository, delta Delta) (Record, error) {
	rec, err := tx.GetForUpdate(ctx, delta.ProductID, delta.WarehouseID)
	if errors.Is(err, shared.ErrNotFound) && delta.CreateIfMissing {
		if delta.Pieces < 0 {
			return Record{}, fmt.Errorf("%w: no stock for product %s in warehouse %s", shared.ErrInsufficientStock, delta.ProductID, delta.WarehouseID)
		}
		boxes, loose, splitErr := units.FromPieces(delta.Pieces, delta.PiecesPerBox)
		if splitErr != nil {
			return Record{}, splitErr
		}
		return tx.Insert(ctx, Record{
			ProductID:    delta.ProductID,
			WarehouseID:  delta.WarehouseID,
			Boxes:        boxes,
			LooseItems:   loose,
			PiecesPerBox: delta.PiecesPerBox,
		})
	}
	if err != nil {
		return Record{}, err
	}

	total := rec.TotalPieces() + delta.Pieces
	if total < 0 {
		return Record{}, fmt.Errorf("%w: product %s in warehouse %s has %d pieces, delta %d", shared.ErrInsufficientStock, delta.ProductID, delta.WarehouseID, rec.TotalPieces(), delta.Pieces)
	}
	boxes, loose, err := units.FromPieces(total, rec.PiecesPerBox)
	if err != nil {
		return Record{}, err
	}
	rec.Boxes = boxes
	rec.LooseItems = loose
	if err := tx.UpdateQuantities(ctx, rec); err != nil {
		return Record{}, err
	}
	rec.Version++
	return rec, nil
}

// orderDeltas returns a copy sorted by product then warehouse id.
func orderDeltas(deltas []Delta) []Delta {
	ordered := make([]Delta, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ProductID != b.ProductID {
			return a.ProductID.String() < b.ProductID.String()
		}
		return a.WarehouseID.String() < b.WarehouseID.String()
	})
	return ordered
}

func (s *Service) countApplied(n int) {
	if s.metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		s.metrics.DeltaApplied()
	}
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		s.metrics.DeltaRejected("insufficient_stock")
	case errors.Is(err, shared.ErrConcurrentModification):
		s.metrics.DeltaRejected("concurrent_modification")
	case errors.Is(err, shared.ErrNotFound):
		s.metrics.DeltaRejected("not_found")
	default:
		s.metrics.DeltaRejected("error")
	}
}

func (s *Service) invalidate(ctx context.Context, productID, warehouseID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, productID, warehouseID)
	}
}

func (s *Service) auditRecord(ctx context.Context, action string, rec Record, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "stock",
		EntityID: fmt.Sprintf("%s:%s", rec.ProductID, rec.WarehouseID),
		Meta:     meta,
	})
}
