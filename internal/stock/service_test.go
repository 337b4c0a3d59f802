package stock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/godown-app/godown/internal/shared"
)

type memoryRepo struct {
	records map[string]Record
	// failuresBeforeCommit makes the next N quantity updates report a
	// concurrent modification, to exercise retry behaviour.
	failuresBeforeCommit int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]Record)}
}

func recordKey(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", productID, warehouseID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error) {
	rec, ok := r.records[recordKey(productID, warehouseID)]
	if !ok {
		return Record{}, shared.ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepo) List(ctx context.Context, filter Filter, page, perPage int) ([]Record, int, error) {
	var out []Record
	for _, rec := range r.records {
		if filter.ProductID != nil && rec.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && rec.WarehouseID != *filter.WarehouseID {
			continue
		}
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error) {
	return tx.repo.Get(ctx, productID, warehouseID)
}

func (tx *memoryTx) Insert(ctx context.Context, rec Record) (Record, error) {
	key := recordKey(rec.ProductID, rec.WarehouseID)
	if _, ok := tx.repo.records[key]; ok {
		return Record{}, shared.ErrAlreadyExists
	}
	now := time.Now().UTC()
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now
	tx.repo.records[key] = rec
	return rec, nil
}

func (tx *memoryTx) UpdateQuantities(ctx context.Context, rec Record) error {
	if tx.repo.failuresBeforeCommit > 0 {
		tx.repo.failuresBeforeCommit--
		return shared.ErrConcurrentModification
	}
	key := recordKey(rec.ProductID, rec.WarehouseID)
	current, ok := tx.repo.records[key]
	if !ok || current.Version != rec.Version {
		return shared.ErrConcurrentModification
	}
	current.Boxes = rec.Boxes
	current.LooseItems = rec.LooseItems
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	tx.repo.records[key] = current
	return nil
}

func (tx *memoryTx) UpdateLevels(ctx context.Context, rec Record) error {
	key := recordKey(rec.ProductID, rec.WarehouseID)
	current, ok := tx.repo.records[key]
	if !ok || current.Version != rec.Version {
		return shared.ErrConcurrentModification
	}
	current.Boxes = rec.Boxes
	current.LooseItems = rec.LooseItems
	current.LowStockBoxes = rec.LowStockBoxes
	current.LowStockItems = rec.LowStockItems
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	tx.repo.records[key] = current
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, productID, warehouseID uuid.UUID) error {
	key := recordKey(productID, warehouseID)
	if _, ok := tx.repo.records[key]; !ok {
		return shared.ErrNotFound
	}
	delete(tx.repo.records, key)
	return nil
}

func seedService(t *testing.T) (*Service, *memoryRepo, Record) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	rec, err := svc.Create(context.Background(), CreateInput{
		ProductID:    uuid.New(),
		WarehouseID:  uuid.New(),
		PiecesPerBox: 12,
		Boxes:        10,
		LooseItems:   5,
	})
	require.NoError(t, err)
	return svc, repo, rec
}

func TestCreateNormalisesLooseOverflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	rec, err := svc.Create(context.Background(), CreateInput{
		ProductID:    uuid.New(),
		WarehouseID:  uuid.New(),
		PiecesPerBox: 10,
		Boxes:        2,
		LooseItems:   25,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), rec.Boxes)
	require.Equal(t, int64(5), rec.LooseItems)
	require.Equal(t, int64(45), rec.TotalPieces())
}

func TestCreateRejectsBadUnit(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ProductID:    uuid.New(),
		WarehouseID:  uuid.New(),
		PiecesPerBox: 0,
	})
	require.ErrorIs(t, err, shared.ErrInvalidUnit)
}

func TestCreateDuplicatePair(t *testing.T) {
	svc, _, rec := seedService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		ProductID:    rec.ProductID,
		WarehouseID:  rec.WarehouseID,
		PiecesPerBox: 12,
	})
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestApplyDeltaSplitsPieces(t *testing.T) {
	svc, _, rec := seedService(t)

	// 125 pieces on hand, sell 7, remainder 118 = 9 boxes + 10 loose.
	updated, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:   rec.ProductID,
		WarehouseID: rec.WarehouseID,
		Pieces:      -7,
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), updated.Boxes)
	require.Equal(t, int64(10), updated.LooseItems)
	require.Equal(t, int64(118), updated.TotalPieces())
}

func TestApplyDeltaInsufficientStock(t *testing.T) {
	svc, repo, rec := seedService(t)

	_, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:   rec.ProductID,
		WarehouseID: rec.WarehouseID,
		Pieces:      -126,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// Nothing changed.
	current, err := repo.Get(context.Background(), rec.ProductID, rec.WarehouseID)
	require.NoError(t, err)
	require.Equal(t, int64(125), current.TotalPieces())
}

func TestApplyDeltaDrainToZero(t *testing.T) {
	svc, _, rec := seedService(t)

	updated, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:   rec.ProductID,
		WarehouseID: rec.WarehouseID,
		Pieces:      -125,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), updated.TotalPieces())
	require.Equal(t, StatusOut, updated.Status())
}

func TestApplyDeltaCreatesMissingRow(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	productID, warehouseID := uuid.New(), uuid.New()

	rec, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Pieces:          30,
		PiecesPerBox:    12,
		CreateIfMissing: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), rec.Boxes)
	require.Equal(t, int64(6), rec.LooseItems)

	// Without the create flag a missing row is an error.
	_, err = svc.ApplyDelta(context.Background(), Delta{
		ProductID:   uuid.New(),
		WarehouseID: warehouseID,
		Pieces:      5,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApplyDeltaRetriesOnConflict(t *testing.T) {
	svc, repo, rec := seedService(t)
	repo.failuresBeforeCommit = 2

	updated, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:   rec.ProductID,
		WarehouseID: rec.WarehouseID,
		Pieces:      -5,
	})
	require.NoError(t, err)
	require.Equal(t, int64(120), updated.TotalPieces())
}

func TestApplyDeltaGivesUpAfterBoundedRetries(t *testing.T) {
	svc, repo, rec := seedService(t)
	repo.failuresBeforeCommit = maxDeltaRetries

	_, err := svc.ApplyDelta(context.Background(), Delta{
		ProductID:   rec.ProductID,
		WarehouseID: rec.WarehouseID,
		Pieces:      -5,
	})
	require.ErrorIs(t, err, shared.ErrConcurrentModification)
}

func TestApplyDeltasAllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{ProductID: uuid.New(), WarehouseID: uuid.New(), PiecesPerBox: 10, Boxes: 1})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{ProductID: uuid.New(), WarehouseID: uuid.New(), PiecesPerBox: 10, Boxes: 1})
	require.NoError(t, err)

	err = svc.ApplyDeltas(ctx, []Delta{
		{ProductID: a.ProductID, WarehouseID: a.WarehouseID, Pieces: -5},
		{ProductID: b.ProductID, WarehouseID: b.WarehouseID, Pieces: -50},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// The in-memory fake applies writes eagerly, so only assert the row
	// whose write never ran. Real transactions roll both back.
	got, err := repo.Get(ctx, b.ProductID, b.WarehouseID)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.TotalPieces())
}

func TestSetLevelsPartialUpdate(t *testing.T) {
	svc, _, rec := seedService(t)
	threshold := int64(2)

	updated, err := svc.SetLevels(context.Background(), rec.ProductID, rec.WarehouseID, SetLevelsInput{
		LowStockBoxes: &threshold,
	})
	require.NoError(t, err)
	require.Equal(t, int64(125), updated.TotalPieces())
	require.NotNil(t, updated.LowStockBoxes)
	require.Equal(t, int64(2), *updated.LowStockBoxes)
}

func TestStatusRules(t *testing.T) {
	two := int64(2)

	cases := []struct {
		name string
		rec  Record
		want Status
	}{
		{"out of stock", Record{PiecesPerBox: 12}, StatusOut},
		{"no threshold never low", Record{PiecesPerBox: 12, LooseItems: 1}, StatusOK},
		{"at threshold is low", Record{PiecesPerBox: 12, Boxes: 2, LowStockBoxes: &two}, StatusLow},
		{"above threshold ok", Record{PiecesPerBox: 12, Boxes: 2, LooseItems: 1, LowStockBoxes: &two}, StatusOK},
		{"zero beats threshold", Record{PiecesPerBox: 12, LowStockBoxes: &two}, StatusOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.rec.Status())
		})
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	svc, repo, rec := seedService(t)

	require.NoError(t, svc.Delete(context.Background(), rec.ProductID, rec.WarehouseID))
	_, err := repo.Get(context.Background(), rec.ProductID, rec.WarehouseID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(context.Background(), rec.ProductID, rec.WarehouseID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
