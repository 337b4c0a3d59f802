package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/stock"
)

type memoryRepo struct {
	bills      map[uuid.UUID]Bill
	failInsert bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{bills: make(map[uuid.UUID]Bill)}
}

func (r *memoryRepo) Insert(ctx context.Context, bill Bill) (Bill, error) {
	if r.failInsert {
		return Bill{}, errors.New("storage unavailable")
	}
	bill.ID = uuid.New()
	bill.CreatedAt = time.Now()
	bill.UpdatedAt = bill.CreatedAt
	r.bills[bill.ID] = bill
	return bill, nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	bill, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return bill, nil
}

func (r *memoryRepo) List(ctx context.Context, page, perPage int) ([]Bill, int, error) {
	var out []Bill
	for _, b := range r.bills {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(ctx context.Context, bill Bill) error {
	if _, ok := r.bills[bill.ID]; !ok {
		return shared.ErrNotFound
	}
	bill.UpdatedAt = time.Now()
	r.bills[bill.ID] = bill
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.bills[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.bills, id)
	return nil
}

// fakeLedger applies delta sets all-or-nothing against an in-memory piece map.
type fakeLedger struct {
	pieces map[string]int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{pieces: make(map[string]int64)}
}

func ledgerKey(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", productID, warehouseID)
}

func (l *fakeLedger) seed(productID, warehouseID uuid.UUID, pieces int64) {
	l.pieces[ledgerKey(productID, warehouseID)] = pieces
}

func (l *fakeLedger) at(productID, warehouseID uuid.UUID) int64 {
	return l.pieces[ledgerKey(productID, warehouseID)]
}

func (l *fakeLedger) ApplyDeltas(ctx context.Context, deltas []stock.Delta) error {
	next := make(map[string]int64, len(l.pieces))
	for k, v := range l.pieces {
		next[k] = v
	}
	for _, d := range deltas {
		key := ledgerKey(d.ProductID, d.WarehouseID)
		if _, ok := next[key]; !ok && !d.CreateIfMissing {
			return shared.ErrNotFound
		}
		total := next[key] + d.Pieces
		if total < 0 {
			return shared.ErrInsufficientStock
		}
		next[key] = total
	}
	l.pieces = next
	return nil
}

type fakeCustomers struct {
	overrides map[string]decimal.Decimal
}

func (c *fakeCustomers) SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error {
	if c.overrides == nil {
		c.overrides = make(map[string]decimal.Decimal)
	}
	c.overrides[fmt.Sprintf("%s:%s", id, productID)] = price
	return nil
}

func billFixture(t *testing.T) (*Service, *memoryRepo, *fakeLedger, LineInput) {
	t.Helper()
	repo := newMemoryRepo()
	ledger := newFakeLedger()
	svc := NewService(repo, ledger, nil, nil, nil)

	line := LineInput{
		ProductID:     uuid.New(),
		WarehouseID:   uuid.New(),
		SellingPrice:  dec("118"),
		TaxPercent:    dec("18"),
		QuantityLoose: 10,
		PiecesPerBox:  12,
		DiscountType:  DiscountNone,
	}
	ledger.seed(line.ProductID, line.WarehouseID, 125)
	return svc, repo, ledger, line
}

func TestCreateBillDeductsStock(t *testing.T) {
	svc, repo, ledger, line := billFixture(t)

	bill, err := svc.Create(context.Background(), BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash, CashAmount: dec("1180")},
	})
	require.NoError(t, err)
	require.True(t, bill.GrandTotal.Equal(dec("1180")))
	require.True(t, bill.BalanceAmount.IsZero())
	require.Equal(t, int64(115), ledger.at(line.ProductID, line.WarehouseID))
	require.Len(t, repo.bills, 1)
}

func TestCreateBillOverpaidLeavesStockUntouched(t *testing.T) {
	svc, repo, ledger, line := billFixture(t)

	_, err := svc.Create(context.Background(), BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash, CashAmount: dec("2000")},
	})
	require.ErrorIs(t, err, shared.ErrOverpaid)
	require.Equal(t, int64(125), ledger.at(line.ProductID, line.WarehouseID))
	require.Empty(t, repo.bills)
}

func TestCreateBillInsufficientStock(t *testing.T) {
	svc, repo, ledger, line := billFixture(t)
	line.QuantityBoxes = 11 // 132 + 10 loose > 125 on hand

	_, err := svc.Create(context.Background(), BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(125), ledger.at(line.ProductID, line.WarehouseID))
	require.Empty(t, repo.bills)
}

func TestCreateBillCompensatesFailedPersist(t *testing.T) {
	svc, repo, ledger, line := billFixture(t)
	repo.failInsert = true

	_, err := svc.Create(context.Background(), BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.Error(t, err)
	require.Equal(t, int64(125), ledger.at(line.ProductID, line.WarehouseID))
}

func TestUpdateBillRevertsThenReapplies(t *testing.T) {
	svc, _, ledger, line := billFixture(t)
	ctx := context.Background()

	bill, err := svc.Create(ctx, BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.NoError(t, err)
	require.Equal(t, int64(115), ledger.at(line.ProductID, line.WarehouseID))

	// Reduce quantity from 10 to 4 pieces; net +6 back.
	line.QuantityLoose = 4
	updated, err := svc.Update(ctx, bill.ID, BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), updated.TotalItems)
	require.Equal(t, int64(121), ledger.at(line.ProductID, line.WarehouseID))
}

func TestUpdateBillMovesWarehouse(t *testing.T) {
	svc, _, ledger, line := billFixture(t)
	ctx := context.Background()

	bill, err := svc.Create(ctx, BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.NoError(t, err)

	// Moving the line to an empty warehouse must fail and leave both rows
	// as they were.
	other := uuid.New()
	ledger.seed(line.ProductID, other, 3)
	moved := line
	moved.WarehouseID = other

	_, err = svc.Update(ctx, bill.ID, BillInput{
		Lines:   []LineInput{moved},
		Payment: Payment{Mode: PaymentCash},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(115), ledger.at(line.ProductID, line.WarehouseID))
	require.Equal(t, int64(3), ledger.at(line.ProductID, other))
}

func TestDeleteBillRestoresStock(t *testing.T) {
	svc, repo, ledger, line := billFixture(t)
	ctx := context.Background()

	bill, err := svc.Create(ctx, BillInput{
		Lines:   []LineInput{line},
		Payment: Payment{Mode: PaymentCash},
	})
	require.NoError(t, err)
	require.Equal(t, int64(115), ledger.at(line.ProductID, line.WarehouseID))

	require.NoError(t, svc.Delete(ctx, bill.ID))
	require.Equal(t, int64(125), ledger.at(line.ProductID, line.WarehouseID))
	require.Empty(t, repo.bills)
}

func TestCreateBillPersistsPriceOverride(t *testing.T) {
	repo := newMemoryRepo()
	ledger := newFakeLedger()
	customers := &fakeCustomers{}
	svc := NewService(repo, ledger, customers, nil, nil)

	customerID := uuid.New()
	line := LineInput{
		ProductID:                uuid.New(),
		WarehouseID:              uuid.New(),
		SellingPrice:             dec("9.50"),
		QuantityLoose:            2,
		PiecesPerBox:             6,
		DiscountType:             DiscountNone,
		OverridePriceForCustomer: true,
	}
	ledger.seed(line.ProductID, line.WarehouseID, 10)

	_, err := svc.Create(context.Background(), BillInput{
		CustomerID: &customerID,
		Lines:      []LineInput{line},
		Payment:    Payment{Mode: PaymentCash},
	})
	require.NoError(t, err)
	key := fmt.Sprintf("%s:%s", customerID, line.ProductID)
	require.True(t, customers.overrides[key].Equal(dec("9.50")))
}

type fakeIdemStore struct {
	keys     map[string]bool
	inserted []string
	deleted  []string
}

func (s *fakeIdemStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	s.inserted = append(s.inserted, key)
	return nil
}

func (s *fakeIdemStore) Delete(ctx context.Context, key string) error {
	delete(s.keys, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func TestCreateBillRejectsDuplicateKey(t *testing.T) {
	repo := newMemoryRepo()
	ledger := newFakeLedger()
	idem := &fakeIdemStore{}
	svc := NewService(repo, ledger, nil, nil, idem)

	line := LineInput{
		ProductID:     uuid.New(),
		WarehouseID:   uuid.New(),
		SellingPrice:  dec("100"),
		QuantityLoose: 1,
		PiecesPerBox:  10,
		DiscountType:  DiscountNone,
	}
	ledger.seed(line.ProductID, line.WarehouseID, 50)
	input := BillInput{
		Lines:          []LineInput{line},
		Payment:        Payment{Mode: PaymentCash},
		IdempotencyKey: "bill-abc",
	}

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, int64(49), ledger.at(line.ProductID, line.WarehouseID))
	require.Len(t, repo.bills, 1)
}

func TestCreateBillReleasesKeyOnFailedPersist(t *testing.T) {
	repo := newMemoryRepo()
	repo.failInsert = true
	ledger := newFakeLedger()
	idem := &fakeIdemStore{}
	svc := NewService(repo, ledger, nil, nil, idem)

	line := LineInput{
		ProductID:     uuid.New(),
		WarehouseID:   uuid.New(),
		SellingPrice:  dec("100"),
		QuantityLoose: 1,
		PiecesPerBox:  10,
		DiscountType:  DiscountNone,
	}
	ledger.seed(line.ProductID, line.WarehouseID, 50)

	_, err := svc.Create(context.Background(), BillInput{
		Lines:          []LineInput{line},
		Payment:        Payment{Mode: PaymentCash},
		IdempotencyKey: "bill-retry",
	})
	require.Error(t, err)
	require.Equal(t, []string{"bill-retry"}, idem.deleted)

	repo.failInsert = false
	_, err = svc.Create(context.Background(), BillInput{
		Lines:          []LineInput{line},
		Payment:        Payment{Mode: PaymentCash},
		IdempotencyKey: "bill-retry",
	})
	require.NoError(t, err)
}
