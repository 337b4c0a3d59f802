package masterdata

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-app/godown/internal/shared"
)

type memoryRepo struct {
	products   map[uuid.UUID]Product
	warehouses map[uuid.UUID]Warehouse
	dealers    map[uuid.UUID]Dealer
	customers  map[uuid.UUID]Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:   make(map[uuid.UUID]Product),
		warehouses: make(map[uuid.UUID]Warehouse),
		dealers:    make(map[uuid.UUID]Dealer),
		customers:  make(map[uuid.UUID]Customer),
	}
}

func (r *memoryRepo) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return Product{}, shared.ErrAlreadyExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, id uuid.UUID, p Product) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.products[id] = p
	return nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) ListWarehouses(ctx context.Context, f ListFilters) ([]Warehouse, int, error) {
	var out []Warehouse
	for _, w := range r.warehouses {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetWarehouse(ctx context.Context, id uuid.UUID) (Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return Warehouse{}, shared.ErrNotFound
	}
	return w, nil
}

func (r *memoryRepo) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	w.ID = uuid.New()
	r.warehouses[w.ID] = w
	return w, nil
}

func (r *memoryRepo) UpdateWarehouse(ctx context.Context, id uuid.UUID, w Warehouse) error {
	if _, ok := r.warehouses[id]; !ok {
		return shared.ErrNotFound
	}
	w.ID = id
	r.warehouses[id] = w
	return nil
}

func (r *memoryRepo) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.warehouses[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.warehouses, id)
	return nil
}

func (r *memoryRepo) ListDealers(ctx context.Context, f ListFilters) ([]Dealer, int, error) {
	var out []Dealer
	for _, d := range r.dealers {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetDealer(ctx context.Context, id uuid.UUID) (Dealer, error) {
	d, ok := r.dealers[id]
	if !ok {
		return Dealer{}, shared.ErrNotFound
	}
	return d, nil
}

func (r *memoryRepo) CreateDealer(ctx context.Context, d Dealer) (Dealer, error) {
	d.ID = uuid.New()
	r.dealers[d.ID] = d
	return d, nil
}

func (r *memoryRepo) UpdateDealer(ctx context.Context, id uuid.UUID, d Dealer) error {
	if _, ok := r.dealers[id]; !ok {
		return shared.ErrNotFound
	}
	d.ID = id
	r.dealers[id] = d
	return nil
}

func (r *memoryRepo) DeleteDealer(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.dealers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.dealers, id)
	return nil
}

func (r *memoryRepo) ListCustomers(ctx context.Context, f ListFilters) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	c.ID = uuid.New()
	r.customers[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateCustomer(ctx context.Context, id uuid.UUID, c Customer) error {
	if _, ok := r.customers[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error {
	c, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	if c.CustomPrices == nil {
		c.CustomPrices = make(map[uuid.UUID]decimal.Decimal)
	}
	c.CustomPrices[productID] = price
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.customers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductForm{SKU: "S1", Name: "Soap", PiecesPerBox: 0})
	require.ErrorIs(t, err, shared.ErrInvalidUnit)

	_, err = svc.CreateProduct(ctx, ProductForm{
		SKU: "S1", Name: "Soap", PiecesPerBox: 12,
		SellingPrice: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.CreateProduct(ctx, ProductForm{
		SKU: "S1", Name: "Soap", PiecesPerBox: 12,
		SellingPrice: decimal.NewFromInt(10),
		TaxPercent:   decimal.NewFromInt(18),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)

	_, err = svc.CreateProduct(ctx, ProductForm{SKU: "S1", Name: "Other", PiecesPerBox: 6})
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCustomerPriceOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, CustomerForm{Name: "Ravi", Phone: "9000000001"})
	require.NoError(t, err)

	productID := uuid.New()
	err = svc.SetCustomerPrice(ctx, c.ID, productID, decimal.NewFromInt(-5))
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.SetCustomerPrice(ctx, c.ID, productID, decimal.RequireFromString("9.50"))
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.CustomPrices[productID].Equal(decimal.RequireFromString("9.50")))
}

func TestUpdateCustomerKeepsOverrides(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, CustomerForm{Name: "Meena", Phone: "9000000002"})
	require.NoError(t, err)
	productID := uuid.New()
	require.NoError(t, svc.SetCustomerPrice(ctx, c.ID, productID, decimal.NewFromInt(7)))

	updated, err := svc.UpdateCustomer(ctx, c.ID, CustomerForm{Name: "Meena K", Phone: "9000000002"})
	require.NoError(t, err)
	require.Equal(t, "Meena K", updated.Name)
	require.True(t, updated.CustomPrices[productID].Equal(decimal.NewFromInt(7)))
}

func TestWarehouseLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	w, err := svc.CreateWarehouse(ctx, WarehouseForm{Code: "MAIN", Name: "Main Godown"})
	require.NoError(t, err)

	w, err = svc.UpdateWarehouse(ctx, w.ID, WarehouseForm{Code: "MAIN", Name: "Main Godown", Address: "Market Road"})
	require.NoError(t, err)
	require.Equal(t, "Market Road", w.Address)

	require.NoError(t, svc.DeleteWarehouse(ctx, w.ID))
	_, err = svc.GetWarehouse(ctx, w.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
