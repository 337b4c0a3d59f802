package masterdata

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-app/godown/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, p Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListWarehouses(ctx context.Context, f ListFilters) ([]Warehouse, int, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (Warehouse, error)
	CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, w Warehouse) error
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error

	ListDealers(ctx context.Context, f ListFilters) ([]Dealer, int, error)
	GetDealer(ctx context.Context, id uuid.UUID) (Dealer, error)
	CreateDealer(ctx context.Context, d Dealer) (Dealer, error)
	UpdateDealer(ctx context.Context, id uuid.UUID, d Dealer) error
	DeleteDealer(ctx context.Context, id uuid.UUID) error

	ListCustomers(ctx context.Context, f ListFilters) ([]Customer, int, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error)
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, c Customer) error
	SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
}

// Service coordinates master data operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, f)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, form ProductForm) (Product, error) {
	if err := validateProductForm(form); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, productFromForm(form))
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, form ProductForm) (Product, error) {
	if err := validateProductForm(form); err != nil {
		return Product{}, err
	}
	if err := s.repo.UpdateProduct(ctx, id, productFromForm(form)); err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListWarehouses(ctx context.Context, f ListFilters) ([]Warehouse, int, error) {
	return s.repo.ListWarehouses(ctx, f)
}

func (s *Service) GetWarehouse(ctx context.Context, id uuid.UUID) (Warehouse, error) {
	return s.repo.GetWarehouse(ctx, id)
}

func (s *Service) CreateWarehouse(ctx context.Context, form WarehouseForm) (Warehouse, error) {
	return s.repo.CreateWarehouse(ctx, Warehouse{Code: form.Code, Name: form.Name, Address: form.Address})
}

func (s *Service) UpdateWarehouse(ctx context.Context, id uuid.UUID, form WarehouseForm) (Warehouse, error) {
	if err := s.repo.UpdateWarehouse(ctx, id, Warehouse{Code: form.Code, Name: form.Name, Address: form.Address}); err != nil {
		return Warehouse{}, err
	}
	return s.repo.GetWarehouse(ctx, id)
}

func (s *Service) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteWarehouse(ctx, id)
}

func (s *Service) ListDealers(ctx context.Context, f ListFilters) ([]Dealer, int, error) {
	return s.repo.ListDealers(ctx, f)
}

func (s *Service) GetDealer(ctx context.Context, id uuid.UUID) (Dealer, error) {
	return s.repo.GetDealer(ctx, id)
}

func (s *Service) CreateDealer(ctx context.Context, form DealerForm) (Dealer, error) {
	return s.repo.CreateDealer(ctx, Dealer{Name: form.Name, Phone: form.Phone, Address: form.Address, GSTIN: form.GSTIN})
}

func (s *Service) UpdateDealer(ctx context.Context, id uuid.UUID, form DealerForm) (Dealer, error) {
	if err := s.repo.UpdateDealer(ctx, id, Dealer{Name: form.Name, Phone: form.Phone, Address: form.Address, GSTIN: form.GSTIN}); err != nil {
		return Dealer{}, err
	}
	return s.repo.GetDealer(ctx, id)
}

func (s *Service) DeleteDealer(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDealer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, f ListFilters) ([]Customer, int, error) {
	return s.repo.ListCustomers(ctx, f)
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, form CustomerForm) (Customer, error) {
	return s.repo.CreateCustomer(ctx, Customer{
		Name:      form.Name,
		ShopName:  form.ShopName,
		Phone:     form.Phone,
		Address:   form.Address,
		GSTNumber: form.GSTNumber,
	})
}

func (s *Service) UpdateCustomer(ctx context.Context, id uuid.UUID, form CustomerForm) (Customer, error) {
	current, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	current.Name = form.Name
	current.ShopName = form.ShopName
	current.Phone = form.Phone
	current.Address = form.Address
	current.GSTNumber = form.GSTNumber
	if err := s.repo.UpdateCustomer(ctx, id, current); err != nil {
		return Customer{}, err
	}
	return s.repo.GetCustomer(ctx, id)
}

// SetCustomerPrice stores a per-product price override for a customer.
func (s *Service) SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: custom price must not be negative", shared.ErrValidation)
	}
	return s.repo.SetCustomerPrice(ctx, id, productID, price)
}

func (s *Service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCustomer(ctx, id)
}

func validateProductForm(form ProductForm) error {
	if form.PiecesPerBox < 1 {
		return fmt.Errorf("%w: pieces per box must be >= 1", shared.ErrInvalidUnit)
	}
	if form.PurchasePrice.IsNegative() || form.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	if form.TaxPercent.IsNegative() {
		return fmt.Errorf("%w: tax percent must not be negative", shared.ErrValidation)
	}
	return nil
}

func productFromForm(form ProductForm) Product {
	return Product{
		SKU:           form.SKU,
		Name:          form.Name,
		Category:      form.Category,
		PurchasePrice: form.PurchasePrice,
		SellingPrice:  form.SellingPrice,
		TaxPercent:    form.TaxPercent,
		PiecesPerBox:  form.PiecesPerBox,
		HSNCode:       form.HSNCode,
		Description:   form.Description,
	}
}
