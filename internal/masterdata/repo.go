package masterdata

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/internal/shared"
)

// Repository persists master data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func listWindow(f ListFilters) (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// --- products ---

const productColumns = `id, sku, name, category, purchase_price, selling_price, tax_percent, pieces_per_box, hsn_code, description, created_at, updated_at`

func (r *Repository) ListProducts(ctx context.Context, f ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if f.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := listWindow(f)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.PurchasePrice, &p.SellingPrice, &p.TaxPercent, &p.PiecesPerBox, &p.HSNCode, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.PurchasePrice, &p.SellingPrice, &p.TaxPercent, &p.PiecesPerBox, &p.HSNCode, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, db.MapError(err)
	}
	return p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.New()
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, sku, name, category, purchase_price, selling_price, tax_percent, pieces_per_box, hsn_code, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		p.ID, p.SKU, p.Name, p.Category, p.PurchasePrice, p.SellingPrice, p.TaxPercent, p.PiecesPerBox, p.HSNCode, p.Description, now)
	if err != nil {
		return Product{}, db.MapError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET sku = $1, name = $2, category = $3, purchase_price = $4, selling_price = $5, tax_percent = $6, pieces_per_box = $7, hsn_code = $8, description = $9, updated_at = $10 WHERE id = $11`,
		p.SKU, p.Name, p.Category, p.PurchasePrice, p.SellingPrice, p.TaxPercent, p.PiecesPerBox, p.HSNCode, p.Description, time.Now().UTC(), id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- warehouses ---

const warehouseColumns = `id, code, name, address, created_at, updated_at`

func (r *Repository) ListWarehouses(ctx context.Context, f ListFilters) ([]Warehouse, int, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM warehouses WHERE 1=1`
	args := []any{}
	argCount := 0

	if f.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := listWindow(f)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, total, rows.Err()
}

func (r *Repository) GetWarehouse(ctx context.Context, id uuid.UUID) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return Warehouse{}, db.MapError(err)
	}
	return w, nil
}

func (r *Repository) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	w.ID = uuid.New()
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO warehouses (id, code, name, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		w.ID, w.Code, w.Name, w.Address, now)
	if err != nil {
		return Warehouse{}, db.MapError(err)
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return w, nil
}

func (r *Repository) UpdateWarehouse(ctx context.Context, id uuid.UUID, w Warehouse) error {
	tag, err := r.pool.Exec(ctx, `UPDATE warehouses SET code = $1, name = $2, address = $3, updated_at = $4 WHERE id = $5`,
		w.Code, w.Name, w.Address, time.Now().UTC(), id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- dealers ---

const dealerColumns = `id, name, phone, address, gstin, created_at, updated_at`

func (r *Repository) ListDealers(ctx context.Context, f ListFilters) ([]Dealer, int, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM dealers WHERE 1=1`
	args := []any{}
	argCount := 0

	if f.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR phone ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := listWindow(f)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var dealers []Dealer
	for rows.Next() {
		var d Dealer
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Address, &d.GSTIN, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		dealers = append(dealers, d)
	}
	return dealers, total, rows.Err()
}

func (r *Repository) GetDealer(ctx context.Context, id uuid.UUID) (Dealer, error) {
	var d Dealer
	err := r.pool.QueryRow(ctx, `SELECT `+dealerColumns+` FROM dealers WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Phone, &d.Address, &d.GSTIN, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Dealer{}, db.MapError(err)
	}
	return d, nil
}

func (r *Repository) CreateDealer(ctx context.Context, d Dealer) (Dealer, error) {
	d.ID = uuid.New()
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO dealers (id, name, phone, address, gstin, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		d.ID, d.Name, d.Phone, d.Address, d.GSTIN, now)
	if err != nil {
		return Dealer{}, db.MapError(err)
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	return d, nil
}

func (r *Repository) UpdateDealer(ctx context.Context, id uuid.UUID, d Dealer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dealers SET name = $1, phone = $2, address = $3, gstin = $4, updated_at = $5 WHERE id = $6`,
		d.Name, d.Phone, d.Address, d.GSTIN, time.Now().UTC(), id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteDealer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dealers WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// --- customers ---

const customerColumns = `id, name, shop_name, phone, address, gst_number, custom_prices, created_at, updated_at`

func scanCustomer(scan func(...any) error) (Customer, error) {
	var c Customer
	var prices []byte
	if err := scan(&c.ID, &c.Name, &c.ShopName, &c.Phone, &c.Address, &c.GSTNumber, &prices, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Customer{}, err
	}
	if len(prices) > 0 {
		if err := json.Unmarshal(prices, &c.CustomPrices); err != nil {
			return Customer{}, err
		}
	}
	return c, nil
}

func (r *Repository) ListCustomers(ctx context.Context, f ListFilters) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []any{}
	argCount := 0

	if f.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR shop_name ILIKE $` + strconv.Itoa(argCount) + ` OR phone ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := listWindow(f)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row.Scan)
	if err != nil {
		return Customer{}, db.MapError(err)
	}
	return c, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	c.ID = uuid.New()
	now := time.Now().UTC()
	prices, err := json.Marshal(c.CustomPrices)
	if err != nil {
		return Customer{}, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO customers (id, name, shop_name, phone, address, gst_number, custom_prices, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		c.ID, c.Name, c.ShopName, c.Phone, c.Address, c.GSTNumber, prices, now)
	if err != nil {
		return Customer{}, db.MapError(err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, id uuid.UUID, c Customer) error {
	prices, err := json.Marshal(c.CustomPrices)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET name = $1, shop_name = $2, phone = $3, address = $4, gst_number = $5, custom_prices = $6, updated_at = $7 WHERE id = $8`,
		c.Name, c.ShopName, c.Phone, c.Address, c.GSTNumber, prices, time.Now().UTC(), id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetCustomerPrice persists one per-product price override.
func (r *Repository) SetCustomerPrice(ctx context.Context, id, productID uuid.UUID, price decimal.Decimal) error {
	payload, err := json.Marshal(map[uuid.UUID]decimal.Decimal{productID: price})
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET custom_prices = COALESCE(custom_prices, '{}'::jsonb) || $1::jsonb, updated_at = $2 WHERE id = $3`,
		payload, time.Now().UTC(), id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
