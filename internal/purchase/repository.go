package purchase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Insert(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, page, perPage int) ([]Order, int, error)
	ListByDealerPeriod(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Order, error)
	Update(ctx context.Context, order Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, dealer_id, invoice_number, purchase_date, lines, sub_total, tax_total, grand_total, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var lines []byte
	err := row.Scan(
		&o.ID, &o.DealerID, &o.InvoiceNumber, &o.PurchaseDate, &lines,
		&o.SubTotal, &o.TaxTotal, &o.GrandTotal, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repository) Insert(ctx context.Context, order Order) (Order, error) {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return Order{}, err
	}
	order.ID = uuid.New()
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `INSERT INTO purchases (id, dealer_id, invoice_number, purchase_date, lines, sub_total, tax_total, grand_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		order.ID, order.DealerID, order.InvoiceNumber, order.PurchaseDate, lines,
		order.SubTotal, order.TaxTotal, order.GrandTotal, now)
	if err != nil {
		return Order{}, db.MapError(err)
	}
	order.CreatedAt = now
	order.UpdatedAt = now
	return order, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return Order{}, db.MapError(err)
	}
	return order, nil
}

func (r *Repository) List(ctx context.Context, page, perPage int) ([]Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, err
	}
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM purchases ORDER BY purchase_date DESC, created_at DESC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// ListByDealerPeriod returns a dealer's orders inside [from, to], oldest
// first, for the ledger builder.
func (r *Repository) ListByDealerPeriod(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM purchases WHERE dealer_id = $1 AND purchase_date >= $2 AND purchase_date <= $3 ORDER BY purchase_date ASC, created_at ASC`, dealerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *Repository) Update(ctx context.Context, order Order) error {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET dealer_id = $1, invoice_number = $2, purchase_date = $3, lines = $4, sub_total = $5, tax_total = $6, grand_total = $7, updated_at = $8 WHERE id = $9`,
		order.DealerID, order.InvoiceNumber, order.PurchaseDate, lines,
		order.SubTotal, order.TaxTotal, order.GrandTotal, time.Now().UTC(), order.ID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
