package billing

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
	Insert(ctx context.Context, bill Bill) (Bill, error)
	Get(ctx context.Context, id uuid.UUID) (Bill, error)
	List(ctx context.Context, page, perPage int) ([]Bill, int, error)
	Update(ctx context.Context, bill Bill) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository persists bills in PostgreSQL. Lines are stored as a jsonb
// document since they have no identity outside their bill.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const billColumns = `id, customer_id, bill_date, lines, payment_mode, cash_amount, upi_amount, card_amount, total_items, total_before_tax, total_tax, grand_total, amount_collected, balance_amount, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	var lines []byte
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.BillDate, &lines,
		&b.Payment.Mode, &b.Payment.CashAmount, &b.Payment.UPIAmount, &b.Payment.CardAmount,
		&b.TotalItems, &b.TotalBeforeTax, &b.TotalTax, &b.GrandTotal,
		&b.AmountCollected, &b.BalanceAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return Bill{}, err
	}
	if err := json.Unmarshal(lines, &b.Lines); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (r *Repository) Insert(ctx context.Context, bill Bill) (Bill, error) {
	lines, err := json.Marshal(bill.Lines)
	if err != nil {
		return Bill{}, err
	}
	bill.ID = uuid.New()
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `INSERT INTO bills (id, customer_id, bill_date, lines, payment_mode, cash_amount, upi_amount, card_amount, total_items, total_before_tax, total_tax, grand_total, amount_collected, balance_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		bill.ID, bill.CustomerID, bill.BillDate, lines,
		bill.Payment.Mode, bill.Payment.CashAmount, bill.Payment.UPIAmount, bill.Payment.CardAmount,
		bill.TotalItems, bill.TotalBeforeTax, bill.TotalTax, bill.GrandTotal,
		bill.AmountCollected, bill.BalanceAmount, now)
	if err != nil {
		return Bill{}, db.MapError(err)
	}
	bill.CreatedAt = now
	bill.UpdatedAt = now
	return bill, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	bill, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if err != nil {
		return Bill{}, db.MapError(err)
	}
	return bill, nil
}

func (r *Repository) List(ctx context.Context, page, perPage int) ([]Bill, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&total); err != nil {
		return nil, 0, err
	}
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY bill_date DESC, created_at DESC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, bill Bill) error {
	lines, err := json.Marshal(bill.Lines)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE bills SET customer_id = $1, bill_date = $2, lines = $3, payment_mode = $4, cash_amount = $5, upi_amount = $6, card_amount = $7, total_items = $8, total_before_tax = $9, total_tax = $10, grand_total = $11, amount_collected = $12, balance_amount = $13, updated_at = $14 WHERE id = $15`,
		bill.CustomerID, bill.BillDate, lines,
		bill.Payment.Mode, bill.Payment.CashAmount, bill.Payment.UPIAmount, bill.Payment.CardAmount,
		bill.TotalItems, bill.TotalBeforeTax, bill.TotalTax, bill.GrandTotal,
		bill.AmountCollected, bill.BalanceAmount, time.Now().UTC(), bill.ID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
