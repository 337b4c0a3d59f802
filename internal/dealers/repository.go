package dealers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	ListPayments(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
}

// Repository persists dealer payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, dealer_id, amount, mode, payment_date, note, created_at`

func (r *Repository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	p.ID = uuid.New()
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO dealer_payments (id, dealer_id, amount, mode, payment_date, note, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.DealerID, p.Amount, p.Mode, p.PaymentDate, p.Note, now)
	if err != nil {
		return Payment{}, db.MapError(err)
	}
	p.CreatedAt = now
	return p, nil
}

func (r *Repository) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM dealer_payments WHERE id = $1`, id).
		Scan(&p.ID, &p.DealerID, &p.Amount, &p.Mode, &p.PaymentDate, &p.Note, &p.CreatedAt)
	if err != nil {
		return Payment{}, db.MapError(err)
	}
	return p, nil
}

// ListPayments returns a dealer's payments inside [from, to], oldest first.
func (r *Repository) ListPayments(ctx context.Context, dealerID uuid.UUID, from, to time.Time) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM dealer_payments WHERE dealer_id = $1 AND payment_date >= $2 AND payment_date <= $3 ORDER BY payment_date ASC, created_at ASC`, dealerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.DealerID, &p.Amount, &p.Mode, &p.PaymentDate, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *Repository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dealer_payments WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
