package stock

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-app/godown/internal/platform/db"
	"github.com/godown-app/godown/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error)
	List(ctx context.Context, filter Filter, page, perPage int) ([]Record, int, error)
}

// TxRepository exposes the row-locked operations used inside a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	UpdateQuantities(ctx context.Context, rec Record) error
	UpdateLevels(ctx context.Context, rec Record) error
	Delete(ctx context.Context, productID, warehouseID uuid.UUID) error
}

// Repository persists stock rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

const recordColumns = `product_id, warehouse_id, boxes, loose_items, pieces_per_box, low_stock_boxes, low_stock_items, version, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ProductID, &rec.WarehouseID,
		&rec.Boxes, &rec.LooseItems, &rec.PiecesPerBox,
		&rec.LowStockBoxes, &rec.LowStockItems,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get reads one stock row outside a transaction.
func (r *Repository) Get(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error) {
	query := `SELECT ` + recordColumns + ` FROM stocks WHERE product_id = $1 AND warehouse_id = $2`
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		return Record{}, db.MapError(err)
	}
	return rec, nil
}

// List returns stock rows matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, page, perPage int) ([]Record, int, error) {
	query := `SELECT ` + recordColumns + ` FROM stocks WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM stocks WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ProductID != nil {
		argCount++
		clause := ` AND product_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		argCount++
		clause := ` AND warehouse_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filter.WarehouseID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	query += ` ORDER BY updated_at DESC`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, perPage)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *txRepo) GetForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (Record, error) {
	query := `SELECT ` + recordColumns + ` FROM stocks WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`
	rec, err := scanRecord(r.tx.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		return Record{}, db.MapError(err)
	}
	return rec, nil
}

func (r *txRepo) Insert(ctx context.Context, rec Record) (Record, error) {
	query := `INSERT INTO stocks (product_id, warehouse_id, boxes, loose_items, pieces_per_box, low_stock_boxes, low_stock_items, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)`
	now := time.Now().UTC()
	_, err := r.tx.Exec(ctx, query,
		rec.ProductID, rec.WarehouseID,
		rec.Boxes, rec.LooseItems, rec.PiecesPerBox,
		rec.LowStockBoxes, rec.LowStockItems, now,
	)
	if err != nil {
		return Record{}, db.MapError(err)
	}
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec, nil
}

// UpdateQuantities writes new quantities conditional on the version the row
// was read at. A zero-row update means another writer got there first.
func (r *txRepo) UpdateQuantities(ctx context.Context, rec Record) error {
	query := `UPDATE stocks SET boxes = $1, loose_items = $2, version = version + 1, updated_at = $3
		WHERE product_id = $4 AND warehouse_id = $5 AND version = $6`
	tag, err := r.tx.Exec(ctx, query,
		rec.Boxes, rec.LooseItems, time.Now().UTC(),
		rec.ProductID, rec.WarehouseID, rec.Version,
	)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

func (r *txRepo) UpdateLevels(ctx context.Context, rec Record) error {
	query := `UPDATE stocks SET boxes = $1, loose_items = $2, low_stock_boxes = $3, low_stock_items = $4, version = version + 1, updated_at = $5
		WHERE product_id = $6 AND warehouse_id = $7 AND version = $8`
	tag, err := r.tx.Exec(ctx, query,
		rec.Boxes, rec.LooseItems, rec.LowStockBoxes, rec.LowStockItems, time.Now().UTC(),
		rec.ProductID, rec.WarehouseID, rec.Version,
	)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

func (r *txRepo) Delete(ctx context.Context, productID, warehouseID uuid.UUID) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM stocks WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
