package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no live transaction matches.
var ErrNotFound = errors.New("transaction not found")

// Repository persists transactions.
type Repository interface {
	Create(ctx context.Context, tx Transaction) error
	// FindByID returns the transaction whether or not it has been soft-deleted.
	FindByID(ctx context.Context, id string) (Transaction, error)
	// ListBySender returns the sender's live transactions in creation order.
	ListBySender(ctx context.Context, senderPhone string) ([]Transaction, error)
	// SoftDelete flags a live transaction owned by senderPhone as deleted.
	// It returns ErrNotFound when no such live row exists.
	SoftDelete(ctx context.Context, id, senderPhone string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed transaction repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectTransaction = `SELECT id, sender_phone, receiver_phone, product, amount, deleted_status, created_at FROM transactions`

// Create inserts a new transaction row.
func (r *PostgresRepository) Create(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return fmt.Errorf("parse transaction id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transactions (id, sender_phone, receiver_phone, product, amount, deleted_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txID, tx.SenderPhone, tx.ReceiverPhone, tx.Product, tx.Amount, tx.Deleted, tx.CreatedAt.UTC())
	return err
}

// FindByID fetches a transaction by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	return scanTransaction(r.db.QueryRow(ctx, selectTransaction+` WHERE id = $1`, txID))
}

// ListBySender returns live transactions sent from senderPhone.
func (r *PostgresRepository) ListBySender(ctx context.Context, senderPhone string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, selectTransaction+`
        WHERE sender_phone = $1 AND deleted_status = FALSE
        ORDER BY created_at, id`, senderPhone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// SoftDelete flips the deleted flag in a single conditional update, so two
// concurrent deletes of the same row cannot both succeed.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, senderPhone string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET deleted_status = TRUE
        WHERE id = $1 AND sender_phone = $2 AND deleted_status = FALSE`, txID, senderPhone)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		tx        Transaction
	)
	if err := row.Scan(&id, &tx.SenderPhone, &tx.ReceiverPhone, &tx.Product, &tx.Amount, &tx.Deleted, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}
