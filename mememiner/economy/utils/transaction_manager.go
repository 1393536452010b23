package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

// DefaultTxTimeout bounds every economic transaction.
const DefaultTxTimeout = 10 * time.Second

// ErrInsufficientBalance means the balance guard on a spend matched no row.
// Callers check it with errors.Is to tell a rejected spend apart from a
// database failure.
var ErrInsufficientBalance = errors.New("insufficient available points")

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	IsolationLevel sql.IsolationLevel
	Timeout        time.Duration
}

// EconomicTransactionManager provides standardized transaction utilities for
// point-moving operations
type EconomicTransactionManager struct {
	db *bun.DB
}

// NewEconomicTransactionManager creates a new transaction manager
func NewEconomicTransactionManager(db *bun.DB) *EconomicTransactionManager {
	return &EconomicTransactionManager{db: db}
}

// StandardTransactionOptions returns default transaction options
func StandardTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelReadCommitted,
		Timeout:        DefaultTxTimeout,
	}
}

// SerializableTransactionOptions returns serializable isolation level options
// for critical operations
func SerializableTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelSerializable,
		Timeout:        DefaultTxTimeout,
	}
}

// WithTransaction executes a function within a database transaction
func (etm *EconomicTransactionManager) WithTransaction(ctx context.Context, opts *TransactionOptions, fn func(context.Context, bun.Tx) error) error {
	if opts == nil {
		opts = StandardTransactionOptions()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tx, err := etm.db.BeginTx(timeoutCtx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(timeoutCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// PointOperationOptions configures point balance operations
type PointOperationOptions struct {
	UserID int64
	Amount float64 // positive credit or negative spend
}

// AddPoints credits lifetime and season points atomically. Amounts must
// already be floored to two decimals by the caller.
func (etm *EconomicTransactionManager) AddPoints(ctx context.Context, tx bun.Tx, opts PointOperationOptions) error {
	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("lifetime_points = lifetime_points + ?", opts.Amount).
		Set("season_points = season_points + ?", opts.Amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", opts.UserID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %d not found when adding points", opts.UserID)
	}
	return nil
}

// SpendPoints raises spent_points by amount, guarded so the available
// balance (lifetime - spent) can never go negative.
func (etm *EconomicTransactionManager) SpendPoints(ctx context.Context, tx bun.Tx, opts PointOperationOptions) error {
	if opts.Amount <= 0 {
		return fmt.Errorf("spend amount must be positive, got %v", opts.Amount)
	}

	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("spent_points = spent_points + ?", opts.Amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND lifetime_points - spent_points >= ?", opts.UserID, opts.Amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to spend points: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w for user %d", ErrInsufficientBalance, opts.UserID)
	}
	return nil
}

// AppendLedger writes one append-only transaction row
func (etm *EconomicTransactionManager) AppendLedger(ctx context.Context, tx bun.Tx, entry *models.Transaction) error {
	entry.CreatedAt = time.Now()
	if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetDB returns the underlying database connection
func (etm *EconomicTransactionManager) GetDB() *bun.DB {
	return etm.db
}
