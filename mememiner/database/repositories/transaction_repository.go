package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, entry *models.Transaction) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)
}

type transactionRepository struct {
	db *bun.DB
}

func NewTransactionRepository(db *bun.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, entry *models.Transaction) error {
	entry.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(entry).Exec(ctx)
	return err
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	var entries []*models.Transaction
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return entries, err
}
