package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

type BoostRepository interface {
	GetActiveByUserID(ctx context.Context, userID int64) ([]*models.ActiveBoost, error)
	Insert(ctx context.Context, boost *models.ActiveBoost) error
	HasActiveMultiplier(ctx context.Context, userID int64) (bool, error)
	DeactivateExpired(ctx context.Context) (int64, error)
}

type boostRepository struct {
	db *bun.DB
}

func NewBoostRepository(db *bun.DB) BoostRepository {
	return &boostRepository{db: db}
}

// GetActiveByUserID returns active, non-expired boosts. One-shot boosts
// (nil expiry) are included so callers can see their history of grants.
func (r *boostRepository) GetActiveByUserID(ctx context.Context, userID int64) ([]*models.ActiveBoost, error) {
	var boosts []*models.ActiveBoost
	err := r.db.NewSelect().
		Model(&boosts).
		Where("user_id = ? AND is_active = true", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at DESC").
		Scan(ctx)
	return boosts, err
}

func (r *boostRepository) Insert(ctx context.Context, boost *models.ActiveBoost) error {
	boost.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(boost).Exec(ctx)
	return err
}

func (r *boostRepository) HasActiveMultiplier(ctx context.Context, userID int64) (bool, error) {
	return r.db.NewSelect().
		Model((*models.ActiveBoost)(nil)).
		Where("user_id = ? AND is_active = true", userID).
		Where("effect_type = ?", models.EffectTypeMiningMultiplier).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Exists(ctx)
}

// DeactivateExpired retires timed boosts whose window ended; the boost
// sweeper in the mining package calls it on a ticker.
func (r *boostRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	result, err := r.db.NewUpdate().
		Model((*models.ActiveBoost)(nil)).
		Set("is_active = false").
		Where("is_active = true AND expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
