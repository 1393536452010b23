package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

type BadgeRepository interface {
	GetAll(ctx context.Context) ([]*models.Badge, error)
	GetByID(ctx context.Context, badgeID string) (*models.Badge, error)
	GetUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
	GetUserBadgeIDs(ctx context.Context, userID int64) (map[string]bool, error)
	Award(ctx context.Context, userID int64, badgeID string, earnedValue float64) (bool, error)
}

type badgeRepository struct {
	db *bun.DB
}

func NewBadgeRepository(db *bun.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) GetAll(ctx context.Context) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := r.db.NewSelect().
		Model(&badges).
		Order("id ASC").
		Scan(ctx)
	return badges, err
}

func (r *badgeRepository) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	badge := new(models.Badge)
	err := r.db.NewSelect().
		Model(badge).
		Where("id = ?", badgeID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return badge, nil
}

func (r *badgeRepository) GetUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	var awards []*models.UserBadge
	err := r.db.NewSelect().
		Model(&awards).
		Relation("Badge").
		Where("ub.user_id = ?", userID).
		Order("ub.earned_at ASC").
		Scan(ctx)
	return awards, err
}

func (r *badgeRepository) GetUserBadgeIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*models.UserBadge)(nil)).
		Column("badge_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}
	return owned, nil
}

// Award inserts the (user, badge) pair, reporting whether this call created
// it. The composite primary key makes redundant calls no-ops.
func (r *badgeRepository) Award(ctx context.Context, userID int64, badgeID string, earnedValue float64) (bool, error) {
	award := &models.UserBadge{
		UserID:      userID,
		BadgeID:     badgeID,
		EarnedValue: earnedValue,
		EarnedAt:    time.Now(),
	}

	result, err := r.db.NewInsert().
		Model(award).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}
