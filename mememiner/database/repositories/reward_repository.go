package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/economy/utils"
)

// ErrSessionMissing is returned by ApplyClaim when the session was already
// claimed (or never started) by the time the conditional update ran.
var ErrSessionMissing = errors.New("no active session to claim")

// ErrInsufficientPoints is returned when a spend would push the available
// balance below zero.
var ErrInsufficientPoints = errors.New("insufficient available points")

// ClaimApply is the full state change of one successful claim, applied as a
// single transaction.
type ClaimApply struct {
	UserID        int64
	Points        float64
	CurrentStreak int
	MaxStreak     int
	ClaimedAt     time.Time
	Description   string
}

// BoxApply is the full state change of one mystery box opening: the cost
// deduction and every granted prize commit or roll back together.
type BoxApply struct {
	UserID      int64
	Cost        float64
	PrizePoints float64
	Boost       *models.ActiveBoost
	BadgeID     string
	Opening     *models.MysteryBoxOpening
}

// PurchaseApply is the state change of one shop purchase.
type PurchaseApply struct {
	UserID int64
	Item   *models.ShopItem
	Boost  *models.ActiveBoost
}

// RewardRepository executes the multi-row atomic units of the rewards
// engine. Each method is one database transaction: a failure anywhere leaves
// the prior state intact.
type RewardRepository interface {
	ApplyClaim(ctx context.Context, apply ClaimApply) error
	ApplyBoxOutcome(ctx context.Context, apply BoxApply) error
	ApplyPurchase(ctx context.Context, apply PurchaseApply) error
}

type rewardRepository struct {
	db  *bun.DB
	txm *utils.EconomicTransactionManager
}

func NewRewardRepository(db *bun.DB, txm *utils.EconomicTransactionManager) RewardRepository {
	return &rewardRepository{db: db, txm: txm}
}

func (r *rewardRepository) ApplyClaim(ctx context.Context, apply ClaimApply) error {
	return r.txm.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// The IS NOT NULL guard makes a racing double-claim lose here
		// instead of paying twice.
		result, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("lifetime_points = lifetime_points + ?", apply.Points).
			Set("season_points = season_points + ?", apply.Points).
			Set("mining_session_started_at = NULL").
			Set("mining_session_earning_rate = 0").
			Set("mining_session_total_points = ?", apply.Points).
			Set("last_mining_at = ?", apply.ClaimedAt).
			Set("total_mines = total_mines + 1").
			Set("current_streak = ?", apply.CurrentStreak).
			Set("max_streak = ?", apply.MaxStreak).
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND mining_session_started_at IS NOT NULL", apply.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to apply claim: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return ErrSessionMissing
		}

		return r.txm.AppendLedger(ctx, tx, &models.Transaction{
			UserID:      apply.UserID,
			Amount:      apply.Points,
			Type:        models.TransactionTypeMining,
			Description: apply.Description,
		})
	})
}

func (r *rewardRepository) ApplyBoxOutcome(ctx context.Context, apply BoxApply) error {
	return r.txm.WithTransaction(ctx, utils.SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		if err := r.txm.SpendPoints(ctx, tx, utils.PointOperationOptions{
			UserID: apply.UserID,
			Amount: apply.Cost,
		}); err != nil {
			if errors.Is(err, utils.ErrInsufficientBalance) {
				return ErrInsufficientPoints
			}
			return err
		}

		if err := r.txm.AppendLedger(ctx, tx, &models.Transaction{
			UserID:      apply.UserID,
			Amount:      -apply.Cost,
			Type:        models.TransactionTypeMysteryBox,
			Description: "Mystery box cost",
		}); err != nil {
			return err
		}

		if apply.PrizePoints > 0 {
			if err := r.txm.AddPoints(ctx, tx, utils.PointOperationOptions{
				UserID: apply.UserID,
				Amount: apply.PrizePoints,
			}); err != nil {
				return err
			}
			if err := r.txm.AppendLedger(ctx, tx, &models.Transaction{
				UserID:      apply.UserID,
				Amount:      apply.PrizePoints,
				Type:        models.TransactionTypeMysteryBox,
				Description: fmt.Sprintf("Mystery box prize (%s)", apply.Opening.PrizeType),
			}); err != nil {
				return err
			}
		}

		if apply.Boost != nil {
			apply.Boost.CreatedAt = time.Now()
			if _, err := tx.NewInsert().Model(apply.Boost).Exec(ctx); err != nil {
				return fmt.Errorf("failed to grant boost: %w", err)
			}
		}

		if apply.BadgeID != "" {
			award := &models.UserBadge{
				UserID:   apply.UserID,
				BadgeID:  apply.BadgeID,
				EarnedAt: time.Now(),
			}
			if _, err := tx.NewInsert().
				Model(award).
				On("CONFLICT (user_id, badge_id) DO NOTHING").
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to grant badge: %w", err)
			}
		}

		apply.Opening.CreatedAt = time.Now()
		if _, err := tx.NewInsert().Model(apply.Opening).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record opening: %w", err)
		}

		return nil
	})
}

func (r *rewardRepository) ApplyPurchase(ctx context.Context, apply PurchaseApply) error {
	return r.txm.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := r.txm.SpendPoints(ctx, tx, utils.PointOperationOptions{
			UserID: apply.UserID,
			Amount: apply.Item.Price,
		}); err != nil {
			if errors.Is(err, utils.ErrInsufficientBalance) {
				return ErrInsufficientPoints
			}
			return err
		}

		if apply.Item.Cosmetic() {
			owned := &models.UserItem{
				UserID:     apply.UserID,
				ItemID:     apply.Item.ID,
				ObtainedAt: time.Now(),
			}
			if _, err := tx.NewInsert().
				Model(owned).
				On("CONFLICT (user_id, item_id) DO NOTHING").
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to grant item: %w", err)
			}
		}

		if apply.Boost != nil {
			apply.Boost.CreatedAt = time.Now()
			if _, err := tx.NewInsert().Model(apply.Boost).Exec(ctx); err != nil {
				return fmt.Errorf("failed to activate boost: %w", err)
			}
		}

		return r.txm.AppendLedger(ctx, tx, &models.Transaction{
			UserID:      apply.UserID,
			Amount:      -apply.Item.Price,
			Type:        models.TransactionTypePurchase,
			Description: fmt.Sprintf("Shop purchase: %s", apply.Item.Name),
		})
	})
}
