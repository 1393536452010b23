package progression

import (
	"context"
	"fmt"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// rule decides whether a user qualifies for one badge and reports the stat
// value that earned it. Rules only ever look at the user record; badges that
// depend on external events (the lucky roll) are awarded at their source.
type rule struct {
	badgeID string
	qualify func(u *models.User) (earnedValue float64, ok bool)
}

func countRule(badgeID string, threshold int, stat func(u *models.User) int) rule {
	return rule{badgeID, func(u *models.User) (float64, bool) {
		v := stat(u)
		return float64(v), v >= threshold
	}}
}

func pointsRule(badgeID string, threshold float64) rule {
	return rule{badgeID, func(u *models.User) (float64, bool) {
		return u.LifetimePoints, u.LifetimePoints >= threshold
	}}
}

var rules = []rule{
	countRule(models.BadgeFirstMine, 1, func(u *models.User) int { return u.TotalMines }),
	countRule(models.BadgeVeteranMiner, 50, func(u *models.User) int { return u.TotalMines }),
	countRule(models.BadgeMiningMachine, 250, func(u *models.User) int { return u.TotalMines }),
	countRule(models.BadgeStreakWeek, 7, func(u *models.User) int { return u.MaxStreak }),
	countRule(models.BadgeStreakMonth, 30, func(u *models.User) int { return u.MaxStreak }),
	pointsRule(models.BadgePoints1K, 1_000),
	pointsRule(models.BadgePoints10K, 10_000),
	pointsRule(models.BadgePoints100K, 100_000),
	{models.BadgeMinerHolder, func(u *models.User) (float64, bool) {
		return 1, u.NFTCache.MinerTokenID != ""
	}},
	{models.BadgePassHolder, func(u *models.User) (float64, bool) {
		return 1, u.NFTCache.HasPass
	}},
	{models.BadgeMemeCollector, func(u *models.User) (float64, bool) {
		return float64(u.NFTCache.MemeCount), u.NFTCache.MemeCount >= 5
	}},
}

// Evaluator runs the badge rule set against a user's current stats. Awards
// are idempotent at the storage layer, so re-running the whole set after
// every claim is safe and is the intended usage.
type Evaluator struct {
	badges repositories.BadgeRepository
}

func NewEvaluator(badges repositories.BadgeRepository) *Evaluator {
	return &Evaluator{badges: badges}
}

// EvaluateAndAward checks every rule and returns only the badges this call
// newly awarded, in rule order.
func (e *Evaluator) EvaluateAndAward(ctx context.Context, user *models.User) ([]*models.Badge, error) {
	owned, err := e.badges.GetUserBadgeIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned badges: %w", err)
	}

	var awarded []*models.Badge
	for _, r := range rules {
		if owned[r.badgeID] {
			continue
		}
		value, ok := r.qualify(user)
		if !ok {
			continue
		}

		created, err := e.badges.Award(ctx, user.ID, r.badgeID, value)
		if err != nil {
			return awarded, fmt.Errorf("failed to award badge %s: %w", r.badgeID, err)
		}
		if !created {
			// Another request awarded it between the read and the
			// insert. Not ours to report.
			continue
		}

		badge, err := e.badges.GetByID(ctx, r.badgeID)
		if err != nil {
			return awarded, fmt.Errorf("failed to load badge %s: %w", r.badgeID, err)
		}
		awarded = append(awarded, badge)

		logger.LogMining("Badge awarded", user.Wallet,
			"badge", r.badgeID,
			"earned_value", value)
	}

	return awarded, nil
}
