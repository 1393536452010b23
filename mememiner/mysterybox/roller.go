package mysterybox

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

// OpenResult reports one box opening. Business rejections come back as
// codes on a result with no prize fields set.
type OpenResult struct {
	Code            mining.Code         `json:"code"`
	Roll            int                 `json:"roll,omitempty"`
	PrizeType       string              `json:"prize_type,omitempty"`
	PointsWon       float64             `json:"points_won,omitempty"`
	Boost           *models.ActiveBoost `json:"boost,omitempty"`
	Badge           *models.Badge       `json:"badge,omitempty"`
	RequiredLevel   mining.Level        `json:"required_level,omitempty"`
	CurrentLevel    mining.Level        `json:"current_level,omitempty"`
	RequiredPoints  float64             `json:"required_points,omitempty"`
	AvailablePoints float64             `json:"available_points,omitempty"`
}

// Roller charges for and opens mystery boxes. The die is injectable so
// tests can hit every row of the prize table deterministically.
type Roller struct {
	users  repositories.UserRepository
	badges repositories.BadgeRepository
	reward repositories.RewardRepository
	roll   func() int // uniform in [1,100]
	now    func() time.Time
}

func NewRoller(repos *repositories.Repositories) *Roller {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Roller{
		users:  repos.User,
		badges: repos.Badge,
		reward: repos.Reward,
		roll:   func() int { return rng.Intn(100) + 1 },
		now:    time.Now,
	}
}

// Open rolls one box for the wallet. The cost deduction and the prize grant
// commit in a single transaction: the user is never charged for a prize
// they did not receive.
func (r *Roller) Open(ctx context.Context, wallet string) (*OpenResult, error) {
	user, err := r.users.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return &OpenResult{Code: mining.CodeUserNotFound}, nil
		}
		return nil, err
	}

	level := mining.LevelForPoints(user.LifetimePoints)
	if !mining.LevelAtLeast(level, MinLevel) {
		return &OpenResult{
			Code:          mining.CodeLevelRequired,
			RequiredLevel: MinLevel,
			CurrentLevel:  level,
		}, nil
	}

	if user.AvailablePoints() < BoxCost {
		return &OpenResult{
			Code:            mining.CodeInsufficientPoints,
			RequiredPoints:  BoxCost,
			AvailablePoints: user.AvailablePoints(),
		}, nil
	}

	now := r.now()
	roll := r.roll()
	spec := prizeForRoll(roll)

	apply := repositories.BoxApply{
		UserID: user.ID,
		Cost:   BoxCost,
		Opening: &models.MysteryBoxOpening{
			UserID:    user.ID,
			Roll:      roll,
			PrizeType: spec.prizeType,
		},
	}
	result := &OpenResult{
		Code:      mining.CodeOK,
		Roll:      roll,
		PrizeType: spec.prizeType,
	}

	switch spec.prizeType {
	case PrizeBoost:
		apply.Boost = boostPrize(user.ID, now)
		apply.Opening.ItemID = boostItemID
		result.Boost = apply.Boost

	case PrizeLuckyBadge:
		owned, err := r.badges.GetUserBadgeIDs(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owned badges: %w", err)
		}
		if owned[models.BadgeLuckyRoller] {
			// Duplicate badge converts to a fixed point prize.
			apply.PrizePoints = LuckyOwnedPts
			apply.Opening.PointsWon = LuckyOwnedPts
			result.PointsWon = LuckyOwnedPts
		} else {
			apply.BadgeID = models.BadgeLuckyRoller
			apply.Opening.BadgeID = models.BadgeLuckyRoller
			badge, err := r.badges.GetByID(ctx, models.BadgeLuckyRoller)
			if err != nil {
				return nil, fmt.Errorf("failed to load badge: %w", err)
			}
			result.Badge = badge
		}

	default:
		points := pointsInRange(spec, r.roll)
		apply.PrizePoints = points
		apply.Opening.PointsWon = points
		result.PointsWon = points
	}

	if err := r.reward.ApplyBoxOutcome(ctx, apply); err != nil {
		if errors.Is(err, repositories.ErrInsufficientPoints) {
			// The balance moved between the read and the spend.
			return &OpenResult{
				Code:            mining.CodeInsufficientPoints,
				RequiredPoints:  BoxCost,
				AvailablePoints: user.AvailablePoints(),
			}, nil
		}
		return nil, err
	}

	logger.LogMining("Mystery box opened", wallet,
		"roll", roll,
		"prize", spec.prizeType,
		"points_won", result.PointsWon)

	return result, nil
}

// drawSpace is the number of distinct values two composed [1,100] draws
// can produce.
const drawSpace = 100 * 100

// pointsInRange draws a uniform integer point amount from the spec's
// inclusive range, reusing the injected die for determinism in tests.
func pointsInRange(spec prizeSpec, roll func() int) float64 {
	span := int(spec.maxPoints-spec.minPoints) + 1
	if span <= 1 {
		return spec.minPoints
	}
	// Compose two [1,100] draws into enough entropy for the wider
	// jackpot ranges. Draws past the largest multiple of span are
	// redrawn so every amount in the range is equally likely.
	limit := (drawSpace / span) * span
	for {
		draw := (roll()-1)*100 + (roll() - 1)
		if draw < limit {
			return spec.minPoints + float64(draw%span)
		}
	}
}
