package mysterybox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

type fakeUsers struct {
	repositories.UserRepository
	user *models.User
}

func (f *fakeUsers) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if f.user == nil {
		return nil, repositories.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

type fakeBadges struct {
	repositories.BadgeRepository
	owned map[string]bool
}

func (f *fakeBadges) GetUserBadgeIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	return f.owned, nil
}

func (f *fakeBadges) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	return &models.Badge{ID: badgeID, Name: badgeID}, nil
}

type fakeReward struct {
	repositories.RewardRepository
	applied []repositories.BoxApply
	err     error
}

func (f *fakeReward) ApplyBoxOutcome(ctx context.Context, apply repositories.BoxApply) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, apply)
	return nil
}

const testWallet = "0x00000000000000000000000000000000000000bb"

func goldUser() *models.User {
	return &models.User{
		ID:             1,
		Wallet:         testWallet,
		LifetimePoints: 6_000, // Gold level
	}
}

// sequenceRoll feeds a fixed series of die values, then repeats the last.
func sequenceRoll(values ...int) func() int {
	i := 0
	return func() int {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

func newTestRoller(user *models.User, owned map[string]bool, reward *fakeReward, rolls ...int) *Roller {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Roller{
		users:  &fakeUsers{user: user},
		badges: &fakeBadges{owned: owned},
		reward: reward,
		roll:   sequenceRoll(rolls...),
		now:    func() time.Time { return now },
	}
}

func TestPrizeForRoll(t *testing.T) {
	tests := []struct {
		roll int
		want string
	}{
		{1, PrizePointsSmall},
		{40, PrizePointsSmall},
		{41, PrizeBoost},
		{65, PrizeBoost},
		{66, PrizePointsMedium},
		{80, PrizePointsMedium},
		{81, PrizeLuckyBadge},
		{90, PrizeLuckyBadge},
		{91, PrizeJackpot},
		{97, PrizeJackpot},
		{98, PrizeMegaJackpot},
		{100, PrizeMegaJackpot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, prizeForRoll(tt.roll).prizeType, "roll=%d", tt.roll)
	}
}

func TestOpenGates(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownWallet", func(t *testing.T) {
		roller := newTestRoller(nil, nil, &fakeReward{}, 1)
		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeUserNotFound, result.Code)
	})

	t.Run("BelowGoldLevel", func(t *testing.T) {
		user := goldUser()
		user.LifetimePoints = 4_999
		reward := &fakeReward{}

		roller := newTestRoller(user, nil, reward, 1)
		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeLevelRequired, result.Code)
		assert.Equal(t, mining.LevelGold, result.RequiredLevel)
		assert.Equal(t, mining.LevelSilver, result.CurrentLevel)
		assert.Empty(t, reward.applied)
	})

	t.Run("InsufficientAvailablePoints", func(t *testing.T) {
		user := goldUser()
		user.SpentPoints = 5_600 // available 400 < 500
		reward := &fakeReward{}

		roller := newTestRoller(user, nil, reward, 1)
		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeInsufficientPoints, result.Code)
		assert.InDelta(t, BoxCost, result.RequiredPoints, 1e-9)
		assert.InDelta(t, 400, result.AvailablePoints, 1e-9)
		assert.Empty(t, reward.applied)
	})

	t.Run("BalanceRaceSurfacesAsRejection", func(t *testing.T) {
		reward := &fakeReward{err: repositories.ErrInsufficientPoints}
		roller := newTestRoller(goldUser(), nil, reward, 1)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeInsufficientPoints, result.Code)
		assert.InDelta(t, BoxCost, result.RequiredPoints, 1e-9)
	})

	t.Run("StorageFailurePropagates", func(t *testing.T) {
		reward := &fakeReward{err: errors.New("connection reset")}
		roller := newTestRoller(goldUser(), nil, reward, 1)

		result, err := roller.Open(ctx, testWallet)
		require.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestOpenPrizes(t *testing.T) {
	ctx := context.Background()

	t.Run("SmallPointsPrize", func(t *testing.T) {
		reward := &fakeReward{}
		roller := newTestRoller(goldUser(), nil, reward, 1, 1, 1)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeOK, result.Code)
		assert.Equal(t, PrizePointsSmall, result.PrizeType)
		assert.InDelta(t, 50, result.PointsWon, 1e-9) // lowest draw

		require.Len(t, reward.applied, 1)
		apply := reward.applied[0]
		assert.InDelta(t, BoxCost, apply.Cost, 1e-9)
		assert.InDelta(t, 50, apply.PrizePoints, 1e-9)
		assert.Equal(t, 1, apply.Opening.Roll)
	})

	t.Run("BoostPrize", func(t *testing.T) {
		reward := &fakeReward{}
		roller := newTestRoller(goldUser(), nil, reward, 41)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, PrizeBoost, result.PrizeType)
		require.NotNil(t, result.Boost)
		assert.Equal(t, models.EffectTypeMiningMultiplier, result.Boost.EffectType)
		assert.InDelta(t, 1.5, result.Boost.EffectValue, 1e-9)
		require.NotNil(t, result.Boost.ExpiresAt)

		require.Len(t, reward.applied, 1)
		assert.Zero(t, reward.applied[0].PrizePoints)
		assert.NotNil(t, reward.applied[0].Boost)
	})

	t.Run("LuckyBadgeFirstTime", func(t *testing.T) {
		reward := &fakeReward{}
		roller := newTestRoller(goldUser(), nil, reward, 85)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, PrizeLuckyBadge, result.PrizeType)
		require.NotNil(t, result.Badge)
		assert.Equal(t, models.BadgeLuckyRoller, result.Badge.ID)
		assert.Zero(t, result.PointsWon)

		require.Len(t, reward.applied, 1)
		assert.Equal(t, models.BadgeLuckyRoller, reward.applied[0].BadgeID)
	})

	t.Run("LuckyBadgeDuplicateConverts", func(t *testing.T) {
		owned := map[string]bool{models.BadgeLuckyRoller: true}
		reward := &fakeReward{}
		roller := newTestRoller(goldUser(), owned, reward, 85)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Nil(t, result.Badge)
		assert.InDelta(t, LuckyOwnedPts, result.PointsWon, 1e-9)

		require.Len(t, reward.applied, 1)
		assert.Empty(t, reward.applied[0].BadgeID)
		assert.InDelta(t, LuckyOwnedPts, reward.applied[0].PrizePoints, 1e-9)
	})

	t.Run("JackpotsStayInRange", func(t *testing.T) {
		for _, roll := range []int{91, 98} {
			reward := &fakeReward{}
			roller := newTestRoller(goldUser(), nil, reward, roll, 73, 19)

			result, err := roller.Open(ctx, testWallet)
			require.NoError(t, err)

			spec := prizeForRoll(roll)
			assert.GreaterOrEqual(t, result.PointsWon, spec.minPoints)
			assert.LessOrEqual(t, result.PointsWon, spec.maxPoints)
		}
	})

	t.Run("HighDrawsAreRedrawn", func(t *testing.T) {
		// The mega range spans 3001 values; the 92,1 pair composes to
		// 9100, past the largest fair multiple of the span, so the die
		// rolls again and the 1,1 pair lands on the minimum.
		reward := &fakeReward{}
		roller := newTestRoller(goldUser(), nil, reward, 98, 92, 1, 1, 1)

		result, err := roller.Open(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, PrizeMegaJackpot, result.PrizeType)
		assert.InDelta(t, 2_000, result.PointsWon, 1e-9)
	})
}
