package progression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

type memBadges struct {
	owned map[int64]map[string]bool
}

func newMemBadges() *memBadges {
	return &memBadges{owned: make(map[int64]map[string]bool)}
}

func (m *memBadges) GetAll(ctx context.Context) ([]*models.Badge, error) { return nil, nil }

func (m *memBadges) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	return &models.Badge{ID: badgeID, Name: badgeID}, nil
}

func (m *memBadges) GetUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	return nil, nil
}

func (m *memBadges) GetUserBadgeIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	owned := make(map[string]bool, len(m.owned[userID]))
	for id := range m.owned[userID] {
		owned[id] = true
	}
	return owned, nil
}

func (m *memBadges) Award(ctx context.Context, userID int64, badgeID string, earnedValue float64) (bool, error) {
	if m.owned[userID] == nil {
		m.owned[userID] = make(map[string]bool)
	}
	if m.owned[userID][badgeID] {
		return false, nil
	}
	m.owned[userID][badgeID] = true
	return true, nil
}

func badgeIDs(badges []*models.Badge) []string {
	ids := make([]string, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

func TestEvaluateAndAward(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstClaimAwardsFirstMine", func(t *testing.T) {
		e := NewEvaluator(newMemBadges())
		user := &models.User{ID: 1, TotalMines: 1, LifetimePoints: 72}

		awarded, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{models.BadgeFirstMine}, badgeIDs(awarded))
	})

	t.Run("Idempotent", func(t *testing.T) {
		e := NewEvaluator(newMemBadges())
		user := &models.User{ID: 1, TotalMines: 1}

		first, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.Len(t, first, 1)

		second, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("MultipleThresholdsAtOnce", func(t *testing.T) {
		// A migrated veteran crossing several thresholds in one claim
		// collects every qualifying badge in a single pass.
		e := NewEvaluator(newMemBadges())
		user := &models.User{
			ID:             7,
			TotalMines:     300,
			MaxStreak:      31,
			LifetimePoints: 120_000,
		}

		awarded, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			models.BadgeFirstMine,
			models.BadgeVeteranMiner,
			models.BadgeMiningMachine,
			models.BadgeStreakWeek,
			models.BadgeStreakMonth,
			models.BadgePoints1K,
			models.BadgePoints10K,
			models.BadgePoints100K,
		}, badgeIDs(awarded))
	})

	t.Run("OwnershipBadges", func(t *testing.T) {
		e := NewEvaluator(newMemBadges())
		user := &models.User{
			ID: 2,
			NFTCache: models.NFTCache{
				MinerTier:    "Gold",
				MinerTokenID: "341",
				HasPass:      true,
				MemeCount:    5,
			},
		}

		awarded, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			models.BadgeMinerHolder,
			models.BadgePassHolder,
			models.BadgeMemeCollector,
		}, badgeIDs(awarded))
	})

	t.Run("MemeCollectorNeedsFive", func(t *testing.T) {
		e := NewEvaluator(newMemBadges())
		user := &models.User{ID: 3, NFTCache: models.NFTCache{MemeCount: 4}}

		awarded, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, awarded)
	})

	t.Run("LuckyRollerNeverRuleAwarded", func(t *testing.T) {
		// The lucky badge comes only from the mystery box.
		e := NewEvaluator(newMemBadges())
		user := &models.User{
			ID:             4,
			TotalMines:     1_000,
			MaxStreak:      100,
			LifetimePoints: 1_000_000,
			NFTCache: models.NFTCache{
				MinerTokenID: "1",
				HasPass:      true,
				MemeCount:    50,
			},
		}

		awarded, err := e.EvaluateAndAward(ctx, user)
		require.NoError(t, err)
		assert.NotContains(t, badgeIDs(awarded), models.BadgeLuckyRoller)
	})
}
