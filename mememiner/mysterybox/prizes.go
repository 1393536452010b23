package mysterybox

import (
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

// Box pricing and gating.
const (
	BoxCost       = 500.0
	MinLevel      = mining.LevelGold
	LuckyOwnedPts = 750.0 // consolation when the lucky badge is already owned
)

// Prize type identifiers, stored on the opening audit row.
const (
	PrizePointsSmall  = "points_small"
	PrizeBoost        = "boost"
	PrizePointsMedium = "points_medium"
	PrizeLuckyBadge   = "lucky_badge"
	PrizeJackpot      = "jackpot"
	PrizeMegaJackpot  = "mega_jackpot"
)

// prizeSpec maps a cumulative roll ceiling onto a prize. The table is
// ordered ascending and the last maxRoll covers the top of the die, so a
// lookup can never miss.
type prizeSpec struct {
	maxRoll   int
	prizeType string
	minPoints float64 // inclusive point range for point prizes
	maxPoints float64
}

var prizeTable = []prizeSpec{
	{40, PrizePointsSmall, 50, 150},
	{65, PrizeBoost, 0, 0},
	{80, PrizePointsMedium, 200, 400},
	{90, PrizeLuckyBadge, 0, 0},
	{97, PrizeJackpot, 500, 1_000},
	{100, PrizeMegaJackpot, 2_000, 5_000},
}

// prizeForRoll maps a die roll in [1,100] onto its prize spec.
func prizeForRoll(roll int) prizeSpec {
	for _, spec := range prizeTable {
		if roll <= spec.maxRoll {
			return spec
		}
	}
	return prizeTable[len(prizeTable)-1]
}

// Boost prize: timed mining multiplier.
const (
	boostItemID     = "mystery_boost"
	boostMultiplier = 1.5
	boostDuration   = 12 * time.Hour
)

func boostPrize(userID int64, now time.Time) *models.ActiveBoost {
	expires := now.Add(boostDuration)
	return &models.ActiveBoost{
		UserID:      userID,
		ItemID:      boostItemID,
		EffectType:  models.EffectTypeMiningMultiplier,
		EffectValue: boostMultiplier,
		ExpiresAt:   &expires,
		IsActive:    true,
	}
}
