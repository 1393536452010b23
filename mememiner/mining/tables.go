package mining

import "time"

// Session and cache timing. These values are part of the observable
// contract with the frontend.
const (
	SessionDuration = 4 * time.Hour
	ClaimCooldown   = 10 * time.Minute
	NFTCacheTTL     = 5 * time.Minute
	StreakBonusStep = 0.01 // +1% rate per consecutive day
	StreakBonusCap  = 0.25
)

// Tier is the miner-NFT tier. Wallets without a miner NFT mine at the Free
// tier; mining never requires owning anything.
type Tier string

const (
	TierFree     Tier = "Free"
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

// Base earning rate in points per second, frozen into the session at start.
var tierBaseRates = map[Tier]float64{
	TierFree:     0.01,
	TierBronze:   0.02,
	TierSilver:   0.035,
	TierGold:     0.05,
	TierPlatinum: 0.075,
	TierDiamond:  0.1,
}

// Minimum accrued points before a claim is accepted, per tier.
var tierMinClaim = map[Tier]float64{
	TierFree:     10,
	TierBronze:   20,
	TierSilver:   35,
	TierGold:     50,
	TierPlatinum: 75,
	TierDiamond:  100,
}

// ParseTier maps a cached tier string onto a known tier, defaulting to Free
// for anything unrecognized (including the empty cache of a new wallet).
func ParseTier(s string) Tier {
	t := Tier(s)
	if _, ok := tierBaseRates[t]; !ok {
		return TierFree
	}
	return t
}

// BaseRate returns the points-per-second base rate for a tier.
func BaseRate(t Tier) float64 {
	return tierBaseRates[t]
}

// MinClaimPoints returns the tier's claim threshold.
func MinClaimPoints(t Tier) float64 {
	return tierMinClaim[t]
}

// Level is the lifetime-points progression tier, independent of NFT
// ownership.
type Level string

const (
	LevelBronze   Level = "Bronze"
	LevelSilver   Level = "Silver"
	LevelGold     Level = "Gold"
	LevelPlatinum Level = "Platinum"
	LevelDiamond  Level = "Diamond"
	LevelLegend   Level = "Legend"
)

type levelStep struct {
	level     Level
	threshold float64
	bonus     float64 // additive rate bonus, e.g. 0.10 = +10%
}

// Ordered ascending; LevelForPoints walks it with a monotonic comparison.
var levelSteps = []levelStep{
	{LevelBronze, 0, 0},
	{LevelSilver, 1_000, 0.05},
	{LevelGold, 5_000, 0.10},
	{LevelPlatinum, 15_000, 0.15},
	{LevelDiamond, 50_000, 0.20},
	{LevelLegend, 150_000, 0.30},
}

// LevelForPoints returns the level a lifetime-point total qualifies for.
func LevelForPoints(lifetimePoints float64) Level {
	level := LevelBronze
	for _, step := range levelSteps {
		if lifetimePoints >= step.threshold {
			level = step.level
		}
	}
	return level
}

// LevelBonus returns the additive rate bonus for a level.
func LevelBonus(level Level) float64 {
	for _, step := range levelSteps {
		if step.level == level {
			return step.bonus
		}
	}
	return 0
}

// LevelAtLeast reports whether level meets the minimum in the progression
// ordering.
func LevelAtLeast(level, min Level) bool {
	return levelIndex(level) >= levelIndex(min)
}

func levelIndex(level Level) int {
	for i, step := range levelSteps {
		if step.level == level {
			return i
		}
	}
	return 0
}
