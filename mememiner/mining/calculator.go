package mining

import (
	"math"
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

// ComputeRate is the pure accrual formula:
//
//	rate = base(tier) * (1 + levelBonus + streakBonus) * boost * event
//
// It never touches storage; callers pass the user's current boosts and the
// main active event. One-shot boosts are excluded: they mutate points
// directly, never the rate.
func ComputeRate(user *models.User, boosts []*models.ActiveBoost, event *models.SpecialEvent, now time.Time) RateBreakdown {
	tier := ParseTier(user.NFTCache.MinerTier)
	level := LevelForPoints(user.LifetimePoints)

	breakdown := RateBreakdown{
		Tier:            tier,
		BaseRate:        BaseRate(tier),
		Level:           level,
		LevelBonus:      LevelBonus(level),
		StreakBonus:     StreakBonus(user.CurrentStreak),
		BoostMultiplier: highestMultiplier(boosts, now),
		EventMultiplier: 1,
	}

	if event != nil && event.Running(now) {
		breakdown.EventMultiplier = event.Multiplier
		breakdown.EventName = event.Name
	}

	breakdown.Rate = breakdown.BaseRate *
		(1 + breakdown.LevelBonus + breakdown.StreakBonus) *
		breakdown.BoostMultiplier *
		breakdown.EventMultiplier

	return breakdown
}

// StreakBonus scales with consecutive mining days and is capped so streaks
// cannot grow the rate without bound.
func StreakBonus(streak int) float64 {
	bonus := float64(streak) * StreakBonusStep
	if bonus > StreakBonusCap {
		bonus = StreakBonusCap
	}
	return bonus
}

// highestMultiplier picks the single best active mining multiplier. The
// purchase path disallows stacking, but a mystery-box grant can slip past
// that check, so more than one may exist here.
func highestMultiplier(boosts []*models.ActiveBoost, now time.Time) float64 {
	multiplier := 1.0
	for _, b := range boosts {
		if !b.IsActive || b.EffectType != models.EffectTypeMiningMultiplier {
			continue
		}
		if b.Expired(now) || b.ExpiresAt == nil {
			continue
		}
		if b.EffectValue > multiplier {
			multiplier = b.EffectValue
		}
	}
	return multiplier
}

// AccruedPoints derives the session's earnings at a point in time. Accrual
// is a pure function of the frozen rate and elapsed time, capped at the
// session duration; nothing ticks in the background.
func AccruedPoints(startedAt time.Time, rate float64, now time.Time) (points float64, elapsed time.Duration, complete bool) {
	elapsed = now.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	capped := elapsed
	if capped > SessionDuration {
		capped = SessionDuration
		complete = true
	}
	points = FloorPoints(capped.Seconds() * rate)
	return points, elapsed, complete
}

// FloorPoints floors to two decimal places. Persisted amounts always pass
// through here so repeated float arithmetic cannot drift balances upward.
func FloorPoints(v float64) float64 {
	return math.Floor(v*100) / 100
}
