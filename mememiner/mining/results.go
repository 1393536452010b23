package mining

import (
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

// Code discriminates the outcome of a rewards-engine operation. Every
// business-rule rejection is a Code, not an error; errors are reserved for
// datastore and upstream failures.
type Code string

const (
	CodeOK                          Code = "OK"
	CodeUserNotFound                Code = "USER_NOT_FOUND"
	CodeSessionActive               Code = "SESSION_ACTIVE"
	CodeNoActiveSession             Code = "NO_ACTIVE_SESSION"
	CodeSessionCompletePendingClaim Code = "SESSION_COMPLETE_PENDING_CLAIM"
	CodeMinPointsNotReached         Code = "MIN_POINTS_NOT_REACHED"
	CodeCooldown                    Code = "COOLDOWN"
	CodeInsufficientPoints          Code = "INSUFFICIENT_POINTS"
	CodeLevelRequired               Code = "LEVEL_REQUIRED"
	CodeAlreadyOwned                Code = "ALREADY_OWNED"
	CodeBoostActive                 Code = "BOOST_ACTIVE"
)

// RateBreakdown reports every bonus component separately so callers can
// verify (and render) the formula piece by piece.
type RateBreakdown struct {
	Tier            Tier    `json:"tier"`
	BaseRate        float64 `json:"base_rate"`
	Level           Level   `json:"level"`
	LevelBonus      float64 `json:"level_bonus"`
	StreakBonus     float64 `json:"streak_bonus"`
	BoostMultiplier float64 `json:"boost_multiplier"`
	EventMultiplier float64 `json:"event_multiplier"`
	EventName       string  `json:"event_name,omitempty"`
	Rate            float64 `json:"rate"`
}

type StartResult struct {
	Code              Code          `json:"code"`
	StartedAt         time.Time     `json:"started_at,omitempty"`
	Breakdown         RateBreakdown `json:"breakdown,omitempty"`
	CooldownRemaining time.Duration `json:"cooldown_remaining,omitempty"`
}

type StatusResult struct {
	Code          Code          `json:"code"`
	Active        bool          `json:"active"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	Rate          float64       `json:"rate"`
	Elapsed       time.Duration `json:"elapsed"`
	AccruedPoints float64       `json:"accrued_points"`
	Complete      bool          `json:"complete"`
	Progress      float64       `json:"progress"` // 0..1 of session duration
	MinClaim      float64       `json:"min_claim"`
	CanClaim      bool          `json:"can_claim"`
}

type ClaimResult struct {
	Code           Code            `json:"code"`
	Points         float64         `json:"points,omitempty"`
	CurrentPoints  float64         `json:"current_points,omitempty"`  // set on MIN_POINTS_NOT_REACHED
	RequiredPoints float64         `json:"required_points,omitempty"` // set on MIN_POINTS_NOT_REACHED
	CurrentStreak  int             `json:"current_streak,omitempty"`
	MaxStreak      int             `json:"max_streak,omitempty"`
	TotalMines     int             `json:"total_mines,omitempty"`
	NewBadges      []*models.Badge `json:"new_badges,omitempty"`
}
