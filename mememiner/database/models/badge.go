package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Badge is a static badge definition, seeded at schema init.
type Badge struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	Icon        string    `bun:"icon"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserBadge is one awarded badge. The composite key makes awarding
// idempotent: inserting the same pair twice is a no-op.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID      int64     `bun:"user_id,pk"`
	BadgeID     string    `bun:"badge_id,pk"`
	EarnedValue float64   `bun:"earned_value,notnull,default:0"`
	EarnedAt    time.Time `bun:"earned_at,notnull,default:current_timestamp"`

	Badge *Badge `bun:"rel:has-one,join:badge_id=id"`
}

// Badge IDs referenced by the progression rules and the mystery box.
const (
	BadgeFirstMine     = "first_mine"
	BadgeVeteranMiner  = "veteran_miner"
	BadgeMiningMachine = "mining_machine"
	BadgeStreakWeek    = "streak_week"
	BadgeStreakMonth   = "streak_month"
	BadgePoints1K      = "points_1k"
	BadgePoints10K     = "points_10k"
	BadgePoints100K    = "points_100k"
	BadgeMinerHolder   = "miner_holder"
	BadgePassHolder    = "pass_holder"
	BadgeMemeCollector = "meme_collector"
	BadgeLuckyRoller   = "lucky_roller"
)
