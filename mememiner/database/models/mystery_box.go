package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MysteryBoxOpening is the audit row for one box roll.
type MysteryBoxOpening struct {
	bun.BaseModel `bun:"table:mystery_box_openings,alias:mbo"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	Roll      int       `bun:"roll,notnull"`
	PrizeType string    `bun:"prize_type,notnull"`
	PointsWon float64   `bun:"points_won,notnull,default:0"`
	ItemID    string    `bun:"item_id"`
	BadgeID   string    `bun:"badge_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
