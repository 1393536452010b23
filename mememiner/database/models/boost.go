package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ActiveBoost is a rate multiplier or one-shot effect attached to a user.
// A nil ExpiresAt marks a one-time effect (consumed on grant) rather than a
// timed multiplier.
type ActiveBoost struct {
	bun.BaseModel `bun:"table:active_boosts,alias:ab"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      int64      `bun:"user_id,notnull"`
	ItemID      string     `bun:"item_id,notnull"`
	EffectType  string     `bun:"effect_type,notnull"`
	EffectValue float64    `bun:"effect_value,notnull"`
	ExpiresAt   *time.Time `bun:"expires_at"`
	IsActive    bool       `bun:"is_active,notnull,default:true"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

const EffectTypeMiningMultiplier = "mining_multiplier"

// Expired reports whether a timed boost has run out. One-shot boosts never
// expire by time.
func (b *ActiveBoost) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}
