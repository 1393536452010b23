package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ShopItem is a purchasable catalog entry: either a cosmetic (frame, name
// color, badge cosmetic) or a boost. Boost items carry the effect fields.
type ShopItem struct {
	bun.BaseModel `bun:"table:shop_items,alias:si"`

	ID          string  `bun:"id,pk"`
	Name        string  `bun:"name,notnull"`
	Description string  `bun:"description"`
	Icon        string  `bun:"icon"`
	Type        string  `bun:"type,notnull"`
	Price       float64 `bun:"price,notnull"`

	// Boost items only
	EffectType    string  `bun:"effect_type"`
	EffectValue   float64 `bun:"effect_value,notnull,default:0"`
	DurationHours int     `bun:"duration_hours,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// UserItem is an owned cosmetic. Boosts are not owned items; purchasing a
// boost creates an ActiveBoost row instead.
type UserItem struct {
	bun.BaseModel `bun:"table:user_items,alias:ui"`

	UserID     int64     `bun:"user_id,pk"`
	ItemID     string    `bun:"item_id,pk"`
	ObtainedAt time.Time `bun:"obtained_at,notnull,default:current_timestamp"`

	Item *ShopItem `bun:"rel:has-one,join:item_id=id"`
}

const (
	ItemTypeFrame     = "frame"
	ItemTypeNameColor = "name_color"
	ItemTypeBadge     = "badge"
	ItemTypeBoost     = "boost"
)

// Cosmetic reports whether the item is equippable rather than consumable.
func (i *ShopItem) Cosmetic() bool {
	return i.Type != ItemTypeBoost
}
