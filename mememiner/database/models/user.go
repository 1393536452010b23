package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the mining record for a single wallet. The wallet address is the
// identity and is stored lowercase; AvailablePoints is always derived, never
// stored.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Wallet string `bun:"wallet,notnull,unique"`

	// Point counters. Lifetime and season only grow; spent only grows and
	// must never exceed lifetime.
	LifetimePoints float64 `bun:"lifetime_points,notnull,default:0"`
	SeasonPoints   float64 `bun:"season_points,notnull,default:0"`
	SpentPoints    float64 `bun:"spent_points,notnull,default:0"`

	// Streaks
	CurrentStreak int `bun:"current_streak,notnull,default:0"`
	MaxStreak     int `bun:"max_streak,notnull,default:0"`
	TotalMines    int `bun:"total_mines,notnull,default:0"`

	// Active session. StartedAt nil means no session; the earning rate is
	// frozen at session start.
	MiningSessionStartedAt   *time.Time `bun:"mining_session_started_at"`
	MiningSessionEarningRate float64    `bun:"mining_session_earning_rate,notnull,default:0"`
	MiningSessionTotalPoints float64    `bun:"mining_session_total_points,notnull,default:0"`
	LastMiningAt             *time.Time `bun:"last_mining_at"`

	// Denormalized NFT ownership facts with their own staleness timestamp.
	NFTCache NFTCache `bun:"nft_cache,type:jsonb"`

	// Equipped cosmetics
	EquippedFrame     string `bun:"equipped_frame"`
	EquippedNameColor string `bun:"equipped_name_color"`
	EquippedBadge     string `bun:"equipped_badge"`

	// Avatar
	AvatarType        string `bun:"avatar_type"`
	AvatarNFTContract string `bun:"avatar_nft_contract"`
	AvatarNFTTokenID  string `bun:"avatar_nft_token_id"`
	AvatarNFTURL      string `bun:"avatar_nft_url"`
	AvatarAutoMode    bool   `bun:"avatar_auto_mode,notnull,default:false"`

	// Referrals
	ReferralCode string     `bun:"referral_code"`
	ReferredBy   string     `bun:"referred_by"`
	ReferredAt   *time.Time `bun:"referred_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// NFTCache carries the ownership facts the mining engine needs, refreshed
// from the indexing API when CheckedAt is older than the staleness window.
type NFTCache struct {
	MinerTier    string    `json:"miner_tier"`
	MinerTokenID string    `json:"miner_token_id"`
	MemeCount    int       `json:"meme_count"`
	HasPass      bool      `json:"has_pass"`
	CheckedAt    time.Time `json:"checked_at"`
}

// AvailablePoints is the spendable balance.
func (u *User) AvailablePoints() float64 {
	return u.LifetimePoints - u.SpentPoints
}

// HasActiveSession reports whether a mining session is currently running.
func (u *User) HasActiveSession() bool {
	return u.MiningSessionStartedAt != nil
}

const (
	AvatarTypeDefault = "default"
	AvatarTypeNFT     = "nft"
)
