package models

import (
	"time"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewSuccessResponse creates a successful API response
func NewSuccessResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse creates an error API response
func NewErrorResponse(code, message string, details map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// ProfileResponse is the public view of a user record.
type ProfileResponse struct {
	Wallet          string     `json:"wallet"`
	LifetimePoints  float64    `json:"lifetime_points"`
	SeasonPoints    float64    `json:"season_points"`
	AvailablePoints float64    `json:"available_points"`
	Level           string     `json:"level"`
	Tier            string     `json:"tier"`
	CurrentStreak   int        `json:"current_streak"`
	MaxStreak       int        `json:"max_streak"`
	TotalMines      int        `json:"total_mines"`
	LastMiningAt    *time.Time `json:"last_mining_at,omitempty"`
	EquippedFrame   string     `json:"equipped_frame,omitempty"`
	EquippedColor   string     `json:"equipped_color,omitempty"`
	EquippedBadge   string     `json:"equipped_badge,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	Wallet         string  `json:"wallet"`
	LifetimePoints float64 `json:"lifetime_points"`
	SeasonPoints   float64 `json:"season_points"`
	Level          string  `json:"level"`
	CurrentStreak  int     `json:"current_streak"`
	EquippedFrame  string  `json:"equipped_frame,omitempty"`
	EquippedColor  string  `json:"equipped_color,omitempty"`
}

// PurchaseRequest is the body of a shop purchase call.
type PurchaseRequest struct {
	Wallet string `json:"wallet"`
	ItemID string `json:"item_id"`
}

// EquipRequest is the body of a cosmetic equip call.
type EquipRequest struct {
	Wallet string `json:"wallet"`
	Slot   string `json:"slot"`
	ItemID string `json:"item_id"`
}

// AvatarRequest is the body of an avatar update call. Type selects between
// the default avatar and an owned NFT; the NFT fields are required only for
// type "nft".
type AvatarRequest struct {
	Wallet   string `json:"wallet"`
	Type     string `json:"type"`
	Contract string `json:"contract,omitempty"`
	TokenID  string `json:"token_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Auto     bool   `json:"auto,omitempty"`
}

// TransferWebhook is the body pushed by the chain indexer on NFT transfers.
type TransferWebhook struct {
	Contract string `json:"contract"`
	From     string `json:"from"`
	To       string `json:"to"`
	TokenID  string `json:"token_id"`
}
