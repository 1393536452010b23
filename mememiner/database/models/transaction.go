package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Transaction is one row of the append-only point ledger. Rows are never
// updated or deleted.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	Amount      float64   `bun:"amount,notnull"`
	Type        string    `bun:"type,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

const (
	TransactionTypeMining     = "mining"
	TransactionTypePurchase   = "purchase"
	TransactionTypeReferral   = "referral"
	TransactionTypeMysteryBox = "mystery_box"
)
