package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SpecialEvent is an admin-scheduled multiplier window. Overlapping events
// are allowed; the accrual path takes the highest multiplier among the ones
// currently inside their window.
type SpecialEvent struct {
	bun.BaseModel `bun:"table:special_events,alias:se"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Multiplier  float64   `bun:"multiplier,notnull,default:1"`
	Icon        string    `bun:"icon"`
	Description string    `bun:"description"`
	StartDate   time.Time `bun:"start_date,notnull"`
	EndDate     time.Time `bun:"end_date,notnull"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Running reports whether the event window covers now and the event has not
// been switched off.
func (e *SpecialEvent) Running(now time.Time) bool {
	return e.IsActive && !now.Before(e.StartDate) && now.Before(e.EndDate)
}
