package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

type EventRepository interface {
	GetActiveEvent(ctx context.Context, now time.Time) (*models.SpecialEvent, error)
	ListActive(ctx context.Context, now time.Time) ([]*models.SpecialEvent, error)
	Create(ctx context.Context, event *models.SpecialEvent) error
}

type eventRepository struct {
	db *bun.DB
}

func NewEventRepository(db *bun.DB) EventRepository {
	return &eventRepository{db: db}
}

// GetActiveEvent returns the highest-multiplier event currently inside its
// window, or nil when none is running.
func (r *eventRepository) GetActiveEvent(ctx context.Context, now time.Time) (*models.SpecialEvent, error) {
	event := new(models.SpecialEvent)
	err := r.db.NewSelect().
		Model(event).
		Where("is_active = true AND start_date <= ? AND end_date > ?", now, now).
		Order("multiplier DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) ListActive(ctx context.Context, now time.Time) ([]*models.SpecialEvent, error) {
	var events []*models.SpecialEvent
	err := r.db.NewSelect().
		Model(&events).
		Where("is_active = true AND start_date <= ? AND end_date > ?", now, now).
		Order("multiplier DESC").
		Scan(ctx)
	return events, err
}

func (r *eventRepository) Create(ctx context.Context, event *models.SpecialEvent) error {
	event.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(event).Exec(ctx)
	return err
}
