package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

// ErrItemNotFound is returned when a catalog lookup misses.
var ErrItemNotFound = errors.New("shop item not found")

type ShopRepository interface {
	GetItem(ctx context.Context, itemID string) (*models.ShopItem, error)
	ListItems(ctx context.Context) ([]*models.ShopItem, error)
	GetUserItems(ctx context.Context, userID int64) ([]*models.UserItem, error)
	HasItem(ctx context.Context, userID int64, itemID string) (bool, error)
}

type shopRepository struct {
	db *bun.DB
}

func NewShopRepository(db *bun.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) GetItem(ctx context.Context, itemID string) (*models.ShopItem, error) {
	item := new(models.ShopItem)
	err := r.db.NewSelect().
		Model(item).
		Where("id = ?", itemID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *shopRepository) ListItems(ctx context.Context) ([]*models.ShopItem, error) {
	var items []*models.ShopItem
	err := r.db.NewSelect().
		Model(&items).
		Order("price ASC").
		Scan(ctx)
	return items, err
}

func (r *shopRepository) GetUserItems(ctx context.Context, userID int64) ([]*models.UserItem, error) {
	var items []*models.UserItem
	err := r.db.NewSelect().
		Model(&items).
		Relation("Item").
		Where("ui.user_id = ?", userID).
		Order("ui.obtained_at ASC").
		Scan(ctx)
	return items, err
}

func (r *shopRepository) HasItem(ctx context.Context, userID int64, itemID string) (bool, error) {
	return r.db.NewSelect().
		Model((*models.UserItem)(nil)).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Exists(ctx)
}
