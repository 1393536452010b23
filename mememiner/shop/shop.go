package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

// Equippable slots. One item of each slot can be equipped at a time.
const (
	SlotFrame     = "frame"
	SlotNameColor = "name_color"
	SlotBadge     = "badge"
)

var (
	ErrInvalidSlot = errors.New("invalid cosmetic slot")
	ErrNotOwned    = errors.New("cosmetic not owned")
)

// PurchaseResult reports the outcome of one purchase attempt.
type PurchaseResult struct {
	Code            mining.Code      `json:"code"`
	Item            *models.ShopItem `json:"item,omitempty"`
	Spent           float64          `json:"spent,omitempty"`
	RequiredPoints  float64          `json:"required_points,omitempty"`
	AvailablePoints float64          `json:"available_points,omitempty"`
}

// Service is the cosmetics and boost storefront.
type Service struct {
	users  repositories.UserRepository
	shop   repositories.ShopRepository
	boosts repositories.BoostRepository
	reward repositories.RewardRepository
	now    func() time.Time
}

func NewService(repos *repositories.Repositories) *Service {
	return &Service{
		users:  repos.User,
		shop:   repos.Shop,
		boosts: repos.Boost,
		reward: repos.Reward,
		now:    time.Now,
	}
}

// Catalog lists every purchasable item, cheapest first.
func (s *Service) Catalog(ctx context.Context) ([]*models.ShopItem, error) {
	return s.shop.ListItems(ctx)
}

// Purchase buys an item for the wallet. Cosmetics can be owned once; a
// second multiplier boost is rejected while one is running.
func (s *Service) Purchase(ctx context.Context, wallet, itemID string) (*PurchaseResult, error) {
	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return &PurchaseResult{Code: mining.CodeUserNotFound}, nil
		}
		return nil, err
	}

	item, err := s.shop.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.Cosmetic() {
		owned, err := s.shop.HasItem(ctx, user.ID, item.ID)
		if err != nil {
			return nil, err
		}
		if owned {
			return &PurchaseResult{Code: mining.CodeAlreadyOwned, Item: item}, nil
		}
	} else if item.EffectType == models.EffectTypeMiningMultiplier {
		running, err := s.boosts.HasActiveMultiplier(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if running {
			return &PurchaseResult{Code: mining.CodeBoostActive, Item: item}, nil
		}
	}

	if user.AvailablePoints() < item.Price {
		return &PurchaseResult{
			Code:            mining.CodeInsufficientPoints,
			Item:            item,
			RequiredPoints:  item.Price,
			AvailablePoints: user.AvailablePoints(),
		}, nil
	}

	apply := repositories.PurchaseApply{UserID: user.ID, Item: item}
	if !item.Cosmetic() {
		apply.Boost = s.boostFromItem(user.ID, item)
	}

	if err := s.reward.ApplyPurchase(ctx, apply); err != nil {
		if errors.Is(err, repositories.ErrInsufficientPoints) {
			return &PurchaseResult{
				Code:            mining.CodeInsufficientPoints,
				Item:            item,
				RequiredPoints:  item.Price,
				AvailablePoints: user.AvailablePoints(),
			}, nil
		}
		return nil, err
	}

	logger.LogMining("Shop purchase", wallet,
		"item", item.ID,
		"price", item.Price)

	return &PurchaseResult{Code: mining.CodeOK, Item: item, Spent: item.Price}, nil
}

func (s *Service) boostFromItem(userID int64, item *models.ShopItem) *models.ActiveBoost {
	boost := &models.ActiveBoost{
		UserID:      userID,
		ItemID:      item.ID,
		EffectType:  item.EffectType,
		EffectValue: item.EffectValue,
		IsActive:    true,
	}
	if item.DurationHours > 0 {
		expires := s.now().Add(time.Duration(item.DurationHours) * time.Hour)
		boost.ExpiresAt = &expires
	}
	return boost
}

// Equip sets an owned cosmetic into its slot. Passing an empty itemID
// unequips the slot.
func (s *Service) Equip(ctx context.Context, wallet, slot, itemID string) error {
	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}

	if itemID != "" {
		item, err := s.shop.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if slotOf(item) != slot {
			return ErrInvalidSlot
		}
		owned, err := s.shop.HasItem(ctx, user.ID, itemID)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("%w: %s", ErrNotOwned, itemID)
		}
	}

	switch slot {
	case SlotFrame, SlotNameColor, SlotBadge:
		return s.users.UpdateEquipped(ctx, user.ID, slot, itemID)
	default:
		return ErrInvalidSlot
	}
}

func slotOf(item *models.ShopItem) string {
	switch item.Type {
	case models.ItemTypeFrame:
		return SlotFrame
	case models.ItemTypeNameColor:
		return SlotNameColor
	case models.ItemTypeBadge:
		return SlotBadge
	default:
		return ""
	}
}

// Search fuzzy-matches the catalog by name and description, best match
// first. An empty query returns the full catalog.
func (s *Service) Search(ctx context.Context, query string) ([]*models.ShopItem, error) {
	items, err := s.shop.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return items, nil
	}

	haystack := make([]string, len(items))
	for i, item := range items {
		haystack[i] = item.Name + " " + item.Description
	}

	matches := fuzzy.Find(query, haystack)
	ranked := make([]*models.ShopItem, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, items[m.Index])
	}
	return ranked, nil
}
