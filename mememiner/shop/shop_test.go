package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

type fakeUsers struct {
	repositories.UserRepository
	user     *models.User
	equipped map[string]string
}

func (f *fakeUsers) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if f.user == nil {
		return nil, repositories.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUsers) UpdateEquipped(ctx context.Context, userID int64, slot string, itemID string) error {
	if f.equipped == nil {
		f.equipped = make(map[string]string)
	}
	f.equipped[slot] = itemID
	return nil
}

type fakeCatalog struct {
	repositories.ShopRepository
	items map[string]*models.ShopItem
	owned map[string]bool
}

func (f *fakeCatalog) GetItem(ctx context.Context, itemID string) (*models.ShopItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, repositories.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeCatalog) ListItems(ctx context.Context) ([]*models.ShopItem, error) {
	var items []*models.ShopItem
	for _, item := range f.items {
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeCatalog) HasItem(ctx context.Context, userID int64, itemID string) (bool, error) {
	return f.owned[itemID], nil
}

type fakeBoosts struct {
	repositories.BoostRepository
	active bool
}

func (f *fakeBoosts) HasActiveMultiplier(ctx context.Context, userID int64) (bool, error) {
	return f.active, nil
}

type fakeReward struct {
	repositories.RewardRepository
	applied []repositories.PurchaseApply
	err     error
}

func (f *fakeReward) ApplyPurchase(ctx context.Context, apply repositories.PurchaseApply) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, apply)
	return nil
}

const testWallet = "0x00000000000000000000000000000000000000cc"

var (
	goldFrame = &models.ShopItem{
		ID:    "frame_gold",
		Name:  "Gold Frame",
		Type:  models.ItemTypeFrame,
		Price: 300,
	}
	boost15 = &models.ShopItem{
		ID:            "boost_1_5x",
		Name:          "1.5x Mining Boost",
		Type:          models.ItemTypeBoost,
		Price:         450,
		EffectType:    models.EffectTypeMiningMultiplier,
		EffectValue:   1.5,
		DurationHours: 24,
	}
)

func newTestShop(user *models.User, catalog *fakeCatalog, boosts *fakeBoosts, reward *fakeReward) (*Service, *fakeUsers) {
	users := &fakeUsers{user: user}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &Service{
		users:  users,
		shop:   catalog,
		boosts: boosts,
		reward: reward,
		now:    func() time.Time { return now },
	}
	return svc, users
}

func richUser() *models.User {
	return &models.User{ID: 1, Wallet: testWallet, LifetimePoints: 10_000}
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("CosmeticPurchase", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{goldFrame.ID: goldFrame}}
		reward := &fakeReward{}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, reward)

		result, err := svc.Purchase(ctx, testWallet, goldFrame.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeOK, result.Code)
		assert.InDelta(t, 300, result.Spent, 1e-9)

		require.Len(t, reward.applied, 1)
		assert.Nil(t, reward.applied[0].Boost)
	})

	t.Run("DuplicateCosmeticRejected", func(t *testing.T) {
		catalog := &fakeCatalog{
			items: map[string]*models.ShopItem{goldFrame.ID: goldFrame},
			owned: map[string]bool{goldFrame.ID: true},
		}
		reward := &fakeReward{}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, reward)

		result, err := svc.Purchase(ctx, testWallet, goldFrame.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeAlreadyOwned, result.Code)
		assert.Empty(t, reward.applied)
	})

	t.Run("BoostPurchaseSetsExpiry", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{boost15.ID: boost15}}
		reward := &fakeReward{}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, reward)

		result, err := svc.Purchase(ctx, testWallet, boost15.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeOK, result.Code)

		require.Len(t, reward.applied, 1)
		boost := reward.applied[0].Boost
		require.NotNil(t, boost)
		assert.InDelta(t, 1.5, boost.EffectValue, 1e-9)
		require.NotNil(t, boost.ExpiresAt)
		assert.Equal(t, 24*time.Hour, boost.ExpiresAt.Sub(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("SecondBoostRejectedWhileActive", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{boost15.ID: boost15}}
		reward := &fakeReward{}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{active: true}, reward)

		result, err := svc.Purchase(ctx, testWallet, boost15.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeBoostActive, result.Code)
		assert.Empty(t, reward.applied)
	})

	t.Run("InsufficientPoints", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{goldFrame.ID: goldFrame}}
		user := richUser()
		user.SpentPoints = 9_900 // available 100 < 300
		svc, _ := newTestShop(user, catalog, &fakeBoosts{}, &fakeReward{})

		result, err := svc.Purchase(ctx, testWallet, goldFrame.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeInsufficientPoints, result.Code)
		assert.InDelta(t, goldFrame.Price, result.RequiredPoints, 1e-9)
		assert.InDelta(t, 100, result.AvailablePoints, 1e-9)
	})

	t.Run("SpendRaceSurfacesAsRejection", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{goldFrame.ID: goldFrame}}
		reward := &fakeReward{err: repositories.ErrInsufficientPoints}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, reward)

		result, err := svc.Purchase(ctx, testWallet, goldFrame.ID)
		require.NoError(t, err)
		assert.Equal(t, mining.CodeInsufficientPoints, result.Code)
		assert.InDelta(t, goldFrame.Price, result.RequiredPoints, 1e-9)
	})

	t.Run("StorageFailurePropagates", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{goldFrame.ID: goldFrame}}
		reward := &fakeReward{err: errors.New("connection reset")}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, reward)

		result, err := svc.Purchase(ctx, testWallet, goldFrame.ID)
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("UnknownItem", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{}}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

		_, err := svc.Purchase(ctx, testWallet, "no_such_item")
		assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	})
}

func TestEquip(t *testing.T) {
	ctx := context.Background()

	t.Run("EquipOwnedCosmetic", func(t *testing.T) {
		catalog := &fakeCatalog{
			items: map[string]*models.ShopItem{goldFrame.ID: goldFrame},
			owned: map[string]bool{goldFrame.ID: true},
		}
		svc, users := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

		err := svc.Equip(ctx, testWallet, SlotFrame, goldFrame.ID)
		require.NoError(t, err)
		assert.Equal(t, goldFrame.ID, users.equipped[SlotFrame])
	})

	t.Run("UnequipSlot", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{}}
		svc, users := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

		err := svc.Equip(ctx, testWallet, SlotFrame, "")
		require.NoError(t, err)
		assert.Equal(t, "", users.equipped[SlotFrame])
	})

	t.Run("NotOwnedRejected", func(t *testing.T) {
		catalog := &fakeCatalog{items: map[string]*models.ShopItem{goldFrame.ID: goldFrame}}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

		err := svc.Equip(ctx, testWallet, SlotFrame, goldFrame.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("SlotMismatchRejected", func(t *testing.T) {
		catalog := &fakeCatalog{
			items: map[string]*models.ShopItem{goldFrame.ID: goldFrame},
			owned: map[string]bool{goldFrame.ID: true},
		}
		svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

		err := svc.Equip(ctx, testWallet, SlotNameColor, goldFrame.ID)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{items: map[string]*models.ShopItem{
		goldFrame.ID: goldFrame,
		boost15.ID:   boost15,
	}}
	svc, _ := newTestShop(richUser(), catalog, &fakeBoosts{}, &fakeReward{})

	t.Run("EmptyQueryReturnsAll", func(t *testing.T) {
		items, err := svc.Search(ctx, "  ")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("FuzzyMatch", func(t *testing.T) {
		items, err := svc.Search(ctx, "gold frm")
		require.NoError(t, err)
		require.NotEmpty(t, items)
		assert.Equal(t, goldFrame.ID, items[0].ID)
	})
}
