package repositories

import (
	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/economy/utils"
)

// Repositories bundles every repository for dependency injection into the
// services and the API layer.
type Repositories struct {
	User        UserRepository
	Transaction TransactionRepository
	Badge       BadgeRepository
	Boost       BoostRepository
	Event       EventRepository
	Shop        ShopRepository
	Reward      RewardRepository
}

func NewRepositories(db *bun.DB) *Repositories {
	txm := utils.NewEconomicTransactionManager(db)
	return &Repositories{
		User:        NewUserRepository(db),
		Transaction: NewTransactionRepository(db),
		Badge:       NewBadgeRepository(db),
		Boost:       NewBoostRepository(db),
		Event:       NewEventRepository(db),
		Shop:        NewShopRepository(db),
		Reward:      NewRewardRepository(db, txm),
	}
}
