package nft

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

const (
	memoCacheSize = 4096
	// Webhook bursts fan out into indexer calls; cap them.
	maxConcurrentRefreshes = 8
)

// Indexer is the slice of the chain-indexer client the adapter needs.
type Indexer interface {
	ListWalletAssets(ctx context.Context, wallet, contract string) ([]Asset, error)
	GetTierTrait(ctx context.Context, contract, identifier string) (string, error)
}

// Contracts are the three tracked collection addresses.
type Contracts struct {
	Miner string
	Pass  string
	Meme  string
}

// OwnershipService keeps the per-user NFT ownership facts fresh. Facts are
// cached on the user row with a timestamp; reads within the TTL are free,
// and transfer webhooks force a refresh through a bounded semaphore.
type OwnershipService struct {
	indexer   Indexer
	users     repositories.UserRepository
	contracts Contracts
	memo      *lru.Cache
	sem       *semaphore.Weighted
	ttl       time.Duration
	now       func() time.Time
}

type memoEntry struct {
	cache     models.NFTCache
	fetchedAt time.Time
}

func NewOwnershipService(indexer Indexer, users repositories.UserRepository, contracts Contracts) *OwnershipService {
	memo, _ := lru.New(memoCacheSize)
	return &OwnershipService{
		indexer:   indexer,
		users:     users,
		contracts: contracts,
		memo:      memo,
		sem:       semaphore.NewWeighted(maxConcurrentRefreshes),
		ttl:       mining.NFTCacheTTL,
		now:       time.Now,
	}
}

// EnsureFresh refreshes user.NFTCache when it is older than the TTL (or
// unconditionally when force is set) and persists the result. The user
// record is updated in place on success.
func (s *OwnershipService) EnsureFresh(ctx context.Context, user *models.User, force bool) error {
	now := s.now()
	if !force && now.Sub(user.NFTCache.CheckedAt) < s.ttl {
		return nil
	}

	// A burst of requests for the same wallet collapses onto the most
	// recent in-process fetch.
	if !force {
		if v, ok := s.memo.Get(user.Wallet); ok {
			entry := v.(memoEntry)
			if now.Sub(entry.fetchedAt) < s.ttl {
				user.NFTCache = entry.cache
				return nil
			}
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	cache, err := s.fetch(ctx, user.Wallet, user.NFTCache)
	if err != nil {
		return err
	}
	cache.CheckedAt = now

	if err := s.users.UpdateNFTCache(ctx, user.ID, cache); err != nil {
		return fmt.Errorf("failed to persist NFT cache: %w", err)
	}

	user.NFTCache = cache
	s.memo.Add(user.Wallet, memoEntry{cache: cache, fetchedAt: now})
	return nil
}

// RefreshWallet is the webhook entry point: force-refresh by wallet address.
func (s *OwnershipService) RefreshWallet(ctx context.Context, wallet string) error {
	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Transfers to wallets that never mined carry no state.
			return nil
		}
		return err
	}
	return s.EnsureFresh(ctx, user, true)
}

// OwnsToken asks the indexer whether the wallet currently holds one specific
// token. It skips the per-user cache: callers use it to gate explicit user
// actions such as picking an NFT avatar, where a stale answer is worse than
// an extra indexer call.
func (s *OwnershipService) OwnsToken(ctx context.Context, wallet, contract, tokenID string) (bool, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.sem.Release(1)

	assets, err := s.indexer.ListWalletAssets(ctx, wallet, contract)
	if err != nil {
		return false, err
	}
	for _, asset := range assets {
		if asset.Identifier == tokenID {
			return true, nil
		}
	}
	return false, nil
}

// fetch queries the three collections in parallel. A single collection
// failing keeps that facet's previous value rather than failing the whole
// refresh; only a fully dark indexer is an error.
func (s *OwnershipService) fetch(ctx context.Context, wallet string, prev models.NFTCache) (models.NFTCache, error) {
	next := prev
	var minerErr, passErr, memeErr error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assets, err := s.indexer.ListWalletAssets(gctx, wallet, s.contracts.Miner)
		if err != nil {
			minerErr = err
			return nil
		}
		if len(assets) == 0 {
			next.MinerTier = ""
			next.MinerTokenID = ""
			return nil
		}
		tokenID := assets[0].Identifier
		tier, err := s.indexer.GetTierTrait(gctx, s.contracts.Miner, tokenID)
		if err != nil {
			minerErr = err
			return nil
		}
		next.MinerTier = tier
		next.MinerTokenID = tokenID
		return nil
	})

	g.Go(func() error {
		assets, err := s.indexer.ListWalletAssets(gctx, wallet, s.contracts.Pass)
		if err != nil {
			passErr = err
			return nil
		}
		next.HasPass = len(assets) > 0
		return nil
	})

	g.Go(func() error {
		assets, err := s.indexer.ListWalletAssets(gctx, wallet, s.contracts.Meme)
		if err != nil {
			memeErr = err
			return nil
		}
		next.MemeCount = len(assets)
		return nil
	})

	_ = g.Wait()

	if minerErr != nil && passErr != nil && memeErr != nil {
		return prev, fmt.Errorf("ownership refresh failed for %s: %w", wallet, minerErr)
	}
	for _, err := range []error{minerErr, passErr, memeErr} {
		if err != nil {
			logger.LogError("Partial ownership refresh", err, "wallet", wallet)
		}
	}

	return next, nil
}
