package nft

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

const testWallet = "0x00000000000000000000000000000000000000dd"

var testContracts = Contracts{Miner: "0xminer", Pass: "0xpass", Meme: "0xmeme"}

type fakeIndexer struct {
	assets map[string][]Asset // contract -> assets
	tiers  map[string]string  // tokenID -> tier
	fail   map[string]bool    // contract -> error
	calls  atomic.Int32
}

func (f *fakeIndexer) ListWalletAssets(ctx context.Context, wallet, contract string) ([]Asset, error) {
	f.calls.Add(1)
	if f.fail[contract] {
		return nil, errors.New("indexer unavailable")
	}
	return f.assets[contract], nil
}

func (f *fakeIndexer) GetTierTrait(ctx context.Context, contract, identifier string) (string, error) {
	if f.fail[contract] {
		return "", errors.New("indexer unavailable")
	}
	return f.tiers[identifier], nil
}

type fakeUsers struct {
	repositories.UserRepository
	user      *models.User
	persisted *models.NFTCache
}

func (f *fakeUsers) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if f.user == nil {
		return nil, repositories.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUsers) UpdateNFTCache(ctx context.Context, userID int64, cache models.NFTCache) error {
	f.persisted = &cache
	return nil
}

func newTestService(indexer Indexer, users repositories.UserRepository, now time.Time) *OwnershipService {
	memo, _ := lru.New(16)
	return &OwnershipService{
		indexer:   indexer,
		users:     users,
		contracts: testContracts,
		memo:      memo,
		sem:       semaphore.NewWeighted(maxConcurrentRefreshes),
		ttl:       mining.NFTCacheTTL,
		now:       func() time.Time { return now },
	}
}

func TestEnsureFresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("FreshCacheSkipsFetch", func(t *testing.T) {
		indexer := &fakeIndexer{}
		user := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Minute)}}
		svc := newTestService(indexer, &fakeUsers{user: user}, now)

		require.NoError(t, svc.EnsureFresh(ctx, user, false))
		assert.Zero(t, indexer.calls.Load())
	})

	t.Run("StaleCacheRefetches", func(t *testing.T) {
		indexer := &fakeIndexer{
			assets: map[string][]Asset{
				testContracts.Miner: {{Identifier: "341"}},
				testContracts.Pass:  {{Identifier: "9"}},
				testContracts.Meme:  {{Identifier: "1"}, {Identifier: "2"}, {Identifier: "3"}},
			},
			tiers: map[string]string{"341": "Gold"},
		}
		users := &fakeUsers{user: &models.User{ID: 1, Wallet: testWallet}}
		user := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Hour)}}
		svc := newTestService(indexer, users, now)

		require.NoError(t, svc.EnsureFresh(ctx, user, false))
		assert.Equal(t, "Gold", user.NFTCache.MinerTier)
		assert.Equal(t, "341", user.NFTCache.MinerTokenID)
		assert.True(t, user.NFTCache.HasPass)
		assert.Equal(t, 3, user.NFTCache.MemeCount)
		assert.Equal(t, now, user.NFTCache.CheckedAt)

		require.NotNil(t, users.persisted)
		assert.Equal(t, "Gold", users.persisted.MinerTier)
	})

	t.Run("PartialFailureKeepsPreviousFacet", func(t *testing.T) {
		indexer := &fakeIndexer{
			assets: map[string][]Asset{
				testContracts.Pass: {{Identifier: "9"}},
			},
			fail: map[string]bool{testContracts.Miner: true},
		}
		users := &fakeUsers{user: &models.User{ID: 1, Wallet: testWallet}}
		user := &models.User{ID: 1, Wallet: testWallet, NFTCache: models.NFTCache{
			MinerTier:    "Silver",
			MinerTokenID: "77",
			CheckedAt:    now.Add(-time.Hour),
		}}
		svc := newTestService(indexer, users, now)

		require.NoError(t, svc.EnsureFresh(ctx, user, false))
		assert.Equal(t, "Silver", user.NFTCache.MinerTier)
		assert.Equal(t, "77", user.NFTCache.MinerTokenID)
		assert.True(t, user.NFTCache.HasPass)
		assert.Zero(t, user.NFTCache.MemeCount)
	})

	t.Run("TotalFailureErrors", func(t *testing.T) {
		indexer := &fakeIndexer{fail: map[string]bool{
			testContracts.Miner: true,
			testContracts.Pass:  true,
			testContracts.Meme:  true,
		}}
		user := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Hour)}}
		svc := newTestService(indexer, &fakeUsers{user: user}, now)

		assert.Error(t, svc.EnsureFresh(ctx, user, false))
	})

	t.Run("ForceBypassesTTL", func(t *testing.T) {
		indexer := &fakeIndexer{assets: map[string][]Asset{}}
		users := &fakeUsers{user: &models.User{ID: 1, Wallet: testWallet}}
		user := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Second)}}
		svc := newTestService(indexer, users, now)

		require.NoError(t, svc.EnsureFresh(ctx, user, true))
		assert.Equal(t, int32(3), indexer.calls.Load())
	})

	t.Run("MemoServesBurst", func(t *testing.T) {
		indexer := &fakeIndexer{assets: map[string][]Asset{
			testContracts.Meme: {{Identifier: "1"}},
		}}
		users := &fakeUsers{user: &models.User{ID: 1, Wallet: testWallet}}
		svc := newTestService(indexer, users, now)

		first := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Hour)}}
		require.NoError(t, svc.EnsureFresh(ctx, first, false))
		callsAfterFirst := indexer.calls.Load()

		// A second request with a stale row reuses the in-process memo.
		second := &models.User{ID: 1, Wallet: testWallet,
			NFTCache: models.NFTCache{CheckedAt: now.Add(-time.Hour)}}
		require.NoError(t, svc.EnsureFresh(ctx, second, false))
		assert.Equal(t, callsAfterFirst, indexer.calls.Load())
		assert.Equal(t, 1, second.NFTCache.MemeCount)
	})
}

func TestRefreshWallet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("UnknownWalletIsNoop", func(t *testing.T) {
		indexer := &fakeIndexer{}
		svc := newTestService(indexer, &fakeUsers{}, now)
		require.NoError(t, svc.RefreshWallet(ctx, testWallet))
		assert.Zero(t, indexer.calls.Load())
	})
}

func TestOwnsToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	indexer := &fakeIndexer{
		assets: map[string][]Asset{
			testContracts.Meme: {{Identifier: "42"}, {Identifier: "77"}},
		},
		fail: map[string]bool{},
	}
	svc := newTestService(indexer, &fakeUsers{}, now)

	t.Run("HeldToken", func(t *testing.T) {
		owns, err := svc.OwnsToken(ctx, testWallet, testContracts.Meme, "77")
		require.NoError(t, err)
		assert.True(t, owns)
	})

	t.Run("MissingToken", func(t *testing.T) {
		owns, err := svc.OwnsToken(ctx, testWallet, testContracts.Meme, "78")
		require.NoError(t, err)
		assert.False(t, owns)
	})

	t.Run("IndexerError", func(t *testing.T) {
		indexer.fail[testContracts.Meme] = true
		defer delete(indexer.fail, testContracts.Meme)

		_, err := svc.OwnsToken(ctx, testWallet, testContracts.Meme, "77")
		assert.Error(t, err)
	})
}

func TestClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		switch {
		case strings.Contains(r.URL.Path, "/account/"):
			w.Write([]byte(`{"nfts":[{"identifier":"341","contract":"0xminer","name":"Meme Miner #341"}]}`))
		case strings.Contains(r.URL.Path, "/contract/"):
			w.Write([]byte(`{"nft":{"traits":[{"trait_type":"Background","value":"Moon"},{"trait_type":"Tier","value":"Platinum"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	ctx := context.Background()

	t.Run("ListWalletAssets", func(t *testing.T) {
		assets, err := client.ListWalletAssets(ctx, testWallet, "0xminer")
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "341", assets[0].Identifier)
	})

	t.Run("GetTierTrait", func(t *testing.T) {
		tier, err := client.GetTierTrait(ctx, "0xminer", "341")
		require.NoError(t, err)
		assert.Equal(t, "Platinum", tier)
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer bad.Close()

		_, err := NewClient(bad.URL, "test-key").ListWalletAssets(ctx, testWallet, "0xminer")
		assert.Error(t, err)
	})
}
