package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memeplaza/meme-mining-server/api/models"
	dbmodels "github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/nft"
)

const testWallet = "0x00000000000000000000000000000000000000aa"

const memeContract = "0xmeme"

type fakeUserRepo struct {
	repositories.UserRepository
	user    *dbmodels.User
	updated *dbmodels.User
}

func (f *fakeUserRepo) GetByWallet(ctx context.Context, wallet string) (*dbmodels.User, error) {
	if f.user == nil || f.user.Wallet != wallet {
		return nil, repositories.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *dbmodels.User) error {
	f.updated = user
	return nil
}

type fakeIndexer struct {
	assets map[string][]nft.Asset
}

func (f *fakeIndexer) ListWalletAssets(ctx context.Context, wallet, contract string) ([]nft.Asset, error) {
	return f.assets[contract], nil
}

func (f *fakeIndexer) GetTierTrait(ctx context.Context, contract, identifier string) (string, error) {
	return "", nil
}

func newAvatarApp(users *fakeUserRepo, indexer *fakeIndexer) *fiber.App {
	a := &App{
		Repos:     &repositories.Repositories{User: users},
		Ownership: nft.NewOwnershipService(indexer, users, nft.Contracts{Meme: memeContract}),
	}
	app := fiber.New()
	app.Post("/api/v1/users/avatar", a.SetAvatar)
	return app
}

func postAvatar(t *testing.T, app *fiber.App, req models.AvatarRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/users/avatar", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(httpReq)
	require.NoError(t, err)
	return resp
}

func TestSetAvatar(t *testing.T) {
	t.Run("OwnedTokenBecomesAvatar", func(t *testing.T) {
		users := &fakeUserRepo{user: &dbmodels.User{ID: 1, Wallet: testWallet}}
		indexer := &fakeIndexer{assets: map[string][]nft.Asset{
			memeContract: {{Identifier: "42"}},
		}}
		app := newAvatarApp(users, indexer)

		resp := postAvatar(t, app, models.AvatarRequest{
			Wallet:   testWallet,
			Type:     dbmodels.AvatarTypeNFT,
			Contract: memeContract,
			TokenID:  "42",
			ImageURL: "https://img.example/42.png",
			Auto:     true,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, users.updated)
		assert.Equal(t, dbmodels.AvatarTypeNFT, users.updated.AvatarType)
		assert.True(t, users.updated.AvatarAutoMode)
		assert.Equal(t, memeContract, users.updated.AvatarNFTContract)
		assert.Equal(t, "42", users.updated.AvatarNFTTokenID)
		assert.Equal(t, "https://img.example/42.png", users.updated.AvatarNFTURL)
	})

	t.Run("UnownedTokenRejected", func(t *testing.T) {
		users := &fakeUserRepo{user: &dbmodels.User{ID: 1, Wallet: testWallet}}
		indexer := &fakeIndexer{assets: map[string][]nft.Asset{
			memeContract: {{Identifier: "42"}},
		}}
		app := newAvatarApp(users, indexer)

		resp := postAvatar(t, app, models.AvatarRequest{
			Wallet:   testWallet,
			Type:     dbmodels.AvatarTypeNFT,
			Contract: memeContract,
			TokenID:  "99",
			ImageURL: "https://img.example/99.png",
		})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Nil(t, users.updated)
	})

	t.Run("ResetToDefaultClearsNFTFields", func(t *testing.T) {
		users := &fakeUserRepo{user: &dbmodels.User{
			ID:                1,
			Wallet:            testWallet,
			AvatarType:        dbmodels.AvatarTypeNFT,
			AvatarNFTContract: memeContract,
			AvatarNFTTokenID:  "42",
			AvatarNFTURL:      "https://img.example/42.png",
			AvatarAutoMode:    true,
		}}
		app := newAvatarApp(users, &fakeIndexer{})

		resp := postAvatar(t, app, models.AvatarRequest{
			Wallet: testWallet,
			Type:   dbmodels.AvatarTypeDefault,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, users.updated)
		assert.Equal(t, dbmodels.AvatarTypeDefault, users.updated.AvatarType)
		assert.Empty(t, users.updated.AvatarNFTContract)
		assert.Empty(t, users.updated.AvatarNFTTokenID)
		assert.Empty(t, users.updated.AvatarNFTURL)
		assert.False(t, users.updated.AvatarAutoMode)
	})

	t.Run("MissingNFTFieldsRejected", func(t *testing.T) {
		users := &fakeUserRepo{user: &dbmodels.User{ID: 1, Wallet: testWallet}}
		app := newAvatarApp(users, &fakeIndexer{})

		resp := postAvatar(t, app, models.AvatarRequest{
			Wallet: testWallet,
			Type:   dbmodels.AvatarTypeNFT,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownWallet", func(t *testing.T) {
		app := newAvatarApp(&fakeUserRepo{}, &fakeIndexer{})

		resp := postAvatar(t, app, models.AvatarRequest{
			Wallet: testWallet,
			Type:   dbmodels.AvatarTypeDefault,
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
