package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/middleware"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
	"github.com/memeplaza/meme-mining-server/mememiner/mysterybox"
	"github.com/memeplaza/meme-mining-server/mememiner/nft"
	"github.com/memeplaza/meme-mining-server/mememiner/services"
	"github.com/memeplaza/meme-mining-server/mememiner/shop"
)

// App bundles every service the handlers depend on.
type App struct {
	Repos     *repositories.Repositories
	Sessions  *mining.SessionService
	Boxes     *mysterybox.Roller
	Shop      *shop.Service
	Ownership *nft.OwnershipService
	Spaces    *services.SpacesService
	Version   string
	Commit    string
}

// RegisterRoutes mounts the full API surface.
func (a *App) RegisterRoutes(app *fiber.App) {
	app.Get("/health", a.Health)

	v1 := app.Group("/api/v1")

	miningGroup := v1.Group("/mining",
		middleware.RateLimitMiddleware(30, time.Minute))
	miningGroup.Post("/:wallet/start", a.StartMining)
	miningGroup.Get("/:wallet/status", a.MiningStatus)
	miningGroup.Post("/:wallet/claim", a.ClaimMining)

	v1.Post("/mysterybox/:wallet/open", a.OpenMysteryBox)

	v1.Get("/users/:wallet", a.GetProfile)
	v1.Post("/users/avatar", a.SetAvatar)
	v1.Get("/users/:wallet/badges", a.GetUserBadges)
	v1.Get("/users/:wallet/transactions", a.GetUserTransactions)
	v1.Get("/leaderboard", a.GetLeaderboard)

	v1.Get("/shop/items", a.ListShopItems)
	v1.Post("/shop/purchase", a.PurchaseItem)
	v1.Post("/shop/equip", a.EquipItem)

	v1.Post("/webhooks/nft-transfer", a.NFTTransferWebhook)
}

// Health reports service liveness and build info.
func (a *App) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": a.Version,
		"commit":  a.Commit,
	})
}
