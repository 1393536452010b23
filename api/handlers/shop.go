package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/models"
	"github.com/memeplaza/meme-mining-server/api/utils"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/shop"
)

// ListShopItems returns the catalog, optionally fuzzy-filtered by q.
func (a *App) ListShopItems(c *fiber.Ctx) error {
	items, err := a.Shop.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		logger.LogError("Shop catalog lookup failed", err)
		return utils.SendInternalServerError(c, "failed to load shop items")
	}
	return utils.SendSuccess(c, items, "shop items")
}

// PurchaseItem buys a catalog item for the wallet.
func (a *App) PurchaseItem(c *fiber.Ctx) error {
	var req models.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "invalid request body", nil)
	}
	if !utils.ValidWallet(req.Wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}
	if req.ItemID == "" {
		return utils.SendBadRequest(c, "item_id is required", nil)
	}

	result, err := a.Shop.Purchase(c.UserContext(), req.Wallet, req.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return utils.SendNotFound(c, "shop item not found")
		}
		logger.LogError("Shop purchase failed", err,
			"wallet", req.Wallet, "item", req.ItemID)
		return utils.SendInternalServerError(c, "failed to complete purchase")
	}

	return utils.SendResult(c, result.Code, result, "purchase complete")
}

// EquipItem equips (or with an empty item_id, unequips) a cosmetic slot.
func (a *App) EquipItem(c *fiber.Ctx) error {
	var req models.EquipRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "invalid request body", nil)
	}
	if !utils.ValidWallet(req.Wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	if err := a.Shop.Equip(c.UserContext(), req.Wallet, req.Slot, req.ItemID); err != nil {
		switch {
		case errors.Is(err, shop.ErrInvalidSlot):
			return utils.SendBadRequest(c, "invalid cosmetic slot", nil)
		case errors.Is(err, repositories.ErrUserNotFound):
			return utils.SendNotFound(c, "wallet has no miner profile")
		case errors.Is(err, repositories.ErrItemNotFound):
			return utils.SendNotFound(c, "shop item not found")
		case errors.Is(err, shop.ErrNotOwned):
			return utils.SendError(c, fiber.StatusConflict, "NOT_OWNED",
				"cosmetic is not owned", nil)
		default:
			logger.LogError("Equip failed", err,
				"wallet", req.Wallet, "item", req.ItemID)
			return utils.SendInternalServerError(c, "failed to equip item")
		}
	}

	return utils.SendSuccess(c, nil, "cosmetic equipped")
}
