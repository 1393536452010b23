package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/utils"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// OpenMysteryBox charges the wallet and rolls one box.
func (a *App) OpenMysteryBox(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	result, err := a.Boxes.Open(c.UserContext(), wallet)
	if err != nil {
		logger.LogError("Mystery box open failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to open mystery box")
	}

	return utils.SendResult(c, result.Code, result, "mystery box opened")
}
