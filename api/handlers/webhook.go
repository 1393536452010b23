package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/models"
	"github.com/memeplaza/meme-mining-server/api/utils"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// NFTTransferWebhook force-refreshes ownership facts for both sides of a
// transfer. The active session of either wallet keeps its frozen rate; the
// new facts apply from their next session.
func (a *App) NFTTransferWebhook(c *fiber.Ctx) error {
	var event models.TransferWebhook
	if err := c.BodyParser(&event); err != nil {
		return utils.SendBadRequest(c, "invalid webhook body", nil)
	}

	refreshed := 0
	for _, wallet := range []string{event.From, event.To} {
		if !utils.ValidWallet(wallet) {
			continue
		}
		if err := a.Ownership.RefreshWallet(c.UserContext(), wallet); err != nil {
			// The cache TTL picks the change up later regardless.
			logger.LogError("Webhook ownership refresh failed", err,
				"wallet", wallet, "contract", event.Contract)
			continue
		}
		refreshed++
	}

	return utils.SendSuccess(c, fiber.Map{"refreshed": refreshed}, "transfer processed")
}
