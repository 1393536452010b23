package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/utils"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// StartMining begins a mining session for the wallet.
func (a *App) StartMining(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	result, err := a.Sessions.Start(c.UserContext(), wallet)
	if err != nil {
		logger.LogError("Mining start failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to start mining session")
	}

	return utils.SendResult(c, result.Code, result, "mining session started")
}

// MiningStatus reports the wallet's current session progress.
func (a *App) MiningStatus(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	result, err := a.Sessions.Status(c.UserContext(), wallet)
	if err != nil {
		logger.LogError("Mining status failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to load session status")
	}

	return utils.SendResult(c, result.Code, result, "session status")
}

// ClaimMining settles the wallet's active session.
func (a *App) ClaimMining(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	result, err := a.Sessions.Claim(c.UserContext(), wallet)
	if err != nil {
		logger.LogError("Mining claim failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to claim mining session")
	}

	return utils.SendResult(c, result.Code, result, "mining rewards claimed")
}
