package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/models"
	"github.com/memeplaza/meme-mining-server/api/utils"
	dbmodels "github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// SetAvatar switches the wallet's profile avatar between the default and an
// owned NFT. NFT avatars are verified against the chain indexer and their
// image is mirrored into Spaces, so profiles never hot-link third-party
// hosts.
func (a *App) SetAvatar(c *fiber.Ctx) error {
	var req models.AvatarRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "invalid request body", nil)
	}
	if !utils.ValidWallet(req.Wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	user, err := a.Repos.User.GetByWallet(c.UserContext(), req.Wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.SendNotFound(c, "wallet has no miner profile")
		}
		logger.LogError("Avatar profile lookup failed", err, "wallet", req.Wallet)
		return utils.SendInternalServerError(c, "failed to load profile")
	}

	switch req.Type {
	case dbmodels.AvatarTypeDefault:
		return a.resetAvatar(c, user)
	case dbmodels.AvatarTypeNFT:
		return a.setNFTAvatar(c, user, req)
	default:
		return utils.SendBadRequest(c, "avatar type must be nft or default", nil)
	}
}

func (a *App) resetAvatar(c *fiber.Ctx, user *dbmodels.User) error {
	if a.Spaces != nil && user.AvatarType == dbmodels.AvatarTypeNFT {
		if err := a.Spaces.DeleteAvatar(c.UserContext(), user.Wallet); err != nil {
			// A stale mirror copy is harmless once the profile stops
			// pointing at it.
			logger.LogError("Avatar mirror cleanup failed", err, "wallet", user.Wallet)
		}
	}

	user.AvatarType = dbmodels.AvatarTypeDefault
	user.AvatarNFTContract = ""
	user.AvatarNFTTokenID = ""
	user.AvatarNFTURL = ""
	user.AvatarAutoMode = false
	if err := a.Repos.User.Update(c.UserContext(), user); err != nil {
		logger.LogError("Avatar reset failed", err, "wallet", user.Wallet)
		return utils.SendInternalServerError(c, "failed to update avatar")
	}
	return utils.SendSuccess(c, a.profileOf(user), "avatar reset")
}

func (a *App) setNFTAvatar(c *fiber.Ctx, user *dbmodels.User, req models.AvatarRequest) error {
	if req.Contract == "" || req.TokenID == "" || req.ImageURL == "" {
		return utils.SendBadRequest(c,
			"contract, token_id and image_url are required for nft avatars", nil)
	}

	owns, err := a.Ownership.OwnsToken(c.UserContext(), user.Wallet, req.Contract, req.TokenID)
	if err != nil {
		logger.LogError("Avatar ownership check failed", err, "wallet", user.Wallet)
		return utils.SendInternalServerError(c, "failed to verify token ownership")
	}
	if !owns {
		return utils.SendError(c, fiber.StatusConflict, "NOT_OWNED",
			"wallet does not hold this token", nil)
	}

	avatarURL := req.ImageURL
	if a.Spaces != nil {
		mirrored, err := a.Spaces.MirrorAvatar(c.UserContext(), user.Wallet, req.ImageURL)
		if err != nil {
			logger.LogError("Avatar mirror failed", err, "wallet", user.Wallet)
			return utils.SendInternalServerError(c, "failed to store avatar image")
		}
		avatarURL = mirrored
	}

	user.AvatarType = dbmodels.AvatarTypeNFT
	user.AvatarNFTContract = req.Contract
	user.AvatarNFTTokenID = req.TokenID
	user.AvatarNFTURL = avatarURL
	user.AvatarAutoMode = req.Auto
	if err := a.Repos.User.Update(c.UserContext(), user); err != nil {
		logger.LogError("Avatar update failed", err, "wallet", user.Wallet)
		return utils.SendInternalServerError(c, "failed to update avatar")
	}
	return utils.SendSuccess(c, a.profileOf(user), "avatar updated")
}
