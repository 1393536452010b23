package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/models"
	"github.com/memeplaza/meme-mining-server/api/utils"
	dbmodels "github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

const (
	defaultLeaderboardSize = 50
	maxLeaderboardSize     = 200
)

// GetProfile returns the wallet's public miner profile.
func (a *App) GetProfile(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	user, err := a.Repos.User.GetByWallet(c.UserContext(), wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.SendNotFound(c, "wallet has no miner profile")
		}
		logger.LogError("Profile lookup failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to load profile")
	}

	return utils.SendSuccess(c, a.profileOf(user), "profile")
}

func (a *App) profileOf(user *dbmodels.User) models.ProfileResponse {
	profile := models.ProfileResponse{
		Wallet:          user.Wallet,
		LifetimePoints:  user.LifetimePoints,
		SeasonPoints:    user.SeasonPoints,
		AvailablePoints: user.AvailablePoints(),
		Level:           string(mining.LevelForPoints(user.LifetimePoints)),
		Tier:            string(mining.ParseTier(user.NFTCache.MinerTier)),
		CurrentStreak:   user.CurrentStreak,
		MaxStreak:       user.MaxStreak,
		TotalMines:      user.TotalMines,
		LastMiningAt:    user.LastMiningAt,
		EquippedFrame:   user.EquippedFrame,
		EquippedColor:   user.EquippedNameColor,
		EquippedBadge:   user.EquippedBadge,
	}
	if user.AvatarType == dbmodels.AvatarTypeNFT {
		profile.AvatarURL = user.AvatarNFTURL
		if profile.AvatarURL == "" && a.Spaces != nil {
			profile.AvatarURL = a.Spaces.AvatarURL(user.Wallet)
		}
	}
	return profile
}

// GetUserBadges lists the wallet's earned badges in award order.
func (a *App) GetUserBadges(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	user, err := a.Repos.User.GetByWallet(c.UserContext(), wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.SendNotFound(c, "wallet has no miner profile")
		}
		return utils.SendInternalServerError(c, "failed to load profile")
	}

	badges, err := a.Repos.Badge.GetUserBadges(c.UserContext(), user.ID)
	if err != nil {
		logger.LogError("Badge lookup failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to load badges")
	}

	return utils.SendSuccess(c, badges, "badges")
}

// GetUserTransactions returns the wallet's most recent ledger entries.
func (a *App) GetUserTransactions(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.ValidWallet(wallet) {
		return utils.SendBadRequest(c, "invalid wallet address", nil)
	}

	limit := parseLimit(c.Query("limit"), 50, 500)

	user, err := a.Repos.User.GetByWallet(c.UserContext(), wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.SendNotFound(c, "wallet has no miner profile")
		}
		return utils.SendInternalServerError(c, "failed to load profile")
	}

	entries, err := a.Repos.Transaction.GetByUserID(c.UserContext(), user.ID, limit)
	if err != nil {
		logger.LogError("Transaction lookup failed", err, "wallet", wallet)
		return utils.SendInternalServerError(c, "failed to load transactions")
	}

	return utils.SendSuccess(c, entries, "transactions")
}

// GetLeaderboard returns the top miners by season or lifetime points.
func (a *App) GetLeaderboard(c *fiber.Ctx) error {
	order := repositories.LeaderboardSeason
	if c.Query("order") == string(repositories.LeaderboardLifetime) {
		order = repositories.LeaderboardLifetime
	}
	limit := parseLimit(c.Query("limit"), defaultLeaderboardSize, maxLeaderboardSize)

	users, err := a.Repos.User.GetLeaderboard(c.UserContext(), order, limit)
	if err != nil {
		logger.LogError("Leaderboard lookup failed", err)
		return utils.SendInternalServerError(c, "failed to load leaderboard")
	}

	entries := make([]models.LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = models.LeaderboardEntry{
			Rank:           i + 1,
			Wallet:         user.Wallet,
			LifetimePoints: user.LifetimePoints,
			SeasonPoints:   user.SeasonPoints,
			Level:          string(mining.LevelForPoints(user.LifetimePoints)),
			CurrentStreak:  user.CurrentStreak,
			EquippedFrame:  user.EquippedFrame,
			EquippedColor:  user.EquippedNameColor,
		}
	}

	return utils.SendSuccess(c, entries, "leaderboard")
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
