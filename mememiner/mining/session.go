package mining

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// OwnershipRefresher refreshes the cached NFT facts on a user record when
// they are stale. Implemented by the nft package.
type OwnershipRefresher interface {
	EnsureFresh(ctx context.Context, user *models.User, force bool) error
}

// BadgeAwarder runs the progression rules after a state change. Implemented
// by the progression package.
type BadgeAwarder interface {
	EvaluateAndAward(ctx context.Context, user *models.User) ([]*models.Badge, error)
}

// SessionService is the mining session state machine: NoSession -> Active ->
// Complete(pending claim) -> NoSession. All transitions run under a
// per-wallet lock and a database conditional update, so two racing requests
// cannot both win.
type SessionService struct {
	users  repositories.UserRepository
	boosts repositories.BoostRepository
	events repositories.EventRepository
	reward repositories.RewardRepository
	nft    OwnershipRefresher
	badges BadgeAwarder
	locks  *LockManager
	now    func() time.Time
}

func NewSessionService(repos *repositories.Repositories, nft OwnershipRefresher, badges BadgeAwarder) *SessionService {
	return &SessionService{
		users:  repos.User,
		boosts: repos.Boost,
		events: repos.Event,
		reward: repos.Reward,
		nft:    nft,
		badges: badges,
		locks:  NewLockManager(),
		now:    time.Now,
	}
}

// Start begins a session for the wallet, freezing the earning rate from the
// current tier, level, streak, boosts and event at this instant. Creating
// the user record on first touch is part of the operation.
func (s *SessionService) Start(ctx context.Context, wallet string) (*StartResult, error) {
	wallet = repositories.NormalizeWallet(wallet)
	release := s.locks.Acquire(wallet)
	defer release()

	user, err := s.users.GetOrCreate(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Stale ownership facts are refreshed best-effort; an unreachable
	// indexer must not block mining.
	if s.nft != nil {
		if err := s.nft.EnsureFresh(ctx, user, false); err != nil {
			logger.LogError("NFT refresh failed, mining with cached facts", err,
				"wallet", wallet)
		}
	}

	now := s.now()

	if user.HasActiveSession() {
		_, _, complete := AccruedPoints(*user.MiningSessionStartedAt, user.MiningSessionEarningRate, now)
		if complete {
			return &StartResult{Code: CodeSessionCompletePendingClaim}, nil
		}
		return &StartResult{Code: CodeSessionActive}, nil
	}

	if user.LastMiningAt != nil {
		if wait := ClaimCooldown - now.Sub(*user.LastMiningAt); wait > 0 {
			return &StartResult{Code: CodeCooldown, CooldownRemaining: wait}, nil
		}
	}

	boosts, err := s.boosts.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load boosts: %w", err)
	}
	event, err := s.events.GetActiveEvent(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active event: %w", err)
	}

	breakdown := ComputeRate(user, boosts, event, now)

	if err := s.users.BeginSession(ctx, user.ID, breakdown.Rate, now); err != nil {
		if errors.Is(err, repositories.ErrSessionActive) {
			// A concurrent start won the conditional update.
			return &StartResult{Code: CodeSessionActive}, nil
		}
		return nil, err
	}

	logger.LogMining("Mining session started", wallet,
		"rate", breakdown.Rate,
		"tier", string(breakdown.Tier),
		"level", string(breakdown.Level))

	return &StartResult{
		Code:      CodeOK,
		StartedAt: now,
		Breakdown: breakdown,
	}, nil
}

// Status derives the session's progress from stored timestamps. Read-only.
func (s *SessionService) Status(ctx context.Context, wallet string) (*StatusResult, error) {
	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return &StatusResult{Code: CodeUserNotFound}, nil
		}
		return nil, err
	}

	tier := ParseTier(user.NFTCache.MinerTier)
	result := &StatusResult{
		Code:     CodeOK,
		MinClaim: MinClaimPoints(tier),
	}

	if !user.HasActiveSession() {
		return result, nil
	}

	now := s.now()
	points, elapsed, complete := AccruedPoints(*user.MiningSessionStartedAt, user.MiningSessionEarningRate, now)

	result.Active = true
	result.StartedAt = user.MiningSessionStartedAt
	result.Rate = user.MiningSessionEarningRate
	result.Elapsed = elapsed
	result.AccruedPoints = points
	result.Complete = complete
	result.Progress = progressOf(elapsed)
	result.CanClaim = points >= result.MinClaim

	return result, nil
}

// Claim settles the session: accrued points (capped at session duration) are
// credited, the ledger row is appended, the streak advances and the session
// clears, all in one transaction.
func (s *SessionService) Claim(ctx context.Context, wallet string) (*ClaimResult, error) {
	wallet = repositories.NormalizeWallet(wallet)
	release := s.locks.Acquire(wallet)
	defer release()

	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return &ClaimResult{Code: CodeUserNotFound}, nil
		}
		return nil, err
	}

	if !user.HasActiveSession() {
		return &ClaimResult{Code: CodeNoActiveSession}, nil
	}

	now := s.now()
	points, _, _ := AccruedPoints(*user.MiningSessionStartedAt, user.MiningSessionEarningRate, now)

	tier := ParseTier(user.NFTCache.MinerTier)
	required := MinClaimPoints(tier)
	if points < required {
		// No partial claims; the session stays active until the
		// threshold is met.
		return &ClaimResult{
			Code:           CodeMinPointsNotReached,
			CurrentPoints:  points,
			RequiredPoints: required,
		}, nil
	}

	streak := streakAfterClaim(user.LastMiningAt, user.CurrentStreak, now)
	maxStreak := user.MaxStreak
	if streak > maxStreak {
		maxStreak = streak
	}

	apply := repositories.ClaimApply{
		UserID:        user.ID,
		Points:        points,
		CurrentStreak: streak,
		MaxStreak:     maxStreak,
		ClaimedAt:     now,
		Description:   fmt.Sprintf("Mining session claim (%s tier)", tier),
	}

	if err := s.reward.ApplyClaim(ctx, apply); err != nil {
		if errors.Is(err, repositories.ErrSessionMissing) {
			return &ClaimResult{Code: CodeNoActiveSession}, nil
		}
		return nil, err
	}

	// Mirror the committed state onto the in-memory record for the badge
	// rules.
	user.LifetimePoints += points
	user.SeasonPoints += points
	user.MiningSessionStartedAt = nil
	user.MiningSessionEarningRate = 0
	user.LastMiningAt = &now
	user.TotalMines++
	user.CurrentStreak = streak
	user.MaxStreak = maxStreak

	result := &ClaimResult{
		Code:          CodeOK,
		Points:        points,
		CurrentStreak: streak,
		MaxStreak:     maxStreak,
		TotalMines:    user.TotalMines,
	}

	if s.badges != nil {
		newBadges, err := s.badges.EvaluateAndAward(ctx, user)
		if err != nil {
			logger.LogError("Badge evaluation failed after claim", err,
				"wallet", wallet)
		} else {
			result.NewBadges = newBadges
		}
	}

	logger.LogMining("Mining session claimed", wallet,
		"points", points,
		"streak", streak,
		"total_mines", user.TotalMines)

	return result, nil
}

func progressOf(elapsed time.Duration) float64 {
	if elapsed >= SessionDuration {
		return 1
	}
	return float64(elapsed) / float64(SessionDuration)
}

// streakAfterClaim advances the consecutive-day counter using UTC calendar
// days: +1 when the last claim was yesterday, reset to 1 after a gap,
// unchanged for a second claim on the same day.
func streakAfterClaim(lastMiningAt *time.Time, current int, now time.Time) int {
	if lastMiningAt == nil {
		return 1
	}

	ly, lm, ld := lastMiningAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	switch int(today.Sub(lastDay).Hours() / 24) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}
