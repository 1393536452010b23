package mining

import (
	"context"
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
)

// SweepInterval is how often expired boosts are retired. Accrual already
// ignores expired boosts on read, so the sweep only keeps the active set
// small for the indexed queries.
const SweepInterval = 10 * time.Minute

// BoostSweeper periodically deactivates boosts whose window has ended.
type BoostSweeper struct {
	boosts   repositories.BoostRepository
	interval time.Duration
}

func NewBoostSweeper(boosts repositories.BoostRepository) *BoostSweeper {
	return &BoostSweeper{boosts: boosts, interval: SweepInterval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *BoostSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *BoostSweeper) sweep(ctx context.Context) {
	retired, err := s.boosts.DeactivateExpired(ctx)
	if err != nil {
		logger.LogError("Boost sweep failed", err)
		return
	}
	if retired > 0 {
		logger.LogSystem("Expired boosts retired", "count", retired)
	}
}
