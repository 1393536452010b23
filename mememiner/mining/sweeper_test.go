package mining

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
)

type sweepBoosts struct {
	repositories.BoostRepository
	calls   int
	retired int64
	err     error
}

func (s *sweepBoosts) DeactivateExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.retired, s.err
}

func TestBoostSweeper(t *testing.T) {
	t.Run("SweepHitsRepository", func(t *testing.T) {
		boosts := &sweepBoosts{retired: 3}
		sweeper := NewBoostSweeper(boosts)

		sweeper.sweep(context.Background())

		assert.Equal(t, 1, boosts.calls)
	})

	t.Run("SweepSurvivesRepositoryError", func(t *testing.T) {
		boosts := &sweepBoosts{err: errors.New("connection reset")}
		sweeper := NewBoostSweeper(boosts)

		sweeper.sweep(context.Background())
		sweeper.sweep(context.Background())

		assert.Equal(t, 2, boosts.calls)
	})

	t.Run("RunStopsOnCancel", func(t *testing.T) {
		boosts := &sweepBoosts{retired: 1}
		sweeper := &BoostSweeper{boosts: boosts, interval: time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			sweeper.Run(ctx)
			close(done)
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper kept running after cancel")
		}
		assert.Greater(t, boosts.calls, 0)
	})
}
