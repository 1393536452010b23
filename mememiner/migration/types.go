package migration

import (
	"sync"
	"time"
)

// Legacy MongoDB document shapes from the original Node.js miner backend.

type LegacyMiner struct {
	Wallet        string     `bson:"wallet"`
	Points        float64    `bson:"points"`
	SeasonPoints  float64    `bson:"seasonPoints"`
	SpentPoints   float64    `bson:"spentPoints"`
	Streak        int        `bson:"streak"`
	BestStreak    int        `bson:"bestStreak"`
	TotalMines    int        `bson:"totalMines"`
	LastMineAt    *time.Time `bson:"lastMineAt"`
	Badges        []string   `bson:"badges"`
	ReferralCode  string     `bson:"referralCode"`
	ReferredBy    string     `bson:"referredBy"`
	CreatedAt     *time.Time `bson:"createdAt"`
}

type LegacyMiningLog struct {
	Wallet    string     `bson:"wallet"`
	Amount    float64    `bson:"amount"`
	Kind      string     `bson:"kind"`
	Note      string     `bson:"note"`
	CreatedAt *time.Time `bson:"createdAt"`
}

// TableStats tracks per-table migration progress.
type TableStats struct {
	Read     int64
	Inserted int64
	Skipped  int64
	Errors   int64
}

// MigrationStats aggregates the run.
type MigrationStats struct {
	mu        sync.Mutex
	StartTime time.Time
	Tables    map[string]*TableStats
}

func (s *MigrationStats) table(name string) *TableStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Tables[name]
	if !ok {
		t = &TableStats{}
		s.Tables[name] = t
	}
	return t
}
