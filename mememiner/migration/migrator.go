package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
)

// Migrator copies the legacy MongoDB miner data into Postgres. Inserts use
// ON CONFLICT DO NOTHING so the run is restartable; an interrupted
// migration is finished by running it again.
type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int
	stats     MigrationStats

	// Mongo collection names (overrideable)
	collNames map[string]string
}

func NewMigrator(pgDB *bun.DB, mongoDB *mongo.Database) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   mongoDB,
		batchSize: 1000,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"miners":      "miners",
			"mining_logs": "mininglogs",
		},
	}
}

// Connect opens the legacy Mongo database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	cleanup := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(dbName), cleanup, nil
}

// SetBatchSize overrides the default insert batch size.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// MigrateAll runs every migration step in dependency order.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	if err := m.migrateMiners(ctx); err != nil {
		return fmt.Errorf("miners migration failed: %w", err)
	}
	if err := m.migrateMiningLogs(ctx); err != nil {
		return fmt.Errorf("mining logs migration failed: %w", err)
	}
	m.report()
	return nil
}

// legacyBadgeIDs maps the Node backend's badge slugs onto the new IDs.
// Unknown slugs are dropped; the progression rules re-award anything stat
// based on the user's next claim.
var legacyBadgeIDs = map[string]string{
	"first-mine":     models.BadgeFirstMine,
	"veteran":        models.BadgeVeteranMiner,
	"machine":        models.BadgeMiningMachine,
	"week-streak":    models.BadgeStreakWeek,
	"month-streak":   models.BadgeStreakMonth,
	"points-1k":      models.BadgePoints1K,
	"points-10k":     models.BadgePoints10K,
	"points-100k":    models.BadgePoints100K,
	"miner-holder":   models.BadgeMinerHolder,
	"pass-holder":    models.BadgePassHolder,
	"meme-collector": models.BadgeMemeCollector,
	"lucky":          models.BadgeLuckyRoller,
}

func (m *Migrator) migrateMiners(ctx context.Context) error {
	stats := m.stats.table("users")

	cursor, err := m.mongoDB.Collection(m.collNames["miners"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to open miners cursor: %w", err)
	}
	defer cursor.Close(ctx)

	var batch []*models.User
	badgesByWallet := make(map[string][]string)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (wallet) DO NOTHING").
			Exec(ctx)
		if err != nil {
			stats.Errors += int64(len(batch))
			return fmt.Errorf("failed to insert user batch: %w", err)
		}
		inserted, _ := result.RowsAffected()
		stats.Inserted += inserted
		stats.Skipped += int64(len(batch)) - inserted
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var legacy LegacyMiner
		if err := cursor.Decode(&legacy); err != nil {
			stats.Errors++
			slog.Warn("Skipping undecodable miner document", slog.Any("error", err))
			continue
		}
		stats.Read++

		user := convertMiner(&legacy)
		batch = append(batch, user)
		if len(legacy.Badges) > 0 {
			badgesByWallet[user.Wallet] = legacy.Badges
		}

		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("miners cursor failed: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	return m.migrateBadges(ctx, badgesByWallet)
}

func convertMiner(legacy *LegacyMiner) *models.User {
	now := time.Now()
	createdAt := now
	if legacy.CreatedAt != nil {
		createdAt = *legacy.CreatedAt
	}
	return &models.User{
		Wallet:         repositories.NormalizeWallet(legacy.Wallet),
		LifetimePoints: legacy.Points,
		SeasonPoints:   legacy.SeasonPoints,
		SpentPoints:    legacy.SpentPoints,
		CurrentStreak:  legacy.Streak,
		MaxStreak:      maxInt(legacy.BestStreak, legacy.Streak),
		TotalMines:     legacy.TotalMines,
		LastMiningAt:   legacy.LastMineAt,
		ReferralCode:   legacy.ReferralCode,
		ReferredBy:     legacy.ReferredBy,
		AvatarType:     models.AvatarTypeDefault,
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	}
}

func (m *Migrator) migrateBadges(ctx context.Context, badgesByWallet map[string][]string) error {
	stats := m.stats.table("user_badges")

	for wallet, slugs := range badgesByWallet {
		var userID int64
		err := m.pgDB.NewSelect().
			Model((*models.User)(nil)).
			Column("id").
			Where("wallet = ?", wallet).
			Scan(ctx, &userID)
		if err != nil {
			stats.Errors++
			slog.Warn("Badge owner missing after user migration",
				slog.String("wallet", wallet), slog.Any("error", err))
			continue
		}

		for _, slug := range slugs {
			badgeID, ok := legacyBadgeIDs[slug]
			if !ok {
				stats.Skipped++
				continue
			}
			stats.Read++

			award := &models.UserBadge{
				UserID:   userID,
				BadgeID:  badgeID,
				EarnedAt: time.Now(),
			}
			result, err := m.pgDB.NewInsert().
				Model(award).
				On("CONFLICT (user_id, badge_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				stats.Errors++
				continue
			}
			if affected, _ := result.RowsAffected(); affected > 0 {
				stats.Inserted++
			} else {
				stats.Skipped++
			}
		}
	}
	return nil
}

// legacy log kinds onto ledger transaction types
var legacyLogKinds = map[string]string{
	"mine":     models.TransactionTypeMining,
	"shop":     models.TransactionTypePurchase,
	"referral": models.TransactionTypeReferral,
	"box":      models.TransactionTypeMysteryBox,
}

func (m *Migrator) migrateMiningLogs(ctx context.Context) error {
	stats := m.stats.table("transactions")

	userIDs, err := m.loadUserIDs(ctx)
	if err != nil {
		return err
	}

	cursor, err := m.mongoDB.Collection(m.collNames["mining_logs"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to open mining logs cursor: %w", err)
	}
	defer cursor.Close(ctx)

	var batch []*models.Transaction

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := m.pgDB.NewInsert().Model(&batch).Exec(ctx); err != nil {
			stats.Errors += int64(len(batch))
			return fmt.Errorf("failed to insert transaction batch: %w", err)
		}
		stats.Inserted += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var legacy LegacyMiningLog
		if err := cursor.Decode(&legacy); err != nil {
			stats.Errors++
			continue
		}
		stats.Read++

		userID, ok := userIDs[repositories.NormalizeWallet(legacy.Wallet)]
		if !ok {
			stats.Skipped++
			continue
		}

		kind, ok := legacyLogKinds[legacy.Kind]
		if !ok {
			kind = models.TransactionTypeMining
		}

		txn := &models.Transaction{
			UserID:      userID,
			Amount:      legacy.Amount,
			Type:        kind,
			Description: legacy.Note,
		}
		if legacy.CreatedAt != nil {
			txn.CreatedAt = *legacy.CreatedAt
		}
		batch = append(batch, txn)

		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("mining logs cursor failed: %w", err)
	}
	return flush()
}

func (m *Migrator) loadUserIDs(ctx context.Context) (map[string]int64, error) {
	var users []struct {
		ID     int64  `bun:"id"`
		Wallet string `bun:"wallet"`
	}
	err := m.pgDB.NewSelect().
		Model((*models.User)(nil)).
		Column("id", "wallet").
		Scan(ctx, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to load user IDs: %w", err)
	}

	ids := make(map[string]int64, len(users))
	for _, u := range users {
		ids[u.Wallet] = u.ID
	}
	return ids, nil
}

func (m *Migrator) report() {
	elapsed := time.Since(m.stats.StartTime)
	for name, t := range m.stats.Tables {
		slog.Info("Migration table complete",
			slog.String("table", name),
			slog.Int64("read", t.Read),
			slog.Int64("inserted", t.Inserted),
			slog.Int64("skipped", t.Skipped),
			slog.Int64("errors", t.Errors))
	}
	slog.Info("Migration finished", slog.Duration("elapsed", elapsed))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
