package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema/seed data changes
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Fail fast when the database server is unreachable
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "query"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return rows, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "query"),
		slog.String("query", sql),
		slog.Duration("took", duration),
	)
	return rows, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

// InitializeSchema creates all required tables, indexes and seed data
func (db *DB) InitializeSchema(ctx context.Context) error {
	// Fast init path for development: skip when schema version matches
	if os.Getenv("DB_FAST_INIT") == "1" {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	tables := []interface{}{
		(*models.User)(nil),
		(*models.Transaction)(nil),
		(*models.Badge)(nil),
		(*models.UserBadge)(nil),
		(*models.ActiveBoost)(nil),
		(*models.SpecialEvent)(nil),
		(*models.ShopItem)(nil),
		(*models.UserItem)(nil),
		(*models.MysteryBoxOpening)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_wallet ON users(wallet);",
		"CREATE INDEX IF NOT EXISTS idx_users_season_points ON users(season_points DESC);",
		"CREATE INDEX IF NOT EXISTS idx_users_lifetime_points ON users(lifetime_points DESC);",
		"CREATE INDEX IF NOT EXISTS idx_users_active_session ON users(mining_session_started_at) WHERE mining_session_started_at IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);",
		"CREATE INDEX IF NOT EXISTS idx_user_badges_user_id ON user_badges(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_active_boosts_user_active ON active_boosts(user_id, is_active);",
		"CREATE INDEX IF NOT EXISTS idx_active_boosts_expires ON active_boosts(expires_at) WHERE expires_at IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_special_events_window ON special_events(start_date, end_date) WHERE is_active = true;",
		"CREATE INDEX IF NOT EXISTS idx_mystery_box_openings_user ON mystery_box_openings(user_id, created_at DESC);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.InitializeBadgeData(ctx); err != nil {
		return fmt.Errorf("failed to initialize badge data: %w", err)
	}
	if err := db.InitializeShopData(ctx); err != nil {
		return fmt.Errorf("failed to initialize shop data: %w", err)
	}

	if err := db.ensureAppMeta(ctx); err == nil {
		_ = db.setAppMeta(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion))
	}

	return nil
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	row := db.pool.QueryRow(ctx, `SELECT value FROM app_meta WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	sql := `INSERT INTO app_meta(key, value) VALUES($1, $2)
	        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := db.pool.Exec(ctx, sql, key, value)
	return err
}

// InitializeBadgeData upserts the static badge definitions
func (db *DB) InitializeBadgeData(ctx context.Context) error {
	badges := []struct {
		ID          string
		Name        string
		Description string
		Icon        string
	}{
		{models.BadgeFirstMine, "First Mine", "Complete your first mining session", "pickaxe"},
		{models.BadgeVeteranMiner, "Veteran Miner", "Complete 50 mining sessions", "helmet"},
		{models.BadgeMiningMachine, "Mining Machine", "Complete 250 mining sessions", "drill"},
		{models.BadgeStreakWeek, "On Fire", "Mine 7 days in a row", "flame"},
		{models.BadgeStreakMonth, "Unstoppable", "Mine 30 days in a row", "comet"},
		{models.BadgePoints1K, "Pocket Change", "Earn 1,000 lifetime points", "coin"},
		{models.BadgePoints10K, "Stacking Up", "Earn 10,000 lifetime points", "coins"},
		{models.BadgePoints100K, "Whale Status", "Earn 100,000 lifetime points", "whale"},
		{models.BadgeMinerHolder, "Rig Owner", "Hold a miner NFT", "rig"},
		{models.BadgePassHolder, "Pass Holder", "Hold the platform pass", "ticket"},
		{models.BadgeMemeCollector, "Meme Collector", "Hold 5 or more meme NFTs", "frog"},
		{models.BadgeLuckyRoller, "Lucky Roller", "Win the badge prize from a mystery box", "clover"},
	}

	insertSQL := `
		INSERT INTO badges (id, name, description, icon, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon;
	`

	for _, b := range badges {
		if _, err := db.ExecWithLog(ctx, insertSQL, b.ID, b.Name, b.Description, b.Icon); err != nil {
			return fmt.Errorf("failed to upsert badge %s: %w", b.ID, err)
		}
	}

	slog.Info("Badge definitions initialized", slog.Int("count", len(badges)))
	return nil
}

// InitializeShopData upserts the cosmetic and boost catalog
func (db *DB) InitializeShopData(ctx context.Context) error {
	items := []struct {
		ID            string
		Name          string
		Description   string
		Icon          string
		Type          string
		Price         float64
		EffectType    string
		EffectValue   float64
		DurationHours int
	}{
		{"frame_gold", "Gold Frame", "A gilded frame for your avatar", "frame-gold", models.ItemTypeFrame, 300, "", 0, 0},
		{"frame_diamond", "Diamond Frame", "Shines harder than your portfolio", "frame-diamond", models.ItemTypeFrame, 1000, "", 0, 0},
		{"frame_degen", "Degen Frame", "For the truly committed", "frame-degen", models.ItemTypeFrame, 2500, "", 0, 0},
		{"color_neon", "Neon Name", "Neon green display name", "color-neon", models.ItemTypeNameColor, 200, "", 0, 0},
		{"color_rainbow", "Rainbow Name", "Animated rainbow display name", "color-rainbow", models.ItemTypeNameColor, 750, "", 0, 0},
		{"cosmetic_crown", "Crown Badge", "A tiny crown next to your name", "crown", models.ItemTypeBadge, 500, "", 0, 0},
		{"boost_1_25x", "Small Rig Upgrade", "1.25x mining rate for 24 hours", "boost-1", models.ItemTypeBoost, 250, models.EffectTypeMiningMultiplier, 1.25, 24},
		{"boost_1_5x", "Big Rig Upgrade", "1.5x mining rate for 24 hours", "boost-2", models.ItemTypeBoost, 450, models.EffectTypeMiningMultiplier, 1.5, 24},
		{"boost_2x", "Overclock", "2x mining rate for 12 hours", "boost-3", models.ItemTypeBoost, 600, models.EffectTypeMiningMultiplier, 2.0, 12},
	}

	insertSQL := `
		INSERT INTO shop_items (
			id, name, description, icon, type, price,
			effect_type, effect_value, duration_hours,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		) ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			type = EXCLUDED.type,
			price = EXCLUDED.price,
			effect_type = EXCLUDED.effect_type,
			effect_value = EXCLUDED.effect_value,
			duration_hours = EXCLUDED.duration_hours,
			updated_at = CURRENT_TIMESTAMP;
	`

	for _, it := range items {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			it.ID, it.Name, it.Description, it.Icon, it.Type, it.Price,
			it.EffectType, it.EffectValue, it.DurationHours,
		); err != nil {
			return fmt.Errorf("failed to upsert shop item %s: %w", it.ID, err)
		}
	}

	slog.Info("Shop catalog initialized", slog.Int("count", len(items)))
	return nil
}
