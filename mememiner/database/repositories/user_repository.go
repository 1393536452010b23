package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/memeplaza/meme-mining-server/mememiner/database/models"
)

// ErrUserNotFound is returned when a wallet has no mining record yet.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionActive is returned by BeginSession when the conditional update
// lost the race to a concurrent start.
var ErrSessionActive = errors.New("mining session already active")

type LeaderboardOrder string

const (
	LeaderboardSeason   LeaderboardOrder = "season"
	LeaderboardLifetime LeaderboardOrder = "lifetime"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetOrCreate(ctx context.Context, wallet string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	BeginSession(ctx context.Context, userID int64, rate float64, startedAt time.Time) error
	UpdateNFTCache(ctx context.Context, userID int64, cache models.NFTCache) error
	UpdateEquipped(ctx context.Context, userID int64, slot string, itemID string) error
	GetLeaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

// NormalizeWallet lowercases a wallet address; all lookups go through it.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Wallet = NormalizeWallet(user.Wallet)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	return err
}

func (r *userRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("wallet = ?", NormalizeWallet(wallet)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		slog.Error("Database error when getting user",
			slog.String("type", "db"),
			slog.String("operation", "GetByWallet"),
			slog.String("wallet", wallet),
			slog.String("error", err.Error()))
		return nil, err
	}

	return user, nil
}

// GetOrCreate is the idempotent first-touch path: a wallet gets its mining
// record on first interaction.
func (r *userRepository) GetOrCreate(ctx context.Context, wallet string) (*models.User, error) {
	wallet = NormalizeWallet(wallet)

	user, err := r.GetByWallet(ctx, wallet)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		Wallet:     wallet,
		AvatarType: models.AvatarTypeDefault,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// A concurrent first touch may insert the same wallet; the unique index
	// resolves the race and we re-read the winner's row.
	_, err = r.db.NewInsert().
		Model(user).
		On("CONFLICT (wallet) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByWallet(ctx, wallet)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	return err
}

// BeginSession freezes the earning rate and stamps the session start, but
// only when no session is running. The WHERE clause is the race guard: of
// two concurrent starts exactly one row update succeeds.
func (r *userRepository) BeginSession(ctx context.Context, userID int64, rate float64, startedAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("mining_session_started_at = ?", startedAt).
		Set("mining_session_earning_rate = ?", rate).
		Set("mining_session_total_points = 0").
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND mining_session_started_at IS NULL", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrSessionActive
	}
	return nil
}

func (r *userRepository) UpdateNFTCache(ctx context.Context, userID int64, cache models.NFTCache) error {
	_, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("nft_cache = ?", cache).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update nft cache: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateEquipped(ctx context.Context, userID int64, slot string, itemID string) error {
	var column string
	switch slot {
	case models.ItemTypeFrame:
		column = "equipped_frame"
	case models.ItemTypeNameColor:
		column = "equipped_name_color"
	case models.ItemTypeBadge:
		column = "equipped_badge"
	default:
		return fmt.Errorf("unknown cosmetic slot: %s", slot)
	}

	_, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set(column+" = ?", itemID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func (r *userRepository) GetLeaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]*models.User, error) {
	column := "season_points"
	if order == LeaderboardLifetime {
		column = "lifetime_points"
	}

	var users []*models.User
	err := r.db.NewSelect().
		Model(&users).
		OrderExpr(column + " DESC").
		Limit(limit).
		Scan(ctx)
	return users, err
}
