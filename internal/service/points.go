package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/repository"
)

// Point-related errors.
var (
	ErrInvalidAmount         = errors.New("invalid amount: must be non-zero")
	ErrInvalidReason         = errors.New("invalid reason: must be 1-120 characters")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key: must be at most 128 characters")
	ErrUserNotFound          = errors.New("user not found")
)

// Ledger limits.
const (
	MaxReasonLength         = 120
	MaxIdempotencyKeyLength = 128
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
	DefaultHistoryLimit     = 5
)

// AddPointsInput describes one ledger adjustment.
type AddPointsInput struct {
	UserID int64
	Amount int64
	Reason string
	// IdempotencyKey makes retries safe. Empty means no deduplication.
	IdempotencyKey string
}

// AddPointsResult reports the balance after an adjustment.
type AddPointsResult struct {
	Applied bool
	Balance int64
}

// Leaderboard holds the all-time and current UTC day rankings.
type Leaderboard struct {
	Total []*model.LeaderboardEntry
	Daily []*model.LeaderboardEntry
}

// ChatIdempotencyKey identifies the points awarded for one chat message.
func ChatIdempotencyKey(userID int64, sessionID string, clientMessageID string) string {
	return fmt.Sprintf("chat:%d:%s:%s", userID, sessionID, clientMessageID)
}

// PointService handles the point ledger and leaderboards.
type PointService struct {
	store        PointStore
	historyLimit int
	now          func() time.Time
}

// NewPointService creates a new PointService instance.
func NewPointService(store PointStore, historyLimit int) *PointService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &PointService{
		store:        store,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// AddPoints applies an adjustment at most once per idempotency key.
func (s *PointService) AddPoints(ctx context.Context, in AddPointsInput) (*AddPointsResult, error) {
	if in.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, ErrInvalidReason
	}
	if utf8.RuneCountInString(in.IdempotencyKey) > MaxIdempotencyKeyLength {
		return nil, ErrInvalidIdempotencyKey
	}

	var key *string
	if in.IdempotencyKey != "" {
		key = &in.IdempotencyKey
	}

	applied, balance, err := s.store.AddPoints(ctx, in.UserID, in.Amount, reason, key)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add points: %w", err)
	}

	return &AddPointsResult{Applied: applied, Balance: balance}, nil
}

// GetMyPoints returns the user's balance and latest ledger entries.
func (s *PointService) GetMyPoints(ctx context.Context, userID int64) (*model.PointSnapshot, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	txs, err := s.store.GetRecentTransactions(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return &model.PointSnapshot{UserID: userID, Balance: balance, Transactions: txs}, nil
}

// GetLeaderboard fetches both rankings concurrently. limit is clamped to
// [1, MaxLeaderboardLimit]; zero or less means DefaultLeaderboardLimit.
func (s *PointService) GetLeaderboard(ctx context.Context, limit int) (*Leaderboard, error) {
	limit = clampLeaderboardLimit(limit)
	start, end := model.UTCDayWindow(s.now())

	var board Leaderboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.store.GetTotalLeaderboard(gctx, limit)
		if err != nil {
			return fmt.Errorf("failed to get total leaderboard: %w", err)
		}
		board.Total = withDisplayNames(entries)
		return nil
	})
	g.Go(func() error {
		entries, err := s.store.GetDailyLeaderboard(gctx, start, end, limit)
		if err != nil {
			return fmt.Errorf("failed to get daily leaderboard: %w", err)
		}
		board.Daily = withDisplayNames(entries)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &board, nil
}

func clampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}

func withDisplayNames(entries []*model.LeaderboardEntry) []*model.LeaderboardEntry {
	for _, e := range entries {
		e.Username = model.DisplayName(e.UserID, strings.TrimSpace(e.Username))
	}
	return entries
}
