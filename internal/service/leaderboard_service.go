package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jinzhu/now"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/entity"
	"github.com/Emynex4real/innovateam-sub004/internal/domain/repository"
	apperrors "github.com/Emynex4real/innovateam-sub004/internal/pkg/errors"
)

// Window selects the time range points are summed over.
type Window string

// Supported leaderboard windows
const (
	WindowAll   Window = "all"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// ParseWindow validates a window name from the query string.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowAll, WindowWeek, WindowMonth:
		return Window(s), nil
	case "":
		return WindowAll, nil
	}
	return "", fmt.Errorf("%w: unknown window %q", apperrors.ErrInvalidInput, s)
}

// StreakPolicy decides whether a streak with no attempt yet today is broken.
type StreakPolicy string

const (
	// StreakStrict counts from today: nothing today means streak 0.
	StreakStrict StreakPolicy = "strict"
	// StreakGrace keeps a streak ending yesterday alive until today is over.
	StreakGrace StreakPolicy = "grace"
)

// LeaderboardConfig tunes the read-side aggregation.
type LeaderboardConfig struct {
	StreakPolicy StreakPolicy
	CacheTTL     time.Duration
}

// DefaultLeaderboardConfig returns the production defaults
func DefaultLeaderboardConfig() LeaderboardConfig {
	return LeaderboardConfig{
		StreakPolicy: StreakStrict,
		CacheTTL:     30 * time.Second,
	}
}

// LeaderboardService projects the attempt ledger into ranked views, picks the
// weekly champion and derives practice streaks. All reads; it never holds a
// lock while computing and never blocks writers. Results are
// eventually-consistent snapshots, optionally cached in Redis.
type LeaderboardService struct {
	attemptRepo repository.AttemptRepository
	cacheRepo   repository.CacheRepository
	cfg         LeaderboardConfig
	clock       func() time.Time
}

// NewLeaderboardService creates the aggregator. cacheRepo may be nil to
// disable snapshot caching.
func NewLeaderboardService(attemptRepo repository.AttemptRepository, cacheRepo repository.CacheRepository, cfg LeaderboardConfig) *LeaderboardService {
	if cfg.StreakPolicy != StreakGrace {
		cfg.StreakPolicy = StreakStrict
	}
	return &LeaderboardService{
		attemptRepo: attemptRepo,
		cacheRepo:   cacheRepo,
		cfg:         cfg,
		clock:       time.Now,
	}
}

// weekStart fixes calendar weeks to Sunday 00:00 UTC. The same boundary is
// used by GetLeaderboard and GetWeeklyChampion so the views cannot disagree.
var weekStart = now.Config{
	WeekStartDay: time.Sunday,
	TimeLocation: time.UTC,
}

// windowBounds returns [from, to) for a window. A zero `from` means all-time.
func windowBounds(w Window, at time.Time) (time.Time, time.Time) {
	at = at.UTC()
	switch w {
	case WindowWeek:
		return weekStart.With(at).BeginningOfWeek(), time.Time{}
	case WindowMonth:
		return weekStart.With(at).BeginningOfMonth(), time.Time{}
	}
	return time.Time{}, time.Time{}
}

// GetLeaderboard returns up to limit ranked entries for the window. Ranks are
// a strict total order: points DESC, then whoever reached their total first,
// then user id.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, window Window, limit int) ([]entity.LeaderboardEntry, error) {
	if limit < 1 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", window, limit)
	if s.cacheRepo != nil {
		var cached []entity.LeaderboardEntry
		if err := s.cacheRepo.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[LeaderboardService] cache read failed for %s: %v", cacheKey, err)
		}
	}

	from, to := windowBounds(window, s.clock())
	rows, err := s.attemptRepo.SumPointsByUser(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}
	timesByUser, err := s.attemptRepo.GetAttemptTimesForUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	today := s.clock().UTC()
	entries := make([]entity.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = entity.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Points:   row.Points,
			Streak:   streakFromTimes(timesByUser[row.UserID], today, s.cfg.StreakPolicy),
		}
	}

	if s.cacheRepo != nil && s.cfg.CacheTTL > 0 {
		if err := s.cacheRepo.SetJSON(ctx, cacheKey, entries, s.cfg.CacheTTL); err != nil {
			log.Printf("[LeaderboardService] cache write failed for %s: %v", cacheKey, err)
		}
	}
	return entries, nil
}

// GetWeeklyChampion returns the single highest point-earner of the current
// calendar week, or nil when nobody scored this week. An empty week is a
// valid state, not an error.
func (s *LeaderboardService) GetWeeklyChampion(ctx context.Context) (*entity.LeaderboardEntry, error) {
	entries, err := s.GetLeaderboard(ctx, WindowWeek, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Points == 0 {
		return nil, nil
	}
	champion := entries[0]
	return &champion, nil
}

// ComputeStreak derives the user's consecutive-day practice streak from the
// ledger. A user with no attempts has a streak of 0.
func (s *LeaderboardService) ComputeStreak(ctx context.Context, userID uint) (int, error) {
	times, err := s.attemptRepo.GetAttemptTimes(ctx, userID)
	if err != nil {
		return 0, err
	}
	return streakFromTimes(times, s.clock().UTC(), s.cfg.StreakPolicy), nil
}

// streakFromTimes reduces attempt timestamps to distinct UTC calendar days
// and counts backward from today with no gaps. Under the grace policy a
// missing today does not break a streak that ran through yesterday.
func streakFromTimes(times []time.Time, today time.Time, policy StreakPolicy) int {
	if len(times) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(times))
	for _, t := range times {
		days[truncateToDay(t)] = struct{}{}
	}

	day := truncateToDay(today)
	if _, ok := days[day]; !ok {
		if policy == StreakStrict {
			return 0
		}
		day = day.AddDate(0, 0, -1)
		if _, ok := days[day]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
