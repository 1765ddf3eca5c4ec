package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/repository"
)

// Monday 2025-06-16 15:00 UTC; the calendar week began Sunday 2025-06-15.
var fixedNow = time.Date(2025, 6, 16, 15, 0, 0, 0, time.UTC)

func newLeaderboardService(repo repository.AttemptRepository, policy StreakPolicy) *LeaderboardService {
	svc := NewLeaderboardService(repo, nil, LeaderboardConfig{StreakPolicy: policy})
	svc.clock = func() time.Time { return fixedNow }
	return svc
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, WindowAll, w)

	for _, name := range []string{"all", "week", "month"} {
		w, err := ParseWindow(name)
		require.NoError(t, err)
		assert.Equal(t, Window(name), w)
	}

	_, err = ParseWindow("year")
	assert.Error(t, err)
}

func TestWindowBounds(t *testing.T) {
	from, to := windowBounds(WindowAll, fixedNow)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	from, _ = windowBounds(WindowWeek, fixedNow)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), from, "weeks start Sunday 00:00 UTC")

	from, _ = windowBounds(WindowMonth, fixedNow)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), from)
}

func TestGetLeaderboard_RanksAndStreaks(t *testing.T) {
	repo := new(MockAttemptRepo)
	svc := newLeaderboardService(repo, StreakStrict)

	rows := []repository.UserPoints{
		{UserID: 2, Username: "grace", Points: 640},
		{UserID: 1, Username: "ada", Points: 350},
	}
	repo.On("SumPointsByUser", mock.Anything, time.Time{}, time.Time{}, 10).Return(rows, nil).Once()
	repo.On("GetAttemptTimesForUsers", mock.Anything, []uint{2, 1}).Return(map[uint][]time.Time{
		2: {fixedNow.Add(-time.Hour), fixedNow.AddDate(0, 0, -1)},
		1: {fixedNow.AddDate(0, 0, -3)},
	}, nil).Once()

	entries, err := svc.GetLeaderboard(context.Background(), WindowAll, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uint(2), entries[0].UserID)
	assert.Equal(t, 640, entries[0].Points)
	assert.Equal(t, 2, entries[0].Streak)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 0, entries[1].Streak, "a three-day-old attempt is no streak under strict policy")
	repo.AssertExpectations(t)
}

func TestGetLeaderboard_WeekWindowPassedToRepo(t *testing.T) {
	repo := new(MockAttemptRepo)
	svc := newLeaderboardService(repo, StreakStrict)

	weekFrom := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	repo.On("SumPointsByUser", mock.Anything, weekFrom, time.Time{}, 10).
		Return([]repository.UserPoints{}, nil).Once()
	repo.On("GetAttemptTimesForUsers", mock.Anything, []uint{}).
		Return(map[uint][]time.Time{}, nil).Once()

	entries, err := svc.GetLeaderboard(context.Background(), WindowWeek, 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
	repo.AssertExpectations(t)
}

func TestGetWeeklyChampion(t *testing.T) {
	weekFrom := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("returns the top earner of the week", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)

		repo.On("SumPointsByUser", mock.Anything, weekFrom, time.Time{}, 1).
			Return([]repository.UserPoints{{UserID: 5, Username: "lin", Points: 420}}, nil).Once()
		repo.On("GetAttemptTimesForUsers", mock.Anything, []uint{5}).
			Return(map[uint][]time.Time{5: {fixedNow}}, nil).Once()

		champion, err := svc.GetWeeklyChampion(context.Background())

		require.NoError(t, err)
		require.NotNil(t, champion)
		assert.Equal(t, uint(5), champion.UserID)
		assert.Equal(t, 420, champion.Points)
	})

	t.Run("nil when the week is empty", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)

		repo.On("SumPointsByUser", mock.Anything, weekFrom, time.Time{}, 1).
			Return([]repository.UserPoints{}, nil).Once()
		repo.On("GetAttemptTimesForUsers", mock.Anything, []uint{}).
			Return(map[uint][]time.Time{}, nil).Once()

		champion, err := svc.GetWeeklyChampion(context.Background())

		require.NoError(t, err)
		assert.Nil(t, champion)
	})

	t.Run("nil when the best total is zero", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)

		repo.On("SumPointsByUser", mock.Anything, weekFrom, time.Time{}, 1).
			Return([]repository.UserPoints{{UserID: 9, Username: "kim", Points: 0}}, nil).Once()
		repo.On("GetAttemptTimesForUsers", mock.Anything, []uint{9}).
			Return(map[uint][]time.Time{9: {fixedNow}}, nil).Once()

		champion, err := svc.GetWeeklyChampion(context.Background())

		require.NoError(t, err)
		assert.Nil(t, champion, "repeat-only activity must not crown a champion")
	})
}

func TestComputeStreak(t *testing.T) {
	day := func(offset int, hour int) time.Time {
		return fixedNow.AddDate(0, 0, offset).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}

	t.Run("counts consecutive days back from today", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{day(0, 9), day(-1, 22), day(-2, 3), day(-4, 12)}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 3, streak, "the gap at -3 days ends the streak")
	})

	t.Run("multiple attempts on one day count once", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{day(0, 8), day(0, 12), day(0, 20)}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})

	t.Run("strict policy resets when today is missing", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{day(-1, 10), day(-2, 10)}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})

	t.Run("grace policy keeps yesterday's streak alive", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakGrace)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{day(-1, 10), day(-2, 10)}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("grace policy still resets after a full missed day", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakGrace)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{day(-2, 10), day(-3, 10)}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})

	t.Run("no attempts means no streak", func(t *testing.T) {
		repo := new(MockAttemptRepo)
		svc := newLeaderboardService(repo, StreakStrict)
		repo.On("GetAttemptTimes", mock.Anything, uint(1)).
			Return([]time.Time{}, nil).Once()

		streak, err := svc.ComputeStreak(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})
}
