package repository

import (
	"context"
	"time"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/entity"
)

// UserPoints is an aggregation row: one user's summed points over a window.
// LastAwardedAt is the creation time of the user's latest point-awarding
// attempt inside the window (nil when the sum is zero); it is the tie-break
// key for ranking.
type UserPoints struct {
	UserID        uint
	Username      string
	Points        int
	LastAwardedAt *time.Time
}

// AttemptRepository persists and projects the append-only attempt ledger.
type AttemptRepository interface {
	// CreateAttempt inserts the record and atomically resolves first-attempt
	// status for (UserID, BankID). firstPoints is the score the attempt earns
	// if it turns out to be the first one; on return IsFirstAttempt and
	// PointsAwarded are final. Safe under concurrent calls for the same pair:
	// exactly one insert can ever win the first-attempt slot.
	CreateAttempt(ctx context.Context, record *entity.AttemptRecord, firstPoints int) error

	// GetUserAttempts returns the user's most recent attempts, newest first.
	// A user with no history yields an empty slice, not an error.
	GetUserAttempts(ctx context.Context, userID uint, limit int) ([]entity.AttemptRecord, error)

	// GetAttemptTimes returns every attempt creation timestamp for the user.
	GetAttemptTimes(ctx context.Context, userID uint) ([]time.Time, error)

	// GetAttemptTimesForUsers returns attempt creation timestamps grouped by
	// user, for streak computation over a leaderboard page.
	GetAttemptTimesForUsers(ctx context.Context, userIDs []uint) (map[uint][]time.Time, error)

	// SumPointsByUser sums points_awarded per user over [from, to), ordered
	// points DESC, LastAwardedAt ASC, user id ASC. Users with no awarded
	// points in the window are omitted. A zero `from` means all-time; a
	// zero `to` means no upper bound.
	SumPointsByUser(ctx context.Context, from, to time.Time, limit int) ([]UserPoints, error)
}
