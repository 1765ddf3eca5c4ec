package postgres

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/entity"
	"github.com/Emynex4real/innovateam-sub004/internal/domain/repository"
)

// AttemptRepo implements repository.AttemptRepository on GORM.
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo creates the attempt ledger repository
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateAttempt inserts the record, resolving first-attempt status against the
// partial unique index idx_attempt_first_once. The insert itself is the
// atomic conditional write: two racing submissions for the same never-seen
// (user, bank) pair both try to claim the first-attempt slot, the index lets
// exactly one through, and the loser is re-inserted as a repeat.
func (r *AttemptRepo) CreateAttempt(ctx context.Context, record *entity.AttemptRecord, firstPoints int) error {
	// Fast path: visible history means this can only be a repeat, so skip the
	// doomed first-attempt insert.
	var prior int64
	if err := r.db.WithContext(ctx).Model(&entity.AttemptRecord{}).
		Where("user_id = ? AND bank_id = ?", record.UserID, record.BankID).
		Count(&prior).Error; err != nil {
		return err
	}

	if prior == 0 {
		record.IsFirstAttempt = true
		record.PointsAwarded = firstPoints
		err := r.db.WithContext(ctx).Create(record).Error
		if err == nil {
			return nil
		}
		if !isFirstAttemptConflict(err) {
			return err
		}
		// Lost the race: a concurrent submission claimed the slot between the
		// count and the insert. Fall through and record a repeat.
		log.Printf("[AttemptRepo] first-attempt slot for user %d bank %s already taken, recording repeat", record.UserID, record.BankID)
	}

	record.IsFirstAttempt = false
	record.PointsAwarded = 0
	return r.db.WithContext(ctx).Create(record).Error
}

// isFirstAttemptConflict reports whether err is a unique violation of the
// first-attempt index, as opposed to some other constraint failure.
func isFirstAttemptConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "idx_attempt_first_once"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite phrasing, seen when running against an in-memory database.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "user_id")
}

// GetUserAttempts returns the user's attempts, newest first.
func (r *AttemptRepo) GetUserAttempts(ctx context.Context, userID uint, limit int) ([]entity.AttemptRecord, error) {
	var records []entity.AttemptRecord
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	// An empty slice is a valid result, not ErrNotFound.
	err := q.Find(&records).Error
	return records, err
}

// GetAttemptTimes returns every attempt creation timestamp for the user.
func (r *AttemptRepo) GetAttemptTimes(ctx context.Context, userID uint) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&entity.AttemptRecord{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("created_at", &times).Error
	return times, err
}

// GetAttemptTimesForUsers returns attempt creation timestamps grouped by user.
func (r *AttemptRepo) GetAttemptTimesForUsers(ctx context.Context, userIDs []uint) (map[uint][]time.Time, error) {
	grouped := make(map[uint][]time.Time, len(userIDs))
	if len(userIDs) == 0 {
		return grouped, nil
	}

	type row struct {
		UserID    uint
		CreatedAt time.Time
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.AttemptRecord{}).
		Select("user_id", "created_at").
		Where("user_id IN ?", userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		grouped[rw.UserID] = append(grouped[rw.UserID], rw.CreatedAt)
	}
	return grouped, nil
}

// SumPointsByUser projects the ledger into per-user point totals over
// [from, to). Users with no awarded points in the window are omitted.
// Ordering: points DESC, earliest final-total achiever first, user id as
// the last tie-break so the result is a total order.
func (r *AttemptRepo) SumPointsByUser(ctx context.Context, from, to time.Time, limit int) ([]repository.UserPoints, error) {
	q := r.db.WithContext(ctx).Model(&entity.AttemptRecord{}).
		Select("user_id", "username", "points_awarded", "created_at")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}

	var rows []entity.AttemptRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uint]*repository.UserPoints, len(rows))
	order := make([]uint, 0, len(rows))
	for _, rec := range rows {
		up, ok := totals[rec.UserID]
		if !ok {
			up = &repository.UserPoints{UserID: rec.UserID, Username: rec.Username}
			totals[rec.UserID] = up
			order = append(order, rec.UserID)
		}
		up.Points += rec.PointsAwarded
		if rec.PointsAwarded > 0 {
			created := rec.CreatedAt
			if up.LastAwardedAt == nil || created.After(*up.LastAwardedAt) {
				up.LastAwardedAt = &created
			}
		}
	}

	// Repeat-only users earned nothing in the window; they are not rows on
	// the board.
	out := make([]repository.UserPoints, 0, len(order))
	for _, id := range order {
		if totals[id].Points > 0 {
			out = append(out, *totals[id])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		ti, tj := out[i].LastAwardedAt, out[j].LastAwardedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.Before(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return out[i].UserID < out[j].UserID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
