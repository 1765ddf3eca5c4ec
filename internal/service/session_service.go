package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/entity"
	"github.com/Emynex4real/innovateam-sub004/internal/domain/repository"
	apperrors "github.com/Emynex4real/innovateam-sub004/internal/pkg/errors"
)

// ActionSubmitAttempt is the rate limiter action kind for scoring submissions.
const ActionSubmitAttempt = "submit_attempt"

// Submission is the payload handed over by the practice UI once a learner
// finishes a quiz. Grading already happened client-side; this engine only
// consumes the summary.
type Submission struct {
	UserID         uint
	Username       string
	BankID         string
	BankName       string
	Subject        string
	TotalQuestions int
	CorrectAnswers int
	TimeSpentSec   int
	Percentage     int
}

// RateLimitError carries the backoff hint alongside ErrRateLimitExceeded.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return apperrors.ErrRateLimitExceeded
}

// SessionService is the session recorder: it gates a submission through the
// rate limiter, resolves first-attempt status atomically against the ledger,
// applies the scoring formula and persists the attempt.
type SessionService struct {
	attemptRepo repository.AttemptRepository
	limiter     *RateLimiter
}

// NewSessionService creates the session recorder
func NewSessionService(attemptRepo repository.AttemptRepository, limiter *RateLimiter) *SessionService {
	return &SessionService{
		attemptRepo: attemptRepo,
		limiter:     limiter,
	}
}

// RecordAttempt validates and persists one completed practice session.
// The returned bool reports whether points were newly awarded, which callers
// use to drive reward UI. The engine never retries internally; a caller
// retry after a storage fault is safe because the first-attempt resolution
// is a single atomic conditional write.
func (s *SessionService) RecordAttempt(ctx context.Context, sub Submission) (*entity.AttemptRecord, bool, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, false, err
	}

	decision := s.limiter.Allow(ctx, sub.UserID, ActionSubmitAttempt)
	if !decision.Allowed {
		return nil, false, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	record := &entity.AttemptRecord{
		ID:             uuid.NewString(),
		UserID:         sub.UserID,
		Username:       sub.Username,
		BankID:         sub.BankID,
		BankName:       sub.BankName,
		Subject:        sub.Subject,
		TotalQuestions: sub.TotalQuestions,
		CorrectAnswers: sub.CorrectAnswers,
		TimeSpentSec:   sub.TimeSpentSec,
		Percentage:     sub.Percentage,
		CreatedAt:      time.Now().UTC(),
	}

	// Candidate score if this submission wins the first-attempt slot; the
	// repository zeroes it when the attempt turns out to be a repeat.
	firstPoints := Score(sub.CorrectAnswers, sub.TotalQuestions, sub.Percentage, true)

	if err := s.attemptRepo.CreateAttempt(ctx, record, firstPoints); err != nil {
		log.Printf("[SessionService] failed to persist attempt for user %d bank %s: %v", sub.UserID, sub.BankID, err)
		return nil, false, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}

	awarded := record.IsFirstAttempt && record.PointsAwarded > 0
	log.Printf("[SessionService] recorded attempt %s user=%d bank=%s first=%t points=%d",
		record.ID, record.UserID, record.BankID, record.IsFirstAttempt, record.PointsAwarded)
	return record, awarded, nil
}

// GetUserHistory returns the user's most recent attempts, newest first.
func (s *SessionService) GetUserHistory(ctx context.Context, userID uint, limit int) ([]entity.AttemptRecord, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	return s.attemptRepo.GetUserAttempts(ctx, userID, limit)
}

func validateSubmission(sub Submission) error {
	switch {
	case sub.UserID == 0:
		return fmt.Errorf("%w: missing user id", apperrors.ErrInvalidInput)
	case sub.BankID == "":
		return fmt.Errorf("%w: missing bank id", apperrors.ErrInvalidInput)
	case sub.TotalQuestions < 1:
		return fmt.Errorf("%w: total questions must be positive", apperrors.ErrInvalidInput)
	case sub.CorrectAnswers < 0 || sub.CorrectAnswers > sub.TotalQuestions:
		return fmt.Errorf("%w: correct answers out of range", apperrors.ErrInvalidInput)
	case sub.TimeSpentSec < 0:
		return fmt.Errorf("%w: negative time spent", apperrors.ErrInvalidInput)
	case sub.Percentage < 0 || sub.Percentage > 100:
		return fmt.Errorf("%w: percentage out of range", apperrors.ErrInvalidInput)
	}
	return nil
}
