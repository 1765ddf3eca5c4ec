package entity

import (
	"time"
)

// AttemptRecord is one completed practice session. Rows are append-only:
// they are never updated or deleted after insert.
//
// The partial unique index on (user_id, bank_id) is the storage-side
// enforcement of the first-attempt rule: only one row per pair may ever
// carry is_first_attempt = true, no matter how many submissions race in.
type AttemptRecord struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint      `gorm:"not null;index;index:idx_attempt_first_once,unique,where:is_first_attempt" json:"user_id"`
	Username       string    `gorm:"size:50;not null" json:"username"`
	BankID         string    `gorm:"size:64;not null;index:idx_attempt_first_once,unique,where:is_first_attempt" json:"bank_id"`
	BankName       string    `gorm:"size:255;not null;default:''" json:"bank_name"`
	Subject        string    `gorm:"size:100;not null;index" json:"subject"`
	TotalQuestions int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers int       `gorm:"not null" json:"correct_answers"`
	TimeSpentSec   int       `gorm:"not null;default:0" json:"time_spent_sec"`
	Percentage     int       `gorm:"not null" json:"percentage"`
	IsFirstAttempt bool      `gorm:"not null;default:false" json:"is_first_attempt"`
	PointsAwarded  int       `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName sets the GORM table name
func (AttemptRecord) TableName() string {
	return "attempt_records"
}

// LeaderboardEntry is a derived ranking row. It is recomputed from
// AttemptRecords on every read and is never persisted as authoritative state.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Streak   int    `json:"streak"`
}
