package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Emynex4real/innovateam-sub004/internal/handler/dto"
	apperrors "github.com/Emynex4real/innovateam-sub004/internal/pkg/errors"
	"github.com/Emynex4real/innovateam-sub004/internal/service"
)

// AttemptHandler serves the submission boundary and per-user read queries
type AttemptHandler struct {
	sessionService     *service.SessionService
	leaderboardService *service.LeaderboardService
}

// NewAttemptHandler creates the attempt handler
func NewAttemptHandler(sessionService *service.SessionService, leaderboardService *service.LeaderboardService) *AttemptHandler {
	return &AttemptHandler{
		sessionService:     sessionService,
		leaderboardService: leaderboardService,
	}
}

// SubmitAttempt records a completed practice session for the authenticated
// user and reports whether points were newly awarded.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	var req dto.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "error_type": "invalid_input"})
		return
	}

	userID := c.MustGet("user_id").(uint)
	username := c.GetString("username")

	record, awarded, err := h.sessionService.RecordAttempt(c.Request.Context(), service.Submission{
		UserID:         userID,
		Username:       username,
		BankID:         req.BankID,
		BankName:       req.BankName,
		Subject:        req.Subject,
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		TimeSpentSec:   req.TimeSpentSeconds,
		Percentage:     req.Percentage,
	})
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attempt":        record,
		"points_awarded": record.PointsAwarded,
		"awarded":        awarded,
	})
}

// GetMyStreak returns the authenticated user's consecutive-day streak
func (h *AttemptHandler) GetMyStreak(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	streak, err := h.leaderboardService.ComputeStreak(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error computing streak"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "streak": streak})
}

// GetMyAttempts returns the authenticated user's attempt history
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	attempts, err := h.sessionService.GetUserHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error getting history"})
		return
	}

	// No history is an empty list, not a 404.
	c.JSON(http.StatusOK, gin.H{"attempts": attempts, "count": len(attempts)})
}

func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	var rateErr *service.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		retryAfter := int(rateErr.RetryAfter.Seconds())
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many submissions. Please try again later.",
			"error_type":  "rate_limited",
			"retry_after": retryAfter,
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_input"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record attempt", "error_type": "storage_failure"})
	}
}
