package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/entity"
	apperrors "github.com/Emynex4real/innovateam-sub004/internal/pkg/errors"
	"github.com/Emynex4real/innovateam-sub004/internal/service"
)

// LeaderboardHandler serves the read-only ranking queries
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates the leaderboard handler
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard returns the ranked view for ?window=all|week|month&limit=N
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	window, err := service.ParseWindow(c.DefaultQuery("window", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_input"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), window, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error getting leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window":      window,
		"leaderboard": entries,
		"count":       len(entries),
	})
}

// GetWeeklyChampion returns this week's top earner, or null when the week is
// empty so far.
func (h *LeaderboardHandler) GetWeeklyChampion(c *gin.Context) {
	champion, err := h.leaderboardService.GetWeeklyChampion(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error getting weekly champion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"champion": champion})
}

// ExportLeaderboard streams the current board as CSV (default) or XLSX.
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	window, err := service.ParseWindow(c.DefaultQuery("window", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_input"})
		return
	}
	format := c.DefaultQuery("format", "csv")

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), window, 100)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			entries = nil
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error exporting leaderboard"})
			return
		}
	}

	filename := fmt.Sprintf("leaderboard_%s_%s", window, time.Now().UTC().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, entries, filename)
	default:
		h.exportCSV(c, entries, filename)
	}
}

var exportHeaders = []string{"Rank", "User", "Points", "Streak (days)"}

// exportCSV writes the board as CSV with proper escaping of special characters
func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel renders UTF-8 correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, e := range entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Username),
			strconv.Itoa(e.Points),
			strconv.Itoa(e.Streak),
		})
	}
}

// exportXLSX writes the board via StreamWriter to keep memory flat on big boards
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] failed to create stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headerRow := make([]interface{}, len(exportHeaders))
	for i, hd := range exportHeaders {
		headerRow[i] = hd
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		log.Printf("[LeaderboardHandler] failed to write headers: %v", err)
	}

	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Rank, sanitizeForExcel(e.Username), e.Points, e.Streak}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[LeaderboardHandler] failed to write row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] stream writer flush failed: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] failed to write Excel response: %v", err)
	}
}

// sanitizeForExcel guards exported cells against formula injection
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that start a formula in Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
