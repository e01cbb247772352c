package api

import (
	"net/http"

	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// RankingHandler holds the ranking service dependency.
type RankingHandler struct {
	rankingService service.RankingService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService service.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// GetRankings returns the all-time distance leaderboard.
func (h *RankingHandler) GetRankings(c *gin.Context) {
	rows, err := h.rankingService.ComputeRankings(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute rankings")
		return
	}
	c.JSON(http.StatusOK, rows)
}
