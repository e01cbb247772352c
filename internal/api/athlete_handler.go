package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AthleteHandler holds the athlete service dependency.
type AthleteHandler struct {
	athleteService service.AthleteService
}

// NewAthleteHandler creates a new AthleteHandler.
func NewAthleteHandler(athleteService service.AthleteService) *AthleteHandler {
	return &AthleteHandler{athleteService: athleteService}
}

// --- Request/Response Structs ---

type SubmitLogRequest struct {
	Date         string  `json:"date" binding:"required"`
	TrainingType string  `json:"trainingType" binding:"required"`
	Distance     float64 `json:"distance"`
	StravaLink   string  `json:"stravaLink"`
	AssignmentID *string `json:"assignmentId"`
}

type TrainingLogResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	AssignmentID *string   `json:"assignmentId,omitempty"`
	Date         string    `json:"date"`
	TrainingType string    `json:"trainingType"`
	Distance     float64   `json:"distance"`
	StravaLink   string    `json:"stravaLink,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// GetAgenda returns the athlete's assignments ordered for the agenda view.
func (h *AthleteHandler) GetAgenda(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	agenda, err := h.athleteService.GetAgenda(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve agenda")
		return
	}

	responses := make([]AssignmentResponse, 0, len(agenda))
	for i := range agenda {
		responses = append(responses, MapAssignmentToResponse(&agenda[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// SubmitTrainingLog records a completed workout, optionally closing out an
// agenda assignment.
func (h *AthleteHandler) SubmitTrainingLog(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	var req SubmitLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.SubmitLogInput{
		Date:         req.Date,
		TrainingType: req.TrainingType,
		Distance:     req.Distance,
		StravaLink:   req.StravaLink,
	}
	if req.AssignmentID != nil && *req.AssignmentID != "" {
		assignmentID, err := primitive.ObjectIDFromHex(*req.AssignmentID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid assignmentId format")
			return
		}
		input.AssignmentID = &assignmentID
	}

	entry, err := h.athleteService.SubmitTrainingLog(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate),
			errors.Is(err, service.ErrInvalidTrainingType),
			errors.Is(err, service.ErrInvalidDistance):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAssignmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAssignmentNotYours):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrLogAgainstCompleted):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to submit training log")
		}
		return
	}
	c.JSON(http.StatusCreated, MapTrainingLogToResponse(entry))
}

// GetTrainingLogs returns the athlete's own log entries.
func (h *AthleteHandler) GetTrainingLogs(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	entries, err := h.athleteService.GetTrainingLogs(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve training logs")
		return
	}

	responses := make([]TrainingLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, MapTrainingLogToResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetAvailableTrainingTypes returns the types of the athlete's pending
// assignments, for the submission form.
func (h *AthleteHandler) GetAvailableTrainingTypes(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	types, err := h.athleteService.GetAvailableTrainingTypes(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve training types")
		return
	}
	c.JSON(http.StatusOK, types)
}

// GetCalendarMonth returns per-day markers for ?year=YYYY&month=M.
func (h *AthleteHandler) GetCalendarMonth(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	year, errYear := strconv.Atoi(c.Query("year"))
	month, errMonth := strconv.Atoi(c.Query("month"))
	if errYear != nil || errMonth != nil {
		abortWithError(c, http.StatusBadRequest, "year and month query parameters are required")
		return
	}

	days, err := h.athleteService.GetCalendarMonth(c.Request.Context(), userID, year, month)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCalendarRequest) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to build calendar")
		}
		return
	}
	c.JSON(http.StatusOK, days)
}

// GetStats returns the athlete dashboard headline numbers.
func (h *AthleteHandler) GetStats(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify athlete from token")
		return
	}

	stats, err := h.athleteService.GetStats(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MapTrainingLogToResponse converts a domain TrainingLogEntry to its DTO.
func MapTrainingLogToResponse(entry *domain.TrainingLogEntry) TrainingLogResponse {
	resp := TrainingLogResponse{
		ID:           entry.ID.Hex(),
		UserID:       entry.UserID.Hex(),
		Date:         entry.Date,
		TrainingType: entry.TrainingType,
		Distance:     entry.Distance,
		StravaLink:   entry.StravaLink,
		Status:       entry.Status,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.AssignmentID != nil {
		hex := entry.AssignmentID.Hex()
		resp.AssignmentID = &hex
	}
	return resp
}
