package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler holds the coach service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- Request/Response Structs ---

type CreateAssignmentsRequest struct {
	AthleteIDs      []string `json:"athleteIds" binding:"required,min=1"`
	TrainingType    string   `json:"trainingType" binding:"required"`
	TrainingDetails string   `json:"trainingDetails"`
	TargetDate      string   `json:"targetDate" binding:"required"`
}

type ResendAssignmentRequest struct {
	TargetDate string `json:"targetDate" binding:"required"`
}

type DeleteAthletesRequest struct {
	AthleteIDs []string `json:"athleteIds" binding:"required,min=1"`
}

type AssignmentResponse struct {
	ID              string                  `json:"id"`
	CoachID         string                  `json:"coachId"`
	UserID          string                  `json:"userId"`
	TrainingType    string                  `json:"trainingType"`
	TrainingDetails string                  `json:"trainingDetails,omitempty"`
	AssignedDate    string                  `json:"assignedDate"`
	TargetDate      string                  `json:"targetDate"`
	Status          domain.AssignmentStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
}

type AssignmentWithAthleteResponse struct {
	AssignmentResponse
	Athlete service.AthleteRef `json:"athlete"`
}

// --- Handler Methods ---

// CreateAssignments issues one training assignment per selected athlete.
func (h *CoachHandler) CreateAssignments(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}

	var req CreateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	athleteIDs, err := parseObjectIDs(req.AthleteIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format")
		return
	}

	created, err := h.coachService.CreateAssignments(c.Request.Context(), coachID, athleteIDs, req.TrainingType, req.TrainingDetails, req.TargetDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTrainingType), errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrNotAnAthlete):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAthleteNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create assignments")
		}
		return
	}

	responses := make([]AssignmentResponse, 0, len(created))
	for i := range created {
		responses = append(responses, MapAssignmentToResponse(&created[i]))
	}
	c.JSON(http.StatusCreated, responses)
}

// GetAssignments returns the coach's assignments with athlete info.
// An optional ?status= query narrows to one lifecycle state.
func (h *CoachHandler) GetAssignments(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}

	statusFilter := domain.AssignmentStatus(c.Query("status"))
	switch statusFilter {
	case "", domain.StatusPending, domain.StatusCompleted, domain.StatusMissed:
	default:
		abortWithError(c, http.StatusBadRequest, "status must be pending, completed, or missed")
		return
	}

	rows, err := h.coachService.GetAssignments(c.Request.Context(), coachID, statusFilter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve assignments")
		return
	}

	responses := make([]AssignmentWithAthleteResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, AssignmentWithAthleteResponse{
			AssignmentResponse: MapAssignmentToResponse(&rows[i].Assignment),
			Athlete:            rows[i].Athlete,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// CompleteAssignment marks one of the coach's assignments completed.
func (h *CoachHandler) CompleteAssignment(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}
	assignmentID, ok := objectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	updated, err := h.coachService.CompleteAssignment(c.Request.Context(), coachID, assignmentID)
	if err != nil {
		h.abortAssignmentError(c, err, "Failed to complete assignment")
		return
	}
	c.JSON(http.StatusOK, MapAssignmentToResponse(updated))
}

// ResendAssignment reopens an assignment with a fresh target date.
func (h *CoachHandler) ResendAssignment(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}
	assignmentID, ok := objectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	var req ResendAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	updated, err := h.coachService.ResendAssignment(c.Request.Context(), coachID, assignmentID, req.TargetDate)
	if err != nil {
		h.abortAssignmentError(c, err, "Failed to resend assignment")
		return
	}
	c.JSON(http.StatusOK, MapAssignmentToResponse(updated))
}

// DeleteAssignment removes one of the coach's assignments.
func (h *CoachHandler) DeleteAssignment(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}
	assignmentID, ok := objectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteAssignment(c.Request.Context(), coachID, assignmentID); err != nil {
		h.abortAssignmentError(c, err, "Failed to delete assignment")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDashboardStats returns the coach dashboard headline numbers.
func (h *CoachHandler) GetDashboardStats(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify coach from token")
		return
	}

	stats, err := h.coachService.GetDashboardStats(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetWeeklyActivity returns this week's completed workouts.
func (h *CoachHandler) GetWeeklyActivity(c *gin.Context) {
	activity, err := h.coachService.GetWeeklyActivity(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve weekly activity")
		return
	}
	c.JSON(http.StatusOK, activity)
}

// GetTrainingHistory returns every logged workout across all athletes.
func (h *CoachHandler) GetTrainingHistory(c *gin.Context) {
	history, err := h.coachService.GetTrainingHistory(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve training history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// DeleteTrainingLog removes a single training log entry.
func (h *CoachHandler) DeleteTrainingLog(c *gin.Context) {
	logID, ok := objectIDParam(c, "logId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteTrainingLog(c.Request.Context(), logID); err != nil {
		if errors.Is(err, service.ErrTrainingLogNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete training log entry")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAthletes returns the coach's athlete overview.
func (h *CoachHandler) ListAthletes(c *gin.Context) {
	athletes, err := h.coachService.ListAthletes(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve athletes")
		return
	}
	c.JSON(http.StatusOK, athletes)
}

// DeleteAthletes removes athletes and all their data.
func (h *CoachHandler) DeleteAthletes(c *gin.Context) {
	var req DeleteAthletesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	athleteIDs, err := parseObjectIDs(req.AthleteIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format")
		return
	}

	deleted, err := h.coachService.DeleteAthletes(c.Request.Context(), athleteIDs)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete athletes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// --- Helpers ---

func (h *CoachHandler) abortAssignmentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAssignmentAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAssignmentAlreadyCompleted):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// MapAssignmentToResponse converts a domain Assignment to its DTO.
func MapAssignmentToResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              a.ID.Hex(),
		CoachID:         a.CoachID.Hex(),
		UserID:          a.UserID.Hex(),
		TrainingType:    a.TrainingType,
		TrainingDetails: a.TrainingDetails,
		AssignedDate:    a.AssignedDate,
		TargetDate:      a.TargetDate,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
	}
}

func parseObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, raw := range hexIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
