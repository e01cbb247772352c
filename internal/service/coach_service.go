package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"
	"mtr/training-app/internal/trainingweek"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrAthleteNotFound            = errors.New("athlete user not found")
	ErrNotAnAthlete               = errors.New("user found but is not an athlete")
	ErrAssignmentNotFound         = errors.New("assignment not found")
	ErrAssignmentAccessDenied     = errors.New("access denied to modify this assignment")
	ErrAssignmentAlreadyCompleted = errors.New("assignment is already completed")
	ErrInvalidTrainingType        = errors.New("training type is not in the configured menu")
	ErrInvalidDate                = errors.New("date must be in YYYY-MM-DD format")
	ErrTrainingLogNotFound        = errors.New("training log entry not found")
)

// AthleteRef is the slim athlete info attached to coach-facing rows.
type AthleteRef struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// AssignmentWithAthlete pairs an assignment with the athlete it was issued to.
type AssignmentWithAthlete struct {
	domain.Assignment
	Athlete AthleteRef `json:"athlete"`
}

// TrainingActivity is a training log entry enriched with athlete info, used
// by the activity feed and the training history view.
type TrainingActivity struct {
	ID           string     `json:"id"`
	TrainingType string     `json:"trainingType"`
	Distance     float64    `json:"distance"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	StravaLink   string     `json:"stravaLink,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Athlete      AthleteRef `json:"athlete"`
}

// CoachStats are the dashboard headline numbers.
type CoachStats struct {
	TotalAthletes     int     `json:"totalAthletes"`
	ActiveAssignments int     `json:"activeAssignments"` // Pending and not yet past target date
	CompletedThisWeek int     `json:"completedThisWeek"` // Logs submitted inside the current training week
	TotalDistance     float64 `json:"totalDistance"`     // All-time completed km, rounded to one decimal
}

// AthleteSummary is one row of the coach's athlete list.
type AthleteSummary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	ProfilePhoto  string `json:"profilePhoto,omitempty"`
	TotalWorkouts int    `json:"totalWorkouts"`
	LastActivity  string `json:"lastActivity,omitempty"` // YYYY-MM-DD of the most recent log or target date
}

// --- Service Interface ---
type CoachService interface {
	// Assignment lifecycle
	CreateAssignments(ctx context.Context, coachID primitive.ObjectID, athleteIDs []primitive.ObjectID, trainingType, trainingDetails, targetDate string) ([]domain.Assignment, error)
	// GetAssignments lists the coach's assignments, optionally narrowed to one
	// status. An empty statusFilter returns everything.
	GetAssignments(ctx context.Context, coachID primitive.ObjectID, statusFilter domain.AssignmentStatus) ([]AssignmentWithAthlete, error)
	ReconcileMissed(ctx context.Context, coachID primitive.ObjectID) (int64, error)
	CompleteAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
	ResendAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID, newTargetDate string) (*domain.Assignment, error)
	DeleteAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) error

	// Dashboard & history
	GetDashboardStats(ctx context.Context, coachID primitive.ObjectID) (*CoachStats, error)
	GetWeeklyActivity(ctx context.Context) ([]TrainingActivity, error)
	GetTrainingHistory(ctx context.Context) ([]TrainingActivity, error)
	DeleteTrainingLog(ctx context.Context, logID primitive.ObjectID) error

	// Athlete management
	ListAthletes(ctx context.Context) ([]AthleteSummary, error)
	DeleteAthletes(ctx context.Context, athleteIDs []primitive.ObjectID) (int64, error)
}

// --- Service Implementation ---

// coachService implements the CoachService interface.
type coachService struct {
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	logRepo        repository.TrainingLogRepository
	trainingTypes  []string
	now            func() time.Time
}

// NewCoachService creates a new instance of coachService. The clock is
// injected so reconciliation and window math are testable.
func NewCoachService(
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	logRepo repository.TrainingLogRepository,
	trainingTypes []string,
	now func() time.Time,
) CoachService {
	if now == nil {
		now = time.Now
	}
	return &coachService{
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		logRepo:        logRepo,
		trainingTypes:  trainingTypes,
		now:            now,
	}
}

// === Assignment Lifecycle ===

// CreateAssignments inserts one pending assignment per selected athlete.
func (s *coachService) CreateAssignments(ctx context.Context, coachID primitive.ObjectID, athleteIDs []primitive.ObjectID, trainingType, trainingDetails, targetDate string) ([]domain.Assignment, error) {
	// 1. Validate inputs
	if coachID == primitive.NilObjectID || len(athleteIDs) == 0 {
		return nil, errors.New("coach ID and at least one athlete ID are required")
	}
	canonicalType, ok := matchTrainingType(s.trainingTypes, trainingType)
	if !ok {
		return nil, ErrInvalidTrainingType
	}
	if _, err := domain.ParseDate(targetDate); err != nil {
		return nil, ErrInvalidDate
	}

	// 2. Verify every target user exists and is an athlete
	athletes, err := s.userRepo.GetByIDs(ctx, athleteIDs)
	if err != nil {
		return nil, err
	}
	if len(athletes) != len(athleteIDs) {
		return nil, ErrAthleteNotFound
	}
	for i := range athletes {
		if !athletes[i].IsAthlete() {
			return nil, ErrNotAnAthlete
		}
	}

	// 3. Build one row per athlete
	today := domain.FormatDate(s.now())
	assignments := make([]*domain.Assignment, 0, len(athleteIDs))
	for _, athleteID := range athleteIDs {
		assignments = append(assignments, &domain.Assignment{
			CoachID:         coachID,
			UserID:          athleteID,
			TrainingType:    canonicalType,
			TrainingDetails: trainingDetails,
			AssignedDate:    today,
			TargetDate:      targetDate,
			Status:          domain.StatusPending,
		})
	}

	// 4. Bulk insert
	if _, err := s.assignmentRepo.CreateMany(ctx, assignments); err != nil {
		return nil, err
	}

	created := make([]domain.Assignment, 0, len(assignments))
	for _, a := range assignments {
		created = append(created, *a)
	}
	return created, nil
}

// GetAssignments reconciles stale pending rows and returns the coach's
// assignments with athlete info attached.
func (s *coachService) GetAssignments(ctx context.Context, coachID primitive.ObjectID, statusFilter domain.AssignmentStatus) ([]AssignmentWithAthlete, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}

	// Reconcile first so the fetched statuses are trustworthy. A failed
	// reconciliation is an error, not something to paper over: the caller
	// would otherwise render stale "pending" rows.
	if _, err := s.ReconcileMissed(ctx, coachID); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if statusFilter != "" {
		filtered := assignments[:0]
		for _, a := range assignments {
			if a.Status == statusFilter {
				filtered = append(filtered, a)
			}
		}
		assignments = filtered
	}

	athleteByID, err := s.athleteIndex(ctx, assignments)
	if err != nil {
		return nil, err
	}

	rows := make([]AssignmentWithAthlete, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, AssignmentWithAthlete{
			Assignment: a,
			Athlete:    athleteByID[a.UserID],
		})
	}
	return rows, nil
}

// ReconcileMissed flips this coach's overdue pending assignments to missed.
// Idempotent: a second run with the same clock changes nothing further.
func (s *coachService) ReconcileMissed(ctx context.Context, coachID primitive.ObjectID) (int64, error) {
	today := domain.FormatDate(s.now())
	return s.assignmentRepo.MarkMissedByCoach(ctx, coachID, today)
}

// CompleteAssignment lets the coach mark an assignment done manually.
func (s *coachService) CompleteAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.ownedAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}

	// An assignment completes at most once.
	if assignment.Status == domain.StatusCompleted {
		return nil, ErrAssignmentAlreadyCompleted
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, assignmentID, domain.StatusCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	assignment.Status = domain.StatusCompleted
	return assignment, nil
}

// ResendAssignment reopens an assignment with a fresh target date. The prior
// target date is not retained.
func (s *coachService) ResendAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID, newTargetDate string) (*domain.Assignment, error) {
	if _, err := domain.ParseDate(newTargetDate); err != nil {
		return nil, ErrInvalidDate
	}

	assignment, err := s.ownedAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}

	today := domain.FormatDate(s.now())
	if err := s.assignmentRepo.Resend(ctx, assignmentID, today, newTargetDate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	assignment.Status = domain.StatusPending
	assignment.AssignedDate = today
	assignment.TargetDate = newTargetDate
	return assignment, nil
}

// DeleteAssignment hard-deletes one of the coach's own assignments.
func (s *coachService) DeleteAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) error {
	if _, err := s.ownedAssignment(ctx, coachID, assignmentID); err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	return nil
}

// === Dashboard & History ===

// GetDashboardStats computes the coach dashboard headline numbers. All three
// weekly consumers share the trainingweek window so they can never disagree.
func (s *coachService) GetDashboardStats(ctx context.Context, coachID primitive.ObjectID) (*CoachStats, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}

	if _, err := s.ReconcileMissed(ctx, coachID); err != nil {
		return nil, err
	}

	athletes, err := s.userRepo.GetByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	active := 0
	today := domain.FormatDate(s.now())
	for _, a := range assignments {
		if a.Status == domain.StatusPending && a.TargetDate >= today {
			active++
		}
	}

	week := trainingweek.Current(s.now())
	weeklyLogs, err := s.logRepo.GetCompletedCreatedBetween(ctx, week.Start, week.End)
	if err != nil {
		return nil, err
	}

	completed, err := s.logRepo.GetCompleted(ctx)
	if err != nil {
		return nil, err
	}
	var totalDistance float64
	for _, entry := range completed {
		totalDistance += entry.Distance
	}

	return &CoachStats{
		TotalAthletes:     len(athletes),
		ActiveAssignments: active,
		CompletedThisWeek: len(weeklyLogs),
		TotalDistance:     math.Round(totalDistance*10) / 10,
	}, nil
}

// GetWeeklyActivity returns completed logs submitted inside the current
// training week, newest first.
func (s *coachService) GetWeeklyActivity(ctx context.Context) ([]TrainingActivity, error) {
	week := trainingweek.Current(s.now())
	entries, err := s.logRepo.GetCompletedCreatedBetween(ctx, week.Start, week.End)
	if err != nil {
		return nil, err
	}
	return s.enrichActivities(ctx, entries)
}

// GetTrainingHistory returns every log entry, newest first, with athlete info.
func (s *coachService) GetTrainingHistory(ctx context.Context) ([]TrainingActivity, error) {
	entries, err := s.logRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichActivities(ctx, entries)
}

// DeleteTrainingLog hard-deletes a single log entry.
func (s *coachService) DeleteTrainingLog(ctx context.Context, logID primitive.ObjectID) error {
	if err := s.logRepo.Delete(ctx, logID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainingLogNotFound
		}
		return err
	}
	return nil
}

// === Athlete Management ===

// ListAthletes returns every athlete with a workout count and last activity
// date, for the coach's athlete overview.
func (s *coachService) ListAthletes(ctx context.Context) ([]AthleteSummary, error) {
	athletes, err := s.userRepo.GetByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	summaries := make([]AthleteSummary, 0, len(athletes))
	for i := range athletes {
		athlete := &athletes[i]

		logs, err := s.logRepo.GetByUserID(ctx, athlete.ID)
		if err != nil {
			return nil, err
		}
		assignments, err := s.assignmentRepo.GetByUserID(ctx, athlete.ID)
		if err != nil {
			return nil, err
		}

		// Most recent of any log date or assignment target date.
		last := ""
		for _, entry := range logs {
			if entry.Date > last {
				last = entry.Date
			}
		}
		for _, a := range assignments {
			if a.TargetDate > last {
				last = a.TargetDate
			}
		}

		summaries = append(summaries, AthleteSummary{
			ID:            athlete.ID.Hex(),
			Username:      athlete.Username,
			Email:         athlete.Email,
			ProfilePhoto:  athlete.ProfilePhoto,
			TotalWorkouts: len(logs) + len(assignments),
			LastActivity:  last,
		})
	}
	return summaries, nil
}

// DeleteAthletes removes the given athletes and everything they own, so later
// rankings and reports can never reference them. Returns the number of user
// accounts removed.
func (s *coachService) DeleteAthletes(ctx context.Context, athleteIDs []primitive.ObjectID) (int64, error) {
	if len(athleteIDs) == 0 {
		return 0, errors.New("at least one athlete ID is required")
	}

	// Cascade order: dependents first, then the accounts.
	if _, err := s.logRepo.DeleteByUserIDs(ctx, athleteIDs); err != nil {
		return 0, err
	}
	if _, err := s.assignmentRepo.DeleteByUserIDs(ctx, athleteIDs); err != nil {
		return 0, err
	}
	return s.userRepo.DeleteByIDs(ctx, athleteIDs)
}

// === Helpers ===

// matchTrainingType matches a submitted label against the configured menu,
// case-insensitively, and returns the canonical spelling.
func matchTrainingType(menu []string, submitted string) (string, bool) {
	for _, t := range menu {
		if strings.EqualFold(t, strings.TrimSpace(submitted)) {
			return t, true
		}
	}
	return "", false
}

// ownedAssignment fetches an assignment and verifies the coach owns it.
func (s *coachService) ownedAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	if coachID == primitive.NilObjectID || assignmentID == primitive.NilObjectID {
		return nil, errors.New("coach ID and assignment ID are required")
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.CoachID != coachID {
		return nil, ErrAssignmentAccessDenied
	}
	return assignment, nil
}

// athleteIndex bulk-fetches the athletes referenced by a set of assignments.
func (s *coachService) athleteIndex(ctx context.Context, assignments []domain.Assignment) (map[primitive.ObjectID]AthleteRef, error) {
	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0)
	for _, a := range assignments {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	index := make(map[primitive.ObjectID]AthleteRef, len(users))
	for i := range users {
		index[users[i].ID] = AthleteRef{
			ID:           users[i].ID.Hex(),
			Username:     users[i].Username,
			ProfilePhoto: users[i].ProfilePhoto,
		}
	}
	return index, nil
}

// enrichActivities joins log entries with athlete info.
func (s *coachService) enrichActivities(ctx context.Context, entries []domain.TrainingLogEntry) ([]TrainingActivity, error) {
	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0)
	for _, entry := range entries {
		if !seen[entry.UserID] {
			seen[entry.UserID] = true
			ids = append(ids, entry.UserID)
		}
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	userByID := make(map[primitive.ObjectID]AthleteRef, len(users))
	for i := range users {
		userByID[users[i].ID] = AthleteRef{
			ID:           users[i].ID.Hex(),
			Username:     users[i].Username,
			ProfilePhoto: users[i].ProfilePhoto,
		}
	}

	activities := make([]TrainingActivity, 0, len(entries))
	for _, entry := range entries {
		activities = append(activities, TrainingActivity{
			ID:           entry.ID.Hex(),
			TrainingType: entry.TrainingType,
			Distance:     entry.Distance,
			Date:         entry.Date,
			Status:       entry.Status,
			StravaLink:   entry.StravaLink,
			CreatedAt:    entry.CreatedAt,
			Athlete:      userByID[entry.UserID],
		})
	}
	return activities, nil
}
