package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidDistance        = errors.New("distance must be zero or positive")
	ErrAssignmentNotYours     = errors.New("assignment does not belong to this athlete")
	ErrLogAgainstCompleted    = errors.New("assignment has already been completed")
	ErrInvalidCalendarRequest = errors.New("invalid calendar year or month")
)

// SubmitLogInput carries an athlete's workout submission.
type SubmitLogInput struct {
	Date         string
	TrainingType string
	Distance     float64
	StravaLink   string
	AssignmentID *primitive.ObjectID
}

// CalendarDay summarizes one day of the athlete's calendar month.
type CalendarDay struct {
	Date         string `json:"date"`
	HasCompleted bool   `json:"hasCompleted"`
	HasPending   bool   `json:"hasPending"`
	HasOverdue   bool   `json:"hasOverdue"` // Missed, or pending with a target date already behind us
}

// AthleteStats are the athlete dashboard headline numbers.
type AthleteStats struct {
	WorkoutsThisMonth  int `json:"workoutsThisMonth"`
	PendingAssignments int `json:"pendingAssignments"`
}

// --- Service Interface ---
type AthleteService interface {
	GetAgenda(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error)
	SubmitTrainingLog(ctx context.Context, userID primitive.ObjectID, input SubmitLogInput) (*domain.TrainingLogEntry, error)
	GetTrainingLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingLogEntry, error)
	GetAvailableTrainingTypes(ctx context.Context, userID primitive.ObjectID) ([]string, error)
	GetCalendarMonth(ctx context.Context, userID primitive.ObjectID, year, month int) ([]CalendarDay, error)
	GetStats(ctx context.Context, userID primitive.ObjectID) (*AthleteStats, error)
}

// --- Service Implementation ---

// athleteService implements the AthleteService interface.
type athleteService struct {
	assignmentRepo repository.AssignmentRepository
	logRepo        repository.TrainingLogRepository
	trainingTypes  []string
	now            func() time.Time
}

// NewAthleteService creates a new instance of athleteService.
func NewAthleteService(
	assignmentRepo repository.AssignmentRepository,
	logRepo repository.TrainingLogRepository,
	trainingTypes []string,
	now func() time.Time,
) AthleteService {
	if now == nil {
		now = time.Now
	}
	return &athleteService{
		assignmentRepo: assignmentRepo,
		logRepo:        logRepo,
		trainingTypes:  trainingTypes,
		now:            now,
	}
}

// GetAgenda reconciles the athlete's overdue rows and returns their
// assignments ordered for the agenda view: pending first, then missed, then
// completed, each group newest target date first.
func (s *athleteService) GetAgenda(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	today := domain.FormatDate(s.now())
	if _, err := s.assignmentRepo.MarkMissedByUser(ctx, userID, today); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank := map[domain.AssignmentStatus]int{
		domain.StatusPending:   0,
		domain.StatusMissed:    1,
		domain.StatusCompleted: 2,
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		if rank[assignments[i].Status] != rank[assignments[j].Status] {
			return rank[assignments[i].Status] < rank[assignments[j].Status]
		}
		return assignments[i].TargetDate > assignments[j].TargetDate
	})
	return assignments, nil
}

// SubmitTrainingLog records a completed workout. When the submission names an
// assignment, that assignment (and only that assignment) is marked completed;
// a submission without one never touches the agenda.
func (s *athleteService) SubmitTrainingLog(ctx context.Context, userID primitive.ObjectID, input SubmitLogInput) (*domain.TrainingLogEntry, error) {
	// 1. Validate inputs
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if _, err := domain.ParseDate(input.Date); err != nil {
		return nil, ErrInvalidDate
	}
	canonicalType, ok := matchTrainingType(s.trainingTypes, input.TrainingType)
	if !ok {
		return nil, ErrInvalidTrainingType
	}
	if input.Distance < 0 {
		return nil, ErrInvalidDistance
	}

	// 2. If an assignment is named, verify it before writing anything
	if input.AssignmentID != nil {
		assignment, err := s.assignmentRepo.GetByID(ctx, *input.AssignmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}
		if assignment.UserID != userID {
			return nil, ErrAssignmentNotYours
		}
		// Missed assignments may still be completed late; completed ones may not.
		if assignment.Status == domain.StatusCompleted {
			return nil, ErrLogAgainstCompleted
		}
	}

	// 3. Insert the log entry
	entry := &domain.TrainingLogEntry{
		UserID:       userID,
		AssignmentID: input.AssignmentID,
		Date:         input.Date,
		TrainingType: canonicalType,
		Distance:     input.Distance,
		StravaLink:   input.StravaLink,
		Status:       domain.LogStatusCompleted,
	}
	entryID, err := s.logRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = entryID

	// 4. Close out the named assignment
	if input.AssignmentID != nil {
		if err := s.assignmentRepo.UpdateStatus(ctx, *input.AssignmentID, domain.StatusCompleted); err != nil {
			return nil, err
		}
	}

	return entry, nil
}

// GetTrainingLogs returns the athlete's log entries, newest first.
func (s *athleteService) GetTrainingLogs(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingLogEntry, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	return s.logRepo.GetByUserID(ctx, userID)
}

// GetAvailableTrainingTypes returns the distinct training types among the
// athlete's pending assignments, for the submission form dropdown.
func (s *athleteService) GetAvailableTrainingTypes(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	today := domain.FormatDate(s.now())
	if _, err := s.assignmentRepo.MarkMissedByUser(ctx, userID, today); err != nil {
		return nil, err
	}
	return s.assignmentRepo.PendingTrainingTypes(ctx, userID)
}

// GetCalendarMonth returns one marker row per day of the given month.
func (s *athleteService) GetCalendarMonth(ctx context.Context, userID primitive.ObjectID, year, month int) ([]CalendarDay, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if year < 2000 || year > 2200 || month < 1 || month > 12 {
		return nil, ErrInvalidCalendarRequest
	}

	today := domain.FormatDate(s.now())
	if _, err := s.assignmentRepo.MarkMissedByUser(ctx, userID, today); err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from := domain.FormatDate(first)
	to := domain.FormatDate(last)

	logs, err := s.logRepo.GetByUserIDAndDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetByUserIDAndTargetRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]CalendarDay, last.Day())
	for i := range days {
		days[i].Date = domain.FormatDate(first.AddDate(0, 0, i))
	}
	index := make(map[string]*CalendarDay, len(days))
	for i := range days {
		index[days[i].Date] = &days[i]
	}

	for _, entry := range logs {
		if day, ok := index[entry.Date]; ok && entry.Status == domain.LogStatusCompleted {
			day.HasCompleted = true
		}
	}
	for _, a := range assignments {
		day, ok := index[a.TargetDate]
		if !ok {
			continue
		}
		switch {
		case a.Status == domain.StatusMissed || a.IsOverdue(today):
			day.HasOverdue = true
		case a.Status == domain.StatusPending:
			day.HasPending = true
		case a.Status == domain.StatusCompleted:
			day.HasCompleted = true
		}
	}
	return days, nil
}

// GetStats computes the athlete dashboard headline numbers.
func (s *athleteService) GetStats(ctx context.Context, userID primitive.ObjectID) (*AthleteStats, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	today := domain.FormatDate(s.now())
	if _, err := s.assignmentRepo.MarkMissedByUser(ctx, userID, today); err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)
	logs, err := s.logRepo.GetByUserIDAndDateRange(ctx, userID, domain.FormatDate(monthStart), domain.FormatDate(monthEnd))
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := 0
	for _, a := range assignments {
		if a.Status == domain.StatusPending {
			pending++
		}
	}

	return &AthleteStats{
		WorkoutsThisMonth:  len(logs),
		PendingAssignments: pending,
	}, nil
}
