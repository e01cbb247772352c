package service

import (
	"context"
	"testing"
	"time"

	"mtr/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testMenu = []string{
	"EASY RUN ZONA 2",
	"LONGRUN",
	"INTERVAL RUN ( SPEED )",
}

func newCoachFixture(clock func() time.Time) (*fakeUserRepo, *fakeAssignmentRepo, *fakeTrainingLogRepo, CoachService) {
	users := &fakeUserRepo{}
	assignments := &fakeAssignmentRepo{}
	logs := &fakeTrainingLogRepo{now: clock}
	svc := NewCoachService(users, assignments, logs, testMenu, clock)
	return users, assignments, logs, svc
}

func addAthlete(users *fakeUserRepo, username string) primitive.ObjectID {
	id := primitive.NewObjectID()
	users.users = append(users.users, domain.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Role:     domain.RoleUser,
	})
	return id
}

func TestCreateAssignmentsOnePerAthlete(t *testing.T) {
	clock := fixedClock("2025-03-12T15:00:00")
	users, assignments, _, svc := newCoachFixture(clock)
	coachID := primitive.NewObjectID()
	a1 := addAthlete(users, "ana")
	a2 := addAthlete(users, "bruno")

	created, err := svc.CreateAssignments(context.Background(), coachID, []primitive.ObjectID{a1, a2}, "longrun", "steady pace", "2025-03-15")
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, a := range created {
		assert.Equal(t, coachID, a.CoachID)
		assert.Equal(t, "LONGRUN", a.TrainingType, "submitted label should be canonicalized against the menu")
		assert.Equal(t, domain.StatusPending, a.Status)
		assert.Equal(t, "2025-03-12", a.AssignedDate)
		assert.Equal(t, "2025-03-15", a.TargetDate)
	}
	assert.Len(t, assignments.assignments, 2)
}

func TestCreateAssignmentsRejectsUnknownType(t *testing.T) {
	users, _, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	athleteID := addAthlete(users, "ana")

	_, err := svc.CreateAssignments(context.Background(), primitive.NewObjectID(), []primitive.ObjectID{athleteID}, "TEMPO RUN", "", "2025-03-15")
	assert.ErrorIs(t, err, ErrInvalidTrainingType)
}

func TestCreateAssignmentsRejectsBadDate(t *testing.T) {
	users, _, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	athleteID := addAthlete(users, "ana")

	_, err := svc.CreateAssignments(context.Background(), primitive.NewObjectID(), []primitive.ObjectID{athleteID}, "LONGRUN", "", "15/03/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCreateAssignmentsRejectsNonAthlete(t *testing.T) {
	users, _, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachAccount := primitive.NewObjectID()
	users.users = append(users.users, domain.User{ID: coachAccount, Username: "coach", Role: domain.RoleCoach})

	_, err := svc.CreateAssignments(context.Background(), primitive.NewObjectID(), []primitive.ObjectID{coachAccount}, "LONGRUN", "", "2025-03-15")
	assert.ErrorIs(t, err, ErrNotAnAthlete)
}

func TestReconcileMissedFlipsOnlyOverduePending(t *testing.T) {
	_, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	athleteID := primitive.NewObjectID()

	overdue := domain.Assignment{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusPending, TargetDate: "2025-03-11"}
	dueToday := domain.Assignment{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusPending, TargetDate: "2025-03-12"}
	future := domain.Assignment{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusPending, TargetDate: "2025-03-14"}
	doneOld := domain.Assignment{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusCompleted, TargetDate: "2025-03-01"}
	otherCoach := domain.Assignment{ID: primitive.NewObjectID(), CoachID: primitive.NewObjectID(), UserID: athleteID, Status: domain.StatusPending, TargetDate: "2025-03-01"}
	assignments.assignments = []domain.Assignment{overdue, dueToday, future, doneOld, otherCoach}

	changed, err := svc.ReconcileMissed(context.Background(), coachID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	got, _ := assignments.GetByID(context.Background(), overdue.ID)
	assert.Equal(t, domain.StatusMissed, got.Status)
	got, _ = assignments.GetByID(context.Background(), dueToday.ID)
	assert.Equal(t, domain.StatusPending, got.Status, "due today is not overdue yet")
	got, _ = assignments.GetByID(context.Background(), doneOld.ID)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	got, _ = assignments.GetByID(context.Background(), otherCoach.ID)
	assert.Equal(t, domain.StatusPending, got.Status, "other coaches' rows stay untouched")

	// A second pass with the same clock is a no-op.
	changed, err = svc.ReconcileMissed(context.Background(), coachID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestCompleteAssignmentRejectsAlreadyCompleted(t *testing.T) {
	_, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	assignments.assignments = []domain.Assignment{{ID: id, CoachID: coachID, UserID: primitive.NewObjectID(), Status: domain.StatusCompleted, TargetDate: "2025-03-10"}}

	_, err := svc.CompleteAssignment(context.Background(), coachID, id)
	assert.ErrorIs(t, err, ErrAssignmentAlreadyCompleted)
}

func TestCompleteAssignmentAllowsMissed(t *testing.T) {
	_, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	assignments.assignments = []domain.Assignment{{ID: id, CoachID: coachID, UserID: primitive.NewObjectID(), Status: domain.StatusMissed, TargetDate: "2025-03-10"}}

	updated, err := svc.CompleteAssignment(context.Background(), coachID, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestCompleteAssignmentDeniesOtherCoach(t *testing.T) {
	_, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	id := primitive.NewObjectID()
	assignments.assignments = []domain.Assignment{{ID: id, CoachID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: domain.StatusPending, TargetDate: "2025-03-14"}}

	_, err := svc.CompleteAssignment(context.Background(), primitive.NewObjectID(), id)
	assert.ErrorIs(t, err, ErrAssignmentAccessDenied)
}

func TestResendAssignmentReopensWithFreshDates(t *testing.T) {
	_, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	assignments.assignments = []domain.Assignment{{
		ID: id, CoachID: coachID, UserID: primitive.NewObjectID(),
		Status: domain.StatusMissed, AssignedDate: "2025-03-01", TargetDate: "2025-03-05",
	}}

	updated, err := svc.ResendAssignment(context.Background(), coachID, id, "2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Equal(t, "2025-03-12", updated.AssignedDate)
	assert.Equal(t, "2025-03-16", updated.TargetDate)

	stored, _ := assignments.GetByID(context.Background(), id)
	assert.Equal(t, *updated, *stored)
}

func TestResendAssignmentRejectsBadDate(t *testing.T) {
	_, _, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	_, err := svc.ResendAssignment(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "next week")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestGetAssignmentsReconcilesFirst(t *testing.T) {
	users, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	athleteID := addAthlete(users, "ana")
	assignments.assignments = []domain.Assignment{{
		ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID,
		Status: domain.StatusPending, TargetDate: "2025-03-10",
	}}

	rows, err := svc.GetAssignments(context.Background(), coachID, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.StatusMissed, rows[0].Status, "stale pending must surface as missed")
	assert.Equal(t, "ana", rows[0].Athlete.Username)
}

func TestGetAssignmentsStatusFilter(t *testing.T) {
	users, assignments, _, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	athleteID := addAthlete(users, "ana")
	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusPending, TargetDate: "2025-03-14"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusCompleted, TargetDate: "2025-03-11"},
	}

	rows, err := svc.GetAssignments(context.Background(), coachID, domain.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.StatusCompleted, rows[0].Status)
}

func TestGetDashboardStats(t *testing.T) {
	clock := fixedClock("2025-03-12T15:00:00")
	users, assignments, logs, svc := newCoachFixture(clock)
	coachID := primitive.NewObjectID()
	a1 := addAthlete(users, "ana")
	a2 := addAthlete(users, "bruno")

	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: a1, Status: domain.StatusPending, TargetDate: "2025-03-14"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: a2, Status: domain.StatusPending, TargetDate: "2025-03-10"}, // becomes missed
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: a2, Status: domain.StatusCompleted, TargetDate: "2025-03-11"},
	}

	// Submitted inside the current training week.
	_, err := logs.Create(context.Background(), &domain.TrainingLogEntry{UserID: a1, Date: "2025-03-11", TrainingType: "LONGRUN", Distance: 21.1})
	require.NoError(t, err)
	_, err = logs.Create(context.Background(), &domain.TrainingLogEntry{UserID: a2, Date: "2025-03-12", TrainingType: "EASY RUN ZONA 2", Distance: 5.05})
	require.NoError(t, err)

	stats, err := svc.GetDashboardStats(context.Background(), coachID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAthletes)
	assert.Equal(t, 1, stats.ActiveAssignments)
	assert.Equal(t, 2, stats.CompletedThisWeek)
	assert.InDelta(t, 26.2, stats.TotalDistance, 0.0001, "total rounds to one decimal")
}

func TestDeleteAthletesCascades(t *testing.T) {
	users, assignments, logs, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	victim := addAthlete(users, "ana")
	survivor := addAthlete(users, "bruno")

	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: victim, Status: domain.StatusPending, TargetDate: "2025-03-14"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: survivor, Status: domain.StatusPending, TargetDate: "2025-03-14"},
	}
	_, err := logs.Create(context.Background(), &domain.TrainingLogEntry{UserID: victim, Date: "2025-03-11", TrainingType: "LONGRUN", Distance: 10})
	require.NoError(t, err)
	_, err = logs.Create(context.Background(), &domain.TrainingLogEntry{UserID: survivor, Date: "2025-03-11", TrainingType: "LONGRUN", Distance: 12})
	require.NoError(t, err)

	deleted, err := svc.DeleteAthletes(context.Background(), []primitive.ObjectID{victim})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, _ := users.GetByRole(context.Background(), domain.RoleUser)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bruno", remaining[0].Username)
	assert.Len(t, assignments.assignments, 1)
	assert.Len(t, logs.entries, 1)

	// The removed athlete can no longer appear on the leaderboard.
	rankings, err := NewRankingService(users, logs, nil).ComputeRankings(context.Background())
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, survivor.Hex(), rankings[0].UserID)
}

func TestListAthletes(t *testing.T) {
	users, assignments, logs, svc := newCoachFixture(fixedClock("2025-03-12T15:00:00"))
	coachID := primitive.NewObjectID()
	athleteID := addAthlete(users, "ana")

	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: athleteID, Status: domain.StatusCompleted, TargetDate: "2025-03-09"},
	}
	_, err := logs.Create(context.Background(), &domain.TrainingLogEntry{UserID: athleteID, Date: "2025-03-11", TrainingType: "LONGRUN", Distance: 10})
	require.NoError(t, err)

	summaries, err := svc.ListAthletes(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "ana", summaries[0].Username)
	assert.Equal(t, 2, summaries[0].TotalWorkouts)
	assert.Equal(t, "2025-03-11", summaries[0].LastActivity)
}
