package service

import (
	"context"
	"testing"

	"mtr/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fixed clock Wednesday 2025-03-12: training week 2025-03-10 .. 2025-03-16.
func newReportFixture() (*fakeUserRepo, *fakeAssignmentRepo, ReportService) {
	users := &fakeUserRepo{}
	assignments := &fakeAssignmentRepo{}
	svc := NewReportService(users, assignments, testMenu, fixedClock("2025-03-12T15:00:00"))
	return users, assignments, svc
}

func TestBuildWeeklyReportMatrix(t *testing.T) {
	users, assignments, svc := newReportFixture()
	coachID := primitive.NewObjectID()
	ana := addAthlete(users, "ana")
	bruno := addAthlete(users, "bruno")

	assignments.assignments = []domain.Assignment{
		// Lowercase label still lands in the LONGRUN column.
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "longrun", Status: domain.StatusCompleted, TargetDate: "2025-03-11"},
		// Any non-completed status renders as Missed.
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "EASY RUN ZONA 2", Status: domain.StatusPending, TargetDate: "2025-03-10"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: bruno, TrainingType: "INTERVAL RUN ( SPEED )", Status: domain.StatusPending, TargetDate: "2025-03-15"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: bruno, TrainingType: "LONGRUN", Status: domain.StatusMissed, TargetDate: "2025-03-10"},
		// Outside the window, must not influence any cell.
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "LONGRUN", Status: domain.StatusMissed, TargetDate: "2025-03-09"},
	}

	report, err := svc.BuildWeeklyReport(context.Background())
	require.NoError(t, err)
	// Filename carries the export date, not the window start.
	assert.Equal(t, "weekly-report-2025-03-12.xlsx", report.Filename)

	f := report.File
	defer f.Close()

	title, err := f.GetCellValue(reportSheetName, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "Weekly Report")
	subtitle, err := f.GetCellValue(reportSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Week 2025-03-10 to 2025-03-16", subtitle)

	// Header row: Athlete + the configured menu in order.
	header, err := f.GetCellValue(reportSheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Athlete", header)
	col2, err := f.GetCellValue(reportSheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "EASY RUN ZONA 2", col2)
	col3, err := f.GetCellValue(reportSheetName, "C4")
	require.NoError(t, err)
	assert.Equal(t, "LONGRUN", col3)

	// Rows are alphabetical: ana on 5, bruno on 6.
	cell := func(ref string) string {
		v, err := f.GetCellValue(reportSheetName, ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "ana", cell("A5"))
	assert.Equal(t, "Missed", cell("B5"))
	assert.Equal(t, "Completed", cell("C5"))

	assert.Equal(t, "bruno", cell("A6"))
	assert.Equal(t, "Missed", cell("C6"))
	assert.Equal(t, "Missed", cell("D6"), "pending is still unfulfilled, so it reads Missed")
	assert.Equal(t, "", cell("B6"), "nothing scheduled stays blank")
}

func TestBuildWeeklyReportPendingInDateCellRendersMissed(t *testing.T) {
	users, assignments, svc := newReportFixture()
	coachID := primitive.NewObjectID()
	ana := addAthlete(users, "ana")

	// Pending with a target date still ahead inside the window.
	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "LONGRUN", Status: domain.StatusPending, TargetDate: "2025-03-15"},
	}

	report, err := svc.BuildWeeklyReport(context.Background())
	require.NoError(t, err)
	defer report.File.Close()

	v, err := report.File.GetCellValue(reportSheetName, "C5")
	require.NoError(t, err)
	assert.Equal(t, "Missed", v)
}

func TestBuildWeeklyReportCompletedWinsOverMissed(t *testing.T) {
	users, assignments, svc := newReportFixture()
	coachID := primitive.NewObjectID()
	ana := addAthlete(users, "ana")

	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "LONGRUN", Status: domain.StatusMissed, TargetDate: "2025-03-10"},
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "LONGRUN", Status: domain.StatusCompleted, TargetDate: "2025-03-11"},
	}

	report, err := svc.BuildWeeklyReport(context.Background())
	require.NoError(t, err)
	defer report.File.Close()

	v, err := report.File.GetCellValue(reportSheetName, "C5")
	require.NoError(t, err)
	assert.Equal(t, "Completed", v)
}

func TestBuildWeeklyReportEmptyWindow(t *testing.T) {
	users, assignments, svc := newReportFixture()
	coachID := primitive.NewObjectID()
	ana := addAthlete(users, "ana")

	// Only out-of-window rows exist.
	assignments.assignments = []domain.Assignment{
		{ID: primitive.NewObjectID(), CoachID: coachID, UserID: ana, TrainingType: "LONGRUN", Status: domain.StatusCompleted, TargetDate: "2025-03-09"},
	}

	_, err := svc.BuildWeeklyReport(context.Background())
	assert.ErrorIs(t, err, ErrNoAssignmentsInWindow)
}
