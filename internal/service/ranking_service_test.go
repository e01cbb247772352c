package service

import (
	"context"
	"testing"

	"mtr/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedRankingFixture() (*fakeUserRepo, *fakeTrainingLogRepo, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID) {
	users := &fakeUserRepo{}
	logs := &fakeTrainingLogRepo{}

	ana := addAthlete(users, "ana")
	bruno := addAthlete(users, "bruno")
	carla := addAthlete(users, "carla")

	entries := []domain.TrainingLogEntry{
		{UserID: ana, Date: "2025-03-01", TrainingType: "LONGRUN", Distance: 5.0, Status: domain.LogStatusCompleted},
		{UserID: bruno, Date: "2025-03-02", TrainingType: "LONGRUN", Distance: 12.0, Status: domain.LogStatusCompleted},
		{UserID: ana, Date: "2025-03-03", TrainingType: "EASY RUN ZONA 2", Distance: 3.25, Status: domain.LogStatusCompleted},
		{UserID: carla, Date: "2025-03-04", TrainingType: "RACE", Distance: 42.2, Status: domain.LogStatusCompleted},
	}
	for i := range entries {
		entries[i].ID = primitive.NewObjectID()
		logs.entries = append(logs.entries, entries[i])
	}
	return users, logs, ana, bruno, carla
}

func TestComputeRankingsSumsAndOrders(t *testing.T) {
	users, logs, ana, bruno, carla := seedRankingFixture()
	svc := NewRankingService(users, logs, nil)

	rows, err := svc.ComputeRankings(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, carla.Hex(), rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 42.2, rows[0].TotalDistance)

	assert.Equal(t, bruno.Hex(), rows[1].UserID)
	assert.Equal(t, 2, rows[1].Rank)

	assert.Equal(t, ana.Hex(), rows[2].UserID)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, 8.25, rows[2].TotalDistance, "totals stay unrounded")
	assert.Equal(t, "ana", rows[2].Username)
}

func TestComputeRankingsSkipsExcludedUsers(t *testing.T) {
	users, logs, _, bruno, carla := seedRankingFixture()
	svc := NewRankingService(users, logs, []string{bruno.Hex()})

	rows, err := svc.ComputeRankings(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, carla.Hex(), rows[0].UserID)
	for _, row := range rows {
		assert.NotEqual(t, bruno.Hex(), row.UserID)
	}
}

func TestComputeRankingsIgnoresNonCompletedEntries(t *testing.T) {
	users, logs, ana, _, _ := seedRankingFixture()
	logs.entries = append(logs.entries, domain.TrainingLogEntry{
		ID: primitive.NewObjectID(), UserID: ana, Date: "2025-03-05",
		TrainingType: "LONGRUN", Distance: 100, Status: "draft",
	})

	rows, err := NewRankingService(users, logs, nil).ComputeRankings(context.Background())
	require.NoError(t, err)
	for _, row := range rows {
		if row.UserID == ana.Hex() {
			assert.Equal(t, 8.25, row.TotalDistance)
		}
	}
}

func TestComputeRankingsDeterministicOnTies(t *testing.T) {
	users := &fakeUserRepo{}
	logs := &fakeTrainingLogRepo{}
	first := addAthlete(users, "zoe")
	second := addAthlete(users, "adam")
	logs.entries = []domain.TrainingLogEntry{
		{ID: primitive.NewObjectID(), UserID: first, Date: "2025-03-01", TrainingType: "LONGRUN", Distance: 10, Status: domain.LogStatusCompleted},
		{ID: primitive.NewObjectID(), UserID: second, Date: "2025-03-02", TrainingType: "LONGRUN", Distance: 10, Status: domain.LogStatusCompleted},
	}
	svc := NewRankingService(users, logs, nil)

	for i := 0; i < 5; i++ {
		rows, err := svc.ComputeRankings(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 2)
		// Equal totals keep first-submission order across runs.
		assert.Equal(t, first.Hex(), rows[0].UserID)
		assert.Equal(t, 1, rows[0].Rank)
		assert.Equal(t, 2, rows[1].Rank)
	}
}

func TestComputeRankingsEmpty(t *testing.T) {
	rows, err := NewRankingService(&fakeUserRepo{}, &fakeTrainingLogRepo{}, nil).ComputeRankings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
