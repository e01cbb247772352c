package service

import (
	"context"
	"sort"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RankingRow is one leaderboard entry. TotalDistance is the unrounded sum of
// the athlete's completed log distances.
type RankingRow struct {
	UserID        string  `json:"userId"`
	Username      string  `json:"username"`
	ProfilePhoto  string  `json:"profilePhoto,omitempty"`
	TotalDistance float64 `json:"totalDistance"`
	Rank          int     `json:"rank"`
}

// --- Service Interface ---
type RankingService interface {
	ComputeRankings(ctx context.Context) ([]RankingRow, error)
}

// --- Service Implementation ---

// rankingService implements the RankingService interface.
type rankingService struct {
	userRepo        repository.UserRepository
	logRepo         repository.TrainingLogRepository
	excludedUserIDs map[string]bool
}

// NewRankingService creates a new instance of rankingService. excludedUserIDs
// are hex object IDs (coach test accounts and the like) that never appear on
// the leaderboard regardless of their logged distance.
func NewRankingService(userRepo repository.UserRepository, logRepo repository.TrainingLogRepository, excludedUserIDs []string) RankingService {
	excluded := make(map[string]bool, len(excludedUserIDs))
	for _, id := range excludedUserIDs {
		excluded[id] = true
	}
	return &rankingService{
		userRepo:        userRepo,
		logRepo:         logRepo,
		excludedUserIDs: excluded,
	}
}

// ComputeRankings builds the all-time distance leaderboard from completed log
// entries. Athletes with no completed logs do not appear.
func (s *rankingService) ComputeRankings(ctx context.Context) ([]RankingRow, error) {
	// 1. Fetch every completed entry in insertion order
	entries, err := s.logRepo.GetCompleted(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Aggregate per athlete, preserving first-appearance order so ties
	//    break deterministically under the stable sort below
	totals := make(map[primitive.ObjectID]float64)
	order := make([]primitive.ObjectID, 0)
	for _, entry := range entries {
		if s.excludedUserIDs[entry.UserID.Hex()] {
			continue
		}
		if _, seen := totals[entry.UserID]; !seen {
			order = append(order, entry.UserID)
		}
		totals[entry.UserID] += entry.Distance
	}

	// 3. Join usernames and photos
	users, err := s.userRepo.GetByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	userByID := make(map[primitive.ObjectID]*domain.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	rows := make([]RankingRow, 0, len(order))
	for _, id := range order {
		row := RankingRow{
			UserID:        id.Hex(),
			TotalDistance: totals[id],
		}
		if user, ok := userByID[id]; ok {
			row.Username = user.Username
			row.ProfilePhoto = user.ProfilePhoto
		}
		rows = append(rows, row)
	}

	// 4. Sort by distance descending and assign 1-based ranks
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalDistance > rows[j].TotalDistance
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
