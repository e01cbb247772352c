package repository

import (
	"context"
	"time"

	"mtr/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, username, stravaLink string) error
	SetProfilePhoto(ctx context.Context, id primitive.ObjectID, photoURL string) error
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, assignments []*domain.Assignment) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Assignment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error)
	// GetByUserIDAndTargetRange returns the athlete's assignments whose target
	// date falls in [from, to], both YYYY-MM-DD inclusive.
	GetByUserIDAndTargetRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.Assignment, error)
	// GetByTargetRange returns every assignment whose target date falls in
	// [from, to], regardless of coach. Used by the weekly report.
	GetByTargetRange(ctx context.Context, from, to string) ([]domain.Assignment, error)
	// MarkMissedByCoach flips this coach's stale pending assignments
	// (target date strictly before today) to missed and reports how many
	// rows changed.
	MarkMissedByCoach(ctx context.Context, coachID primitive.ObjectID, today string) (int64, error)
	// MarkMissedByUser is the athlete-scoped equivalent of MarkMissedByCoach.
	MarkMissedByUser(ctx context.Context, userID primitive.ObjectID, today string) (int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus) error
	// Resend reopens an assignment: status back to pending with fresh dates.
	Resend(ctx context.Context, id primitive.ObjectID, assignedDate, targetDate string) error
	// PendingTrainingTypes returns the distinct training types of the
	// athlete's pending assignments.
	PendingTrainingTypes(ctx context.Context, userID primitive.ObjectID) ([]string, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (int64, error)
}

// TrainingLogRepository defines the interface for interacting with training log data.
type TrainingLogRepository interface {
	Create(ctx context.Context, entry *domain.TrainingLogEntry) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingLogEntry, error)
	// GetByUserIDAndDateRange filters on the workout date, [from, to]
	// inclusive, both YYYY-MM-DD.
	GetByUserIDAndDateRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.TrainingLogEntry, error)
	GetAll(ctx context.Context) ([]domain.TrainingLogEntry, error)
	GetCompleted(ctx context.Context) ([]domain.TrainingLogEntry, error)
	// GetCompletedCreatedBetween filters completed entries on their
	// submission instant, used for the weekly window.
	GetCompletedCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.TrainingLogEntry, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (int64, error)
}
