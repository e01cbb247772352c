package service

import (
	"context"
	"sort"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the sort and filter semantics of
// the Mongo implementations closely enough for the service tests to rely on
// ordering guarantees.

// --- fakeUserRepo ---

type fakeUserRepo struct {
	users []domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	f.users = append(f.users, *user)
	return user.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].Email == email {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := []domain.User{}
	for i := range f.users {
		if wanted[f.users[i].ID] {
			out = append(out, f.users[i])
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	for i := range f.users {
		if f.users[i].Role == role {
			out = append(out, f.users[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, username, stravaLink string) error {
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Username = username
			f.users[i].StravaLink = stravaLink
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserRepo) SetProfilePhoto(_ context.Context, id primitive.ObjectID, photoURL string) error {
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].ProfilePhoto = photoURL
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserRepo) DeleteByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	kept := f.users[:0]
	var deleted int64
	for i := range f.users {
		if wanted[f.users[i].ID] {
			deleted++
			continue
		}
		kept = append(kept, f.users[i])
	}
	f.users = kept
	return deleted, nil
}

// --- fakeAssignmentRepo ---

type fakeAssignmentRepo struct {
	assignments []domain.Assignment
}

func (f *fakeAssignmentRepo) Create(_ context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	f.assignments = append(f.assignments, *a)
	return a.ID, nil
}

func (f *fakeAssignmentRepo) CreateMany(ctx context.Context, assignments []*domain.Assignment) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		id, err := f.Create(ctx, a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			a := f.assignments[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAssignmentRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	for i := range f.assignments {
		if f.assignments[i].CoachID == coachID {
			out = append(out, f.assignments[i])
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	for i := range f.assignments {
		if f.assignments[i].UserID == userID {
			out = append(out, f.assignments[i])
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) GetByUserIDAndTargetRange(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	for i := range f.assignments {
		a := f.assignments[i]
		if a.UserID == userID && a.TargetDate >= from && a.TargetDate <= to {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) GetByTargetRange(_ context.Context, from, to string) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	for i := range f.assignments {
		a := f.assignments[i]
		if a.TargetDate >= from && a.TargetDate <= to {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) MarkMissedByCoach(_ context.Context, coachID primitive.ObjectID, today string) (int64, error) {
	var changed int64
	for i := range f.assignments {
		a := &f.assignments[i]
		if a.CoachID == coachID && a.Status == domain.StatusPending && a.TargetDate < today {
			a.Status = domain.StatusMissed
			changed++
		}
	}
	return changed, nil
}

func (f *fakeAssignmentRepo) MarkMissedByUser(_ context.Context, userID primitive.ObjectID, today string) (int64, error) {
	var changed int64
	for i := range f.assignments {
		a := &f.assignments[i]
		if a.UserID == userID && a.Status == domain.StatusPending && a.TargetDate < today {
			a.Status = domain.StatusMissed
			changed++
		}
	}
	return changed, nil
}

func (f *fakeAssignmentRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.AssignmentStatus) error {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAssignmentRepo) Resend(_ context.Context, id primitive.ObjectID, assignedDate, targetDate string) error {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments[i].Status = domain.StatusPending
			f.assignments[i].AssignedDate = assignedDate
			f.assignments[i].TargetDate = targetDate
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAssignmentRepo) PendingTrainingTypes(_ context.Context, userID primitive.ObjectID) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for i := range f.assignments {
		a := f.assignments[i]
		if a.UserID == userID && a.Status == domain.StatusPending && !seen[a.TrainingType] {
			seen[a.TrainingType] = true
			out = append(out, a.TrainingType)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments = append(f.assignments[:i], f.assignments[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAssignmentRepo) DeleteByUserIDs(_ context.Context, userIDs []primitive.ObjectID) (int64, error) {
	wanted := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	kept := f.assignments[:0]
	var deleted int64
	for i := range f.assignments {
		if wanted[f.assignments[i].UserID] {
			deleted++
			continue
		}
		kept = append(kept, f.assignments[i])
	}
	f.assignments = kept
	return deleted, nil
}

// --- fakeTrainingLogRepo ---

type fakeTrainingLogRepo struct {
	entries []domain.TrainingLogEntry
	now     func() time.Time
}

func (f *fakeTrainingLogRepo) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

func (f *fakeTrainingLogRepo) Create(_ context.Context, entry *domain.TrainingLogEntry) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = f.clock().UTC()
	if entry.Status == "" {
		entry.Status = domain.LogStatusCompleted
	}
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeTrainingLogRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.TrainingLogEntry, error) {
	out := []domain.TrainingLogEntry{}
	for i := range f.entries {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeTrainingLogRepo) GetByUserIDAndDateRange(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.TrainingLogEntry, error) {
	out := []domain.TrainingLogEntry{}
	for i := range f.entries {
		e := f.entries[i]
		if e.UserID == userID && e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTrainingLogRepo) GetAll(_ context.Context) ([]domain.TrainingLogEntry, error) {
	out := append([]domain.TrainingLogEntry{}, f.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeTrainingLogRepo) GetCompleted(_ context.Context) ([]domain.TrainingLogEntry, error) {
	out := []domain.TrainingLogEntry{}
	for i := range f.entries {
		if f.entries[i].Status == domain.LogStatusCompleted {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeTrainingLogRepo) GetCompletedCreatedBetween(_ context.Context, from, to time.Time) ([]domain.TrainingLogEntry, error) {
	out := []domain.TrainingLogEntry{}
	for i := range f.entries {
		e := f.entries[i]
		if e.Status != domain.LogStatusCompleted {
			continue
		}
		if e.CreatedAt.Before(from.UTC()) || e.CreatedAt.After(to.UTC()) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeTrainingLogRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeTrainingLogRepo) DeleteByUserIDs(_ context.Context, userIDs []primitive.ObjectID) (int64, error) {
	wanted := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	kept := f.entries[:0]
	var deleted int64
	for i := range f.entries {
		if wanted[f.entries[i].UserID] {
			deleted++
			continue
		}
		kept = append(kept, f.entries[i])
	}
	f.entries = kept
	return deleted, nil
}

// fixedClock returns a clock stuck at the given local wall time.
func fixedClock(value string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
