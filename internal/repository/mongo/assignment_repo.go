package mongo

import (
	"context"
	"errors"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "training_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.CoachID == primitive.NilObjectID || assignment.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires coachId and userId")
	}
	if assignment.TrainingType == "" || assignment.TargetDate == "" {
		return primitive.NilObjectID, errors.New("assignment requires trainingType and targetDate")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.StatusPending
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}

	return insertedID, nil
}

// CreateMany inserts one assignment per selected athlete in a single call.
func (r *mongoAssignmentRepository) CreateMany(ctx context.Context, assignments []*domain.Assignment) ([]primitive.ObjectID, error) {
	if len(assignments) == 0 {
		return nil, errors.New("no assignments to insert")
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(assignments))
	for _, a := range assignments {
		if a.CoachID == primitive.NilObjectID || a.UserID == primitive.NilObjectID {
			return nil, errors.New("assignment requires coachId and userId")
		}
		a.ID = primitive.NewObjectID()
		a.CreatedAt = now
		a.UpdatedAt = now
		if a.Status == "" {
			a.Status = domain.StatusPending
		}
		docs = append(docs, a)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(result.InsertedIDs))
	for _, raw := range result.InsertedIDs {
		id, ok := raw.(primitive.ObjectID)
		if !ok {
			return nil, errors.New("failed to convert inserted assignment ID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByCoachID retrieves all assignments issued by a specific coach,
// newest target date first, ties broken by creation time.
func (r *mongoAssignmentRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Assignment, error) {
	filter := bson.M{"coachId": coachID}
	findOptions := options.Find().SetSort(bson.D{{Key: "targetDate", Value: -1}, {Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// GetByUserID retrieves all assignments issued to a specific athlete.
func (r *mongoAssignmentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "targetDate", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// GetByUserIDAndTargetRange retrieves the athlete's assignments with a target
// date inside [from, to]. Dates are YYYY-MM-DD strings, so the range filter is
// a plain string comparison.
func (r *mongoAssignmentRepository) GetByUserIDAndTargetRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.Assignment, error) {
	filter := bson.M{
		"userId":     userID,
		"targetDate": bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter, nil)
}

// GetByTargetRange retrieves every assignment with a target date inside [from, to].
func (r *mongoAssignmentRepository) GetByTargetRange(ctx context.Context, from, to string) ([]domain.Assignment, error) {
	filter := bson.M{"targetDate": bson.M{"$gte": from, "$lte": to}}
	findOptions := options.Find().SetSort(bson.D{{Key: "targetDate", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// MarkMissedByCoach reclassifies this coach's stale pending assignments as missed.
func (r *mongoAssignmentRepository) MarkMissedByCoach(ctx context.Context, coachID primitive.ObjectID, today string) (int64, error) {
	return r.markMissed(ctx, bson.M{"coachId": coachID}, today)
}

// MarkMissedByUser reclassifies the athlete's stale pending assignments as missed.
func (r *mongoAssignmentRepository) MarkMissedByUser(ctx context.Context, userID primitive.ObjectID, today string) (int64, error) {
	return r.markMissed(ctx, bson.M{"userId": userID}, today)
}

func (r *mongoAssignmentRepository) markMissed(ctx context.Context, scope bson.M, today string) (int64, error) {
	filter := bson.M{
		"status":     domain.StatusPending,
		"targetDate": bson.M{"$lt": today},
	}
	for k, v := range scope {
		filter[k] = v
	}
	update := bson.M{"$set": bson.M{
		"status":    domain.StatusMissed,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// UpdateStatus sets the status of a single assignment.
func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Resend reopens an assignment with fresh dates. No history of the prior
// target date is retained.
func (r *mongoAssignmentRepository) Resend(ctx context.Context, id primitive.ObjectID, assignedDate, targetDate string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"status":       domain.StatusPending,
		"assignedDate": assignedDate,
		"targetDate":   targetDate,
		"updatedAt":    time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PendingTrainingTypes returns the distinct training types among the
// athlete's pending assignments.
func (r *mongoAssignmentRepository) PendingTrainingTypes(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	filter := bson.M{"userId": userID, "status": domain.StatusPending}

	raw, err := r.collection.Distinct(ctx, "trainingType", filter)
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			types = append(types, s)
		}
	}
	return types, nil
}

// Delete removes an assignment permanently.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserIDs removes every assignment issued to the given athletes.
// Part of the athlete-removal cascade.
func (r *mongoAssignmentRepository) DeleteByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Assignment, error) {
	var assignments []domain.Assignment

	var cursor *mongo.Cursor
	var err error
	if findOptions != nil {
		cursor, err = r.collection.Find(ctx, filter, findOptions)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the training_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Coach views filter on coachId, usually together with status
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			// Athlete agenda and calendar
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "targetDate", Value: -1}},
			Options: options.Index(),
		},
		{
			// Weekly report fetches by target date range alone
			Keys:    bson.D{{Key: "targetDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
