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

const trainingLogCollectionName = "training_log"

// mongoTrainingLogRepository implements repository.TrainingLogRepository
type mongoTrainingLogRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingLogRepository creates a new TrainingLog repository backed by MongoDB.
func NewMongoTrainingLogRepository(db *mongo.Database) repository.TrainingLogRepository {
	return &mongoTrainingLogRepository{
		collection: db.Collection(trainingLogCollectionName),
	}
}

// Create inserts a new training log entry. Entries are immutable after insert.
func (r *mongoTrainingLogRepository) Create(ctx context.Context, entry *domain.TrainingLogEntry) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("training log entry requires userId")
	}
	if entry.Date == "" || entry.TrainingType == "" {
		return primitive.NilObjectID, errors.New("training log entry requires date and trainingType")
	}

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if entry.Status == "" {
		entry.Status = domain.LogStatusCompleted
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted log entry ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves all log entries for an athlete, newest first.
func (r *mongoTrainingLogRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingLogEntry, error) {
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// GetByUserIDAndDateRange retrieves the athlete's entries whose workout date
// falls in [from, to], both YYYY-MM-DD inclusive.
func (r *mongoTrainingLogRepository) GetByUserIDAndDateRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.TrainingLogEntry, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter, nil)
}

// GetAll retrieves every log entry, newest first. Feeds the coach's
// training history view.
func (r *mongoTrainingLogRepository) GetAll(ctx context.Context) ([]domain.TrainingLogEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{}, findOptions)
}

// GetCompleted retrieves every completed entry, in insertion order. The
// ranking aggregation depends on this order being deterministic.
func (r *mongoTrainingLogRepository) GetCompleted(ctx context.Context) ([]domain.TrainingLogEntry, error) {
	filter := bson.M{"status": domain.LogStatusCompleted}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// GetCompletedCreatedBetween retrieves completed entries submitted inside
// [from, to]. This filters on the submission instant, not the workout date,
// matching how the weekly window buckets activity.
func (r *mongoTrainingLogRepository) GetCompletedCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.TrainingLogEntry, error) {
	filter := bson.M{
		"status":    domain.LogStatusCompleted,
		"createdAt": bson.M{"$gte": from.UTC(), "$lte": to.UTC()},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// Delete removes a log entry permanently.
func (r *mongoTrainingLogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserIDs removes every entry belonging to the given athletes.
// Part of the athlete-removal cascade.
func (r *mongoTrainingLogRepository) DeleteByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoTrainingLogRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.TrainingLogEntry, error) {
	var entries []domain.TrainingLogEntry

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

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureTrainingLogIndexes creates necessary indexes for the training_log collection.
func EnsureTrainingLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Athlete log view and calendar
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			// Weekly window queries filter on status + submission instant
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
