package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogStatusCompleted is the status every entry created through the normal
// submission flow carries.
const LogStatusCompleted = "completed"

// TrainingLogEntry is an athlete's record of a completed workout.
// Entries are never updated after creation; a coach may delete them.
type TrainingLogEntry struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	AssignmentID *primitive.ObjectID `bson:"assignmentId,omitempty" json:"assignmentId,omitempty"` // The assignment this entry fulfilled, if any
	Date         string              `bson:"date" json:"date"`                                     // YYYY-MM-DD, the day the workout happened
	TrainingType string              `bson:"trainingType" json:"trainingType"`
	Distance     float64             `bson:"distance" json:"distance"` // Kilometers, >= 0
	StravaLink   string              `bson:"stravaLink,omitempty" json:"stravaLink,omitempty"`
	Status       string              `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}
