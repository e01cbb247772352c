package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for the assignment lifecycle
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "pending"   // Waiting for the athlete to complete it
	StatusCompleted AssignmentStatus = "completed" // Athlete logged the workout (or coach marked it done)
	StatusMissed    AssignmentStatus = "missed"    // Target date passed while still pending
)

// Assignment is a coach-issued instruction for an athlete to perform a
// specific training type by a target date.
type Assignment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"` // The coach who issued it
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`   // The athlete it was issued to
	TrainingType    string             `bson:"trainingType" json:"trainingType"`
	TrainingDetails string             `bson:"trainingDetails,omitempty" json:"trainingDetails,omitempty"`
	AssignedDate    string             `bson:"assignedDate" json:"assignedDate"` // YYYY-MM-DD, reset on re-send
	TargetDate      string             `bson:"targetDate" json:"targetDate"`     // YYYY-MM-DD
	Status          AssignmentStatus   `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsOverdue reports whether a still-pending assignment has slipped past its
// target date. Dates are YYYY-MM-DD strings, so string comparison is exact.
func (a *Assignment) IsOverdue(today string) bool {
	return a.Status == StatusPending && a.TargetDate < today
}
