package entity

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgressCategory string

const (
	CategoryStudy     ProgressCategory = "study"
	CategoryExercise  ProgressCategory = "exercise"
	CategoryReading   ProgressCategory = "reading"
	CategoryProject   ProgressCategory = "project"
	CategoryWellbeing ProgressCategory = "wellbeing"
)

var ProgressCategories = []ProgressCategory{CategoryStudy, CategoryExercise, CategoryReading, CategoryProject, CategoryWellbeing}

func (c ProgressCategory) Valid() bool {
	return slices.Contains(ProgressCategories, c)
}

// ProgressLog lives in the document store. Day is the calendar day (YYYY-MM-DD)
// the log counts for; (UserID, Category, Day) is unique.
type ProgressLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"user_id"`
	Day        string             `bson:"day" json:"day"`
	LoggedAt   time.Time          `bson:"loggedAt" json:"logged_at"`
	Category   ProgressCategory   `bson:"category" json:"category"`
	Intensity  int                `bson:"intensity" json:"intensity"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	AutoShared bool               `bson:"autoShared" json:"auto_shared"`
}
