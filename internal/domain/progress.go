package domain

import (
	"context"
	"time"
)

// StudyTimeDivisor converts the per-lesson time_spent total (minutes) into
// the profile-level total_study_time unit (hours, integer division).
const StudyTimeDivisor = 60

// ProgressRecord is one user's completion state for one lesson. At most one
// record exists per (user_id, lesson_id) pair.
type ProgressRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	LessonID  string     `json:"lesson_id"`
	Completed bool       `json:"completed"`
	Score     *int       `json:"score"`
	TimeSpent int        `json:"time_spent"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ProgressUpdate is a partial update applied by Upsert. Nil fields keep the
// stored value. TimeSpent is a delta added to the stored total, it never
// overwrites it.
type ProgressUpdate struct {
	Completed *bool `json:"completed"`
	Score     *int  `json:"score" validate:"omitempty,min=0,max=100"`
	TimeSpent *int  `json:"time_spent" validate:"omitempty,min=0"`
}

type ProgressRepository interface {
	FindByUser(ctx context.Context, userID string) ([]*ProgressRecord, error)
	FindByUserAndLesson(ctx context.Context, userID, lessonID string) (*ProgressRecord, error)
	Insert(ctx context.Context, record *ProgressRecord) error
	InsertBatch(ctx context.Context, records []*ProgressRecord) error
	Update(ctx context.Context, record *ProgressRecord) error
	DeleteByUser(ctx context.Context, userID string) error
}

type ProgressUseCase interface {
	// FetchAll returns the user's records, filtered to one lesson when
	// lessonID is non-empty.
	FetchAll(ctx context.Context, userID, lessonID string) ([]*ProgressRecord, error)
	Upsert(ctx context.Context, userID, lessonID string, update *ProgressUpdate) (*ProgressRecord, error)
	RecomputeAggregate(ctx context.Context, userID string) error
	ResetAll(ctx context.Context, userID string) ([]*ProgressRecord, error)
	Initialize(ctx context.Context, userID string) ([]*ProgressRecord, error)
}
