package domain

import (
	"context"
	"time"
)

// ProfileAggregate is the per-user summary row. It is a pure function of the
// user's progress records at recompute time and may be observed stale
// between a progress write and the recompute that follows it.
type ProfileAggregate struct {
	UserID           string     `json:"user_id"`
	LessonsCompleted int        `json:"lessons_completed"`
	TotalStudyTime   int        `json:"total_study_time"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	StripeCustomerID string     `json:"-"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*ProfileAggregate, error)
	// SaveAggregate writes the derived counters, creating the profile row
	// on first touch.
	SaveAggregate(ctx context.Context, userID string, lessonsCompleted, totalStudyTime int) error
	// ResetCounters zeroes the derived counters and both streak counters.
	ResetCounters(ctx context.Context, userID string) error
	SaveCustomerID(ctx context.Context, userID, customerID string) error
}
