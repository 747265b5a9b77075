package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/driver"
)

// ProfileRepository persists the user_profiles aggregate row.
type ProfileRepository struct {
	Conn driver.ITransactionalDB
}

var _ domain.ProfileRepository = &ProfileRepository{}

func NewProfileRepository(Conn driver.ITransactionalDB) *ProfileRepository {
	return &ProfileRepository{
		Conn: Conn,
	}
}

func (repo *ProfileRepository) Get(ctx context.Context, userID string) (*domain.ProfileAggregate, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT
    user_id, lessons_completed, total_study_time, current_streak, longest_streak, stripe_customer_id, updated_at
FROM
    user_profiles
WHERE
    user_id = $1
	`, userID)
	if err != nil {
		return nil, &domain.RemoteError{Op: "select user_profiles", Err: err}
	}
	defer rows.Close()

	if rows.Next() {
		item := new(domain.ProfileAggregate)
		var customerID sql.NullString
		if err := rows.Scan(&item.UserID, &item.LessonsCompleted, &item.TotalStudyTime,
			&item.CurrentStreak, &item.LongestStreak, &customerID, &item.UpdatedAt); err != nil {
			return nil, &domain.RemoteError{Op: "scan user_profiles", Err: err}
		}
		item.StripeCustomerID = customerID.String
		return item, nil
	}
	return nil, nil
}

// SaveAggregate writes the derived counters, creating the row on first
// touch. Select-then-write keeps the SQL portable across both drivers.
func (repo *ProfileRepository) SaveAggregate(ctx context.Context, userID string, lessonsCompleted, totalStudyTime int) error {
	existing, err := repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing == nil {
		_, err = repo.Conn.ExecContext(ctx, `
INSERT INTO user_profiles(user_id, lessons_completed, total_study_time, current_streak, longest_streak, updated_at)
VALUES($1,$2,$3,0,0,$4)
		`, userID, lessonsCompleted, totalStudyTime, now)
	} else {
		_, err = repo.Conn.ExecContext(ctx, `
UPDATE user_profiles
SET lessons_completed = $1, total_study_time = $2, updated_at = $3
WHERE user_id = $4
		`, lessonsCompleted, totalStudyTime, now, userID)
	}
	if err != nil {
		return &domain.RemoteError{Op: "save user_profiles aggregate", Err: err}
	}
	return nil
}

func (repo *ProfileRepository) ResetCounters(ctx context.Context, userID string) error {
	existing, err := repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing == nil {
		_, err = repo.Conn.ExecContext(ctx, `
INSERT INTO user_profiles(user_id, lessons_completed, total_study_time, current_streak, longest_streak, updated_at)
VALUES($1,0,0,0,0,$2)
		`, userID, now)
	} else {
		_, err = repo.Conn.ExecContext(ctx, `
UPDATE user_profiles
SET lessons_completed = 0, total_study_time = 0, current_streak = 0, longest_streak = 0, updated_at = $1
WHERE user_id = $2
		`, now, userID)
	}
	if err != nil {
		return &domain.RemoteError{Op: "reset user_profiles counters", Err: err}
	}
	return nil
}

func (repo *ProfileRepository) SaveCustomerID(ctx context.Context, userID, customerID string) error {
	existing, err := repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing == nil {
		_, err = repo.Conn.ExecContext(ctx, `
INSERT INTO user_profiles(user_id, lessons_completed, total_study_time, current_streak, longest_streak, stripe_customer_id, updated_at)
VALUES($1,0,0,0,0,$2,$3)
		`, userID, customerID, now)
	} else {
		_, err = repo.Conn.ExecContext(ctx, `
UPDATE user_profiles
SET stripe_customer_id = $1, updated_at = $2
WHERE user_id = $3
		`, customerID, now, userID)
	}
	if err != nil {
		return &domain.RemoteError{Op: "save user_profiles customer id", Err: err}
	}
	return nil
}
