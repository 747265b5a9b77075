package progress

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/driver"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/uuid"
)

// Repository persists user_progress rows. One row per (user_id, lesson_id).
type Repository struct {
	Conn driver.ITransactionalDB
	UUID uuid.Generator
}

var _ domain.ProgressRepository = &Repository{}

func NewRepository(Conn driver.ITransactionalDB, UUID uuid.Generator) *Repository {
	return &Repository{
		Conn: Conn,
		UUID: UUID,
	}
}

const progressColumns = `id, user_id, lesson_id, completed, score, time_spent, created_at, updated_at`

func (repo *Repository) FindByUser(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    `+progressColumns+`
FROM
    user_progress
WHERE
    user_id = $1
ORDER BY lesson_id ASC
	`, userID)
	if err != nil {
		return nil, &domain.RemoteError{Op: "select user_progress", Err: err}
	}
	defer rows.Close()

	var result []*domain.ProgressRecord
	for rows.Next() {
		item, err := scanProgress(rows)
		if err != nil {
			return nil, &domain.RemoteError{Op: "scan user_progress", Err: err}
		}
		result = append(result, item)
	}
	return result, nil
}

func (repo *Repository) FindByUserAndLesson(ctx context.Context, userID, lessonID string) (*domain.ProgressRecord, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    `+progressColumns+`
FROM
    user_progress
WHERE
    user_id = $1 AND lesson_id = $2
	`, userID, lessonID)
	if err != nil {
		return nil, &domain.RemoteError{Op: "select user_progress", Err: err}
	}
	defer rows.Close()

	if rows.Next() {
		item, err := scanProgress(rows)
		if err != nil {
			return nil, &domain.RemoteError{Op: "scan user_progress", Err: err}
		}
		return item, nil
	}
	return nil, nil
}

func (repo *Repository) Insert(ctx context.Context, record *domain.ProgressRecord) error {
	if record.ID == "" {
		id, err := repo.UUID.Generate()
		if err != nil {
			return err
		}
		record.ID = id
	}
	now := time.Now().UTC()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	_, err := repo.Conn.ExecContext(ctx, `
INSERT INTO user_progress(`+progressColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
	`, record.ID, record.UserID, record.LessonID, record.Completed,
		scoreArg(record.Score), record.TimeSpent, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return &domain.RemoteError{Op: "insert user_progress", Err: err}
	}
	return nil
}

func (repo *Repository) InsertBatch(ctx context.Context, records []*domain.ProgressRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*8)
	for i, record := range records {
		if record.ID == "" {
			id, err := repo.UUID.Generate()
			if err != nil {
				return err
			}
			record.ID = id
		}
		record.CreatedAt = &now
		record.UpdatedAt = &now

		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, record.ID, record.UserID, record.LessonID, record.Completed,
			scoreArg(record.Score), record.TimeSpent, record.CreatedAt, record.UpdatedAt)
	}

	query := `INSERT INTO user_progress(` + progressColumns + `) VALUES ` + strings.Join(placeholders, ",")
	if _, err := repo.Conn.ExecContext(ctx, query, args...); err != nil {
		return &domain.RemoteError{Op: "batch insert user_progress", Err: err}
	}
	return nil
}

func (repo *Repository) Update(ctx context.Context, record *domain.ProgressRecord) error {
	now := time.Now().UTC()
	record.UpdatedAt = &now

	_, err := repo.Conn.ExecContext(ctx, `
UPDATE user_progress
SET completed = $1, score = $2, time_spent = $3, updated_at = $4
WHERE id = $5
	`, record.Completed, scoreArg(record.Score), record.TimeSpent, record.UpdatedAt, record.ID)
	if err != nil {
		return &domain.RemoteError{Op: "update user_progress", Err: err}
	}
	return nil
}

func (repo *Repository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := repo.Conn.ExecContext(ctx, `DELETE FROM user_progress WHERE user_id = $1`, userID)
	if err != nil {
		return &domain.RemoteError{Op: "delete user_progress", Err: err}
	}
	return nil
}

func scanProgress(rows driver.ISQLRows) (*domain.ProgressRecord, error) {
	item := new(domain.ProgressRecord)
	var score sql.NullInt64
	err := rows.Scan(&item.ID, &item.UserID, &item.LessonID, &item.Completed,
		&score, &item.TimeSpent, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		item.Score = &v
	}
	return item, nil
}

func scoreArg(score *int) interface{} {
	if score == nil {
		return nil
	}
	return *score
}
