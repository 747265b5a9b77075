package progress

import (
	"context"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// recomputeTimeout bounds the best-effort aggregate recompute spawned by
// Upsert, it runs detached from the request context.
const recomputeTimeout = 10 * time.Second

// UseCaseImpl ...
type UseCaseImpl struct {
	ProgressRepository domain.ProgressRepository
	ProfileRepository  domain.ProfileRepository
	logger             *zap.Logger
}

var _ domain.ProgressUseCase = &UseCaseImpl{}

// NewUseCase ...
func NewUseCase(
	ProgressRepository domain.ProgressRepository,
	ProfileRepository domain.ProfileRepository,
	logger *zap.Logger,
) *UseCaseImpl {
	return &UseCaseImpl{ProgressRepository, ProfileRepository, logger}
}

// FetchAll get the user's progress records, filtered to one lesson when
// lessonID is non-empty
func (uc *UseCaseImpl) FetchAll(ctx context.Context, userID, lessonID string) ([]*domain.ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UseCaseImpl.FetchAll", "service")
	defer apmSpan.End()

	if lessonID == "" {
		return uc.ProgressRepository.FindByUser(ctx, userID)
	}
	record, err := uc.ProgressRepository.FindByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []*domain.ProgressRecord{}, nil
	}
	return []*domain.ProgressRecord{record}, nil
}

// Upsert apply a partial update to the user's record for one lesson,
// creating the record on first touch. completed and score overwrite when
// provided, time_spent accumulates. A false-to-true completion transition
// triggers a best-effort aggregate recompute.
func (uc *UseCaseImpl) Upsert(ctx context.Context, userID, lessonID string, update *domain.ProgressUpdate) (*domain.ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UseCaseImpl.Upsert", "service")
	defer apmSpan.End()

	existing, err := uc.ProgressRepository.FindByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	var record *domain.ProgressRecord
	wasCompleted := false
	if existing != nil {
		wasCompleted = existing.Completed
		if update.Completed != nil {
			existing.Completed = *update.Completed
		}
		if update.Score != nil {
			existing.Score = update.Score
		}
		if update.TimeSpent != nil {
			existing.TimeSpent += *update.TimeSpent
		}
		if err := uc.ProgressRepository.Update(ctx, existing); err != nil {
			return nil, err
		}
		record = existing
	} else {
		record = &domain.ProgressRecord{
			UserID:   userID,
			LessonID: lessonID,
			Score:    update.Score,
		}
		if update.Completed != nil {
			record.Completed = *update.Completed
		}
		if update.TimeSpent != nil {
			record.TimeSpent = *update.TimeSpent
		}
		if err := uc.ProgressRepository.Insert(ctx, record); err != nil {
			return nil, err
		}
	}

	if record.Completed && !wasCompleted {
		uc.recomputeAsync(userID)
	}
	return record, nil
}

// RecomputeAggregate derive the profile counters from the user's current
// record set. Callers must not depend on its success for the correctness of
// the primary operation.
func (uc *UseCaseImpl) RecomputeAggregate(ctx context.Context, userID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "UseCaseImpl.RecomputeAggregate", "service")
	defer apmSpan.End()

	records, err := uc.ProgressRepository.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	completed := 0
	totalTime := 0
	for _, record := range records {
		if record.Completed {
			completed++
		}
		totalTime += record.TimeSpent
	}
	return uc.ProfileRepository.SaveAggregate(ctx, userID, completed, totalTime/domain.StudyTimeDivisor)
}

// ResetAll delete every record the user holds, zero the profile counters
// and reseed the catalog set
func (uc *UseCaseImpl) ResetAll(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UseCaseImpl.ResetAll", "service")
	defer apmSpan.End()

	if err := uc.ProgressRepository.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := uc.ProfileRepository.ResetCounters(ctx, userID); err != nil {
		return nil, err
	}
	return uc.Initialize(ctx, userID)
}

// Initialize seed one record per catalog lesson the user does not hold yet.
// Inserting only the missing rows keeps retries after a partial failure
// from creating duplicates.
func (uc *UseCaseImpl) Initialize(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UseCaseImpl.Initialize", "service")
	defer apmSpan.End()

	existing, err := uc.ProgressRepository.FindByUser(ctx, userID)
	if err != nil {
		return nil, &domain.InitializationError{Err: err}
	}
	seeded := make(map[string]bool, len(existing))
	for _, record := range existing {
		seeded[record.LessonID] = true
	}

	var missing []*domain.ProgressRecord
	for _, lessonID := range domain.LessonCatalog() {
		if seeded[lessonID] {
			continue
		}
		missing = append(missing, &domain.ProgressRecord{
			UserID:   userID,
			LessonID: lessonID,
		})
	}
	if len(missing) > 0 {
		if err := uc.ProgressRepository.InsertBatch(ctx, missing); err != nil {
			return nil, &domain.InitializationError{Err: err}
		}
	}

	records, err := uc.ProgressRepository.FindByUser(ctx, userID)
	if err != nil {
		return nil, &domain.InitializationError{Err: err}
	}
	return records, nil
}

// recomputeAsync spawn the aggregate recompute detached from the caller,
// failure is logged and never propagated
func (uc *UseCaseImpl) recomputeAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		ctx = logging.SetLoggerInContext(ctx, uc.logger)
		if err := uc.RecomputeAggregate(ctx, userID); err != nil {
			uc.logger.Warn("Failed to recompute profile aggregate",
				zap.String("user.id", userID),
				zap.Error(err),
			)
		}
	}()
}
