package progress_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*domain.ProgressRecord // keyed by user_id/lesson_id
	nextID  int
	failAll error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*domain.ProgressRecord)}
}

func (f *fakeProgressRepo) key(userID, lessonID string) string {
	return userID + "/" + lessonID
}

func (f *fakeProgressRepo) FindByUser(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []*domain.ProgressRecord
	for _, r := range f.records {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) FindByUserAndLesson(ctx context.Context, userID, lessonID string) (*domain.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	if r, ok := f.records[f.key(userID, lessonID)]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeProgressRepo) Insert(ctx context.Context, record *domain.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.nextID++
	record.ID = fmt.Sprintf("rec-%d", f.nextID)
	clone := *record
	f.records[f.key(record.UserID, record.LessonID)] = &clone
	return nil
}

func (f *fakeProgressRepo) InsertBatch(ctx context.Context, records []*domain.ProgressRecord) error {
	for _, record := range records {
		if err := f.Insert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProgressRepo) Update(ctx context.Context, record *domain.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	clone := *record
	f.records[f.key(record.UserID, record.LessonID)] = &clone
	return nil
}

func (f *fakeProgressRepo) DeleteByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	for k, r := range f.records {
		if r.UserID == userID {
			delete(f.records, k)
		}
	}
	return nil
}

type fakeProfileRepo struct {
	mu               sync.Mutex
	lessonsCompleted int
	totalStudyTime   int
	saveCalls        int
	resetCalls       int
	customerID       string
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID string) (*domain.ProfileAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.ProfileAggregate{
		UserID:           userID,
		LessonsCompleted: f.lessonsCompleted,
		TotalStudyTime:   f.totalStudyTime,
	}, nil
}

func (f *fakeProfileRepo) SaveAggregate(ctx context.Context, userID string, lessonsCompleted, totalStudyTime int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessonsCompleted = lessonsCompleted
	f.totalStudyTime = totalStudyTime
	f.saveCalls++
	return nil
}

func (f *fakeProfileRepo) ResetCounters(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessonsCompleted = 0
	f.totalStudyTime = 0
	f.resetCalls++
	return nil
}

func (f *fakeProfileRepo) SaveCustomerID(ctx context.Context, userID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerID = customerID
	return nil
}

func (f *fakeProfileRepo) snapshot() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessonsCompleted, f.totalStudyTime, f.saveCalls
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestUpsertCreatesRecordOnFirstTouch(t *testing.T) {
	repo := newFakeProgressRepo()
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())

	record, err := uc.Upsert(context.Background(), "user-1", "greetings", &domain.ProgressUpdate{
		TimeSpent: intPtr(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "greetings", record.LessonID)
	assert.False(t, record.Completed)
	assert.Nil(t, record.Score)
	assert.Equal(t, 5, record.TimeSpent)
	assert.NotEmpty(t, record.ID)
}

func TestUpsertAccumulatesTimeSpent(t *testing.T) {
	repo := newFakeProgressRepo()
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Upsert(ctx, "user-1", "numbers", &domain.ProgressUpdate{TimeSpent: intPtr(10)})
	require.NoError(t, err)
	record, err := uc.Upsert(ctx, "user-1", "numbers", &domain.ProgressUpdate{TimeSpent: intPtr(7)})
	require.NoError(t, err)

	assert.Equal(t, 17, record.TimeSpent)
}

func TestUpsertKeepsUnsetFields(t *testing.T) {
	repo := newFakeProgressRepo()
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Upsert(ctx, "user-1", "colors", &domain.ProgressUpdate{
		Completed: boolPtr(true),
		Score:     intPtr(80),
	})
	require.NoError(t, err)

	record, err := uc.Upsert(ctx, "user-1", "colors", &domain.ProgressUpdate{TimeSpent: intPtr(3)})
	require.NoError(t, err)

	assert.True(t, record.Completed)
	require.NotNil(t, record.Score)
	assert.Equal(t, 80, *record.Score)
	assert.Equal(t, 3, record.TimeSpent)
}

func TestUpsertCompletionTriggersRecompute(t *testing.T) {
	repo := newFakeProgressRepo()
	profile := &fakeProfileRepo{}
	uc := progress.NewUseCase(repo, profile, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Upsert(ctx, "user-1", "family", &domain.ProgressUpdate{
		Completed: boolPtr(true),
		TimeSpent: intPtr(120),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		completed, total, _ := profile.snapshot()
		return completed == 1 && total == 2
	}, time.Second, 10*time.Millisecond)
}

func TestUpsertRepeatedCompletionDoesNotRecompute(t *testing.T) {
	repo := newFakeProgressRepo()
	profile := &fakeProfileRepo{}
	uc := progress.NewUseCase(repo, profile, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Upsert(ctx, "user-1", "food", &domain.ProgressUpdate{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, _, calls := profile.snapshot()
		return calls == 1
	}, time.Second, 10*time.Millisecond)

	_, err = uc.Upsert(ctx, "user-1", "food", &domain.ProgressUpdate{Completed: boolPtr(true)})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, _, calls := profile.snapshot()
	assert.Equal(t, 1, calls)
}

func TestRecomputeAggregateDividesStudyTime(t *testing.T) {
	repo := newFakeProgressRepo()
	profile := &fakeProfileRepo{}
	uc := progress.NewUseCase(repo, profile, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.ProgressRecord{UserID: "user-1", LessonID: "verbs", Completed: true, TimeSpent: 60}))
	require.NoError(t, repo.Insert(ctx, &domain.ProgressRecord{UserID: "user-1", LessonID: "cases", Completed: false, TimeSpent: 30}))

	require.NoError(t, uc.RecomputeAggregate(ctx, "user-1"))

	completed, total, _ := profile.snapshot()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, total) // 90 minutes is one full hour
}

func TestInitializeSeedsCatalogOnce(t *testing.T) {
	repo := newFakeProgressRepo()
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())
	ctx := context.Background()

	first, err := uc.Initialize(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, first, len(domain.LessonCatalog()))

	// a second call must not duplicate records or touch existing state
	_, err = uc.Upsert(ctx, "user-1", "alphabet", &domain.ProgressUpdate{TimeSpent: intPtr(4)})
	require.NoError(t, err)

	second, err := uc.Initialize(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, second, len(domain.LessonCatalog()))

	record, err := repo.FindByUserAndLesson(ctx, "user-1", "alphabet")
	require.NoError(t, err)
	assert.Equal(t, 4, record.TimeSpent)
}

func TestInitializeWrapsRepositoryFailure(t *testing.T) {
	repo := newFakeProgressRepo()
	repo.failAll = errors.New("connection refused")
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())

	_, err := uc.Initialize(context.Background(), "user-1")
	require.Error(t, err)

	var initErr *domain.InitializationError
	assert.ErrorAs(t, err, &initErr)
}

func TestResetAllReseedsAndZeroesCounters(t *testing.T) {
	repo := newFakeProgressRepo()
	profile := &fakeProfileRepo{lessonsCompleted: 7, totalStudyTime: 3}
	uc := progress.NewUseCase(repo, profile, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Upsert(ctx, "user-1", "idioms", &domain.ProgressUpdate{Completed: boolPtr(true), TimeSpent: intPtr(90)})
	require.NoError(t, err)

	records, err := uc.ResetAll(ctx, "user-1")
	require.NoError(t, err)

	assert.Len(t, records, len(domain.LessonCatalog()))
	for _, record := range records {
		assert.False(t, record.Completed)
		assert.Nil(t, record.Score)
		assert.Zero(t, record.TimeSpent)
	}
	assert.Equal(t, 1, profile.resetCalls)
}

func TestFetchAllFiltersByLesson(t *testing.T) {
	repo := newFakeProgressRepo()
	uc := progress.NewUseCase(repo, &fakeProfileRepo{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Initialize(ctx, "user-1")
	require.NoError(t, err)

	all, err := uc.FetchAll(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, len(domain.LessonCatalog()))

	one, err := uc.FetchAll(ctx, "user-1", "travel")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "travel", one[0].LessonID)

	none, err := uc.FetchAll(ctx, "user-1", "no-such-lesson")
	require.NoError(t, err)
	assert.Empty(t, none)
}
