package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/validate"
	ihttp "github.com/kartuli-app/kartuli-backend/internal/interfaces/http"
	"github.com/kartuli-app/kartuli-backend/internal/interfaces/http/middleware"
	"github.com/kartuli-app/kartuli-backend/internal/mail"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	records []*domain.ProgressRecord
	upserts int
}

func (s *stubUseCase) FetchAll(ctx context.Context, userID, lessonID string) ([]*domain.ProgressRecord, error) {
	if lessonID == "" {
		return s.records, nil
	}
	for _, record := range s.records {
		if record.LessonID == lessonID {
			return []*domain.ProgressRecord{record}, nil
		}
	}
	return []*domain.ProgressRecord{}, nil
}

func (s *stubUseCase) Upsert(ctx context.Context, userID, lessonID string, update *domain.ProgressUpdate) (*domain.ProgressRecord, error) {
	s.upserts++
	record := &domain.ProgressRecord{ID: "rec-1", UserID: userID, LessonID: lessonID}
	if update.Completed != nil {
		record.Completed = *update.Completed
	}
	return record, nil
}

func (s *stubUseCase) RecomputeAggregate(ctx context.Context, userID string) error { return nil }

func (s *stubUseCase) ResetAll(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	return s.records, nil
}

func (s *stubUseCase) Initialize(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	return s.records, nil
}

func newProgressContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, &auth.Principal{ID: "user-1", Email: "student@example.com"})
	return c, rec
}

func TestGetProgressReturnsAllRecords(t *testing.T) {
	uc := &stubUseCase{records: []*domain.ProgressRecord{
		{ID: "r1", UserID: "user-1", LessonID: "alphabet"},
		{ID: "r2", UserID: "user-1", LessonID: "greetings"},
	}}
	handler := ihttp.NewProgressHandler(uc, nopProfileRepo{}, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodGet, "/api/v1/progress/", "")
	require.NoError(t, handler.HandleGetProgress(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alphabet")
	assert.Contains(t, rec.Body.String(), "greetings")
}

func TestGetProgressFiltersByLesson(t *testing.T) {
	uc := &stubUseCase{records: []*domain.ProgressRecord{
		{ID: "r1", UserID: "user-1", LessonID: "alphabet"},
		{ID: "r2", UserID: "user-1", LessonID: "greetings"},
	}}
	handler := ihttp.NewProgressHandler(uc, nopProfileRepo{}, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodGet, "/api/v1/progress/?lesson_id=greetings", "")
	require.NoError(t, handler.HandleGetProgress(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alphabet")
	assert.Contains(t, rec.Body.String(), "greetings")
}

func TestUpdateProgressRejectsOutOfRangeScore(t *testing.T) {
	uc := &stubUseCase{}
	handler := ihttp.NewProgressHandler(uc, nopProfileRepo{}, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodPost, "/api/v1/progress/alphabet", `{"score":120}`)
	c.SetParamNames("lesson_id")
	c.SetParamValues("alphabet")
	require.NoError(t, handler.HandleUpdateProgress(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, uc.upserts)
}

func TestUpdateProgressAppliesUpdate(t *testing.T) {
	uc := &stubUseCase{}
	handler := ihttp.NewProgressHandler(uc, nopProfileRepo{}, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodPost, "/api/v1/progress/alphabet", `{"completed":true,"time_spent":12}`)
	c.SetParamNames("lesson_id")
	c.SetParamValues("alphabet")
	require.NoError(t, handler.HandleUpdateProgress(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, uc.upserts)
	assert.Contains(t, rec.Body.String(), `"completed":true`)
}

type stubMailer struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (s *stubMailer) Send(ctx context.Context, msg *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func TestContactRequiresAllFields(t *testing.T) {
	mailer := &stubMailer{}
	handler := ihttp.NewContactHandler(mailer, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodPost, "/api/v1/contact",
		`{"name":"Nino","email":"nino@example.com","subject":"Hello"}`)
	require.NoError(t, handler.HandleSendMessage(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mailer.messages)
}

func TestContactRelaysMessage(t *testing.T) {
	mailer := &stubMailer{}
	handler := ihttp.NewContactHandler(mailer, validate.NewValidator())

	c, rec := newProgressContext(t, http.MethodPost, "/api/v1/contact",
		`{"name":"Nino","email":"nino@example.com","subject":"Hello","message":"გამარჯობა"}`)
	require.NoError(t, handler.HandleSendMessage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Len(t, mailer.messages, 1)
	assert.Equal(t, "Hello", mailer.messages[0].Subject)
}
