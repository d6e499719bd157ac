package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== IN-MEMORY STORES =====

type questionStore struct {
	questions []*models.Question
}

func (s *questionStore) GetAll(context.Context) ([]*models.Question, error) {
	return s.questions, nil
}

func (s *questionStore) GetByID(_ context.Context, id uint) (*models.Question, error) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *questionStore) Count(context.Context) (int64, error) {
	return int64(len(s.questions)), nil
}

func (s *questionStore) CreateIfAbsent(_ context.Context, q *models.Question) (bool, error) {
	for _, existing := range s.questions {
		if existing.Prompt == q.Prompt {
			return false, nil
		}
	}
	q.ID = uint(len(s.questions) + 1)
	s.questions = append(s.questions, q)
	return true, nil
}

type attemptStore struct {
	mu       sync.Mutex
	attempts []*models.AttemptResult
}

func (s *attemptStore) Create(_ context.Context, a *models.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uint(len(s.attempts) + 1)
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *attemptStore) GetByID(_ context.Context, id uint) (*models.AttemptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *attemptStore) ListByLearner(_ context.Context, learnerID string, filters repositories.AttemptFilters) ([]*models.AttemptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AttemptResult
	for _, a := range s.attempts {
		if a.LearnerID != learnerID {
			continue
		}
		if filters.Passed != nil && a.Passed != *filters.Passed {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *attemptStore) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	list, _ := s.ListByLearner(ctx, learnerID, repositories.AttemptFilters{})
	return int64(len(list)), nil
}

// ===== FIXTURE =====

type apiFixture struct {
	router    *gin.Engine
	publisher *events.MockEventPublisher
	attempts  *attemptStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)

	questions := &questionStore{}
	attempts := &attemptStore{}
	sessions := repositories.NewCacheSessionRepository(cache.NewMemoryCache(), time.Hour)
	repo := repositories.NewRepository(questions, attempts, sessions)
	publisher := events.NewMockEventPublisher(slogger)

	manager := services.NewServiceManager(repo, publisher, slogger, validator.New(), services.ServiceManagerConfig{
		PassThreshold:     engine.DefaultPassThreshold,
		CertificatePolicy: services.PolicyLatest,
	})
	_, err := manager.QuestionImport().SeedDefaults(context.Background())
	require.NoError(t, err)

	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	NewHandlerManager(manager, HeaderAuthenticator{}, logger).SetupRoutes(router)

	return &apiFixture{router: router, publisher: publisher, attempts: attempts}
}

func (f *apiFixture) do(t *testing.T, method, path, learner string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if learner != "" {
		req.Header.Set(HeaderLearnerID, learner)
		req.Header.Set(HeaderLearnerName, "Ada Lovelace")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *apiFixture) start(t *testing.T, learner string) services.SessionResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/sessions", learner, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.SessionResponse](t, w)
}

func (f *apiFixture) answer(t *testing.T, learner, sessionID, option string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/select", learner, map[string]string{"option": option})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// ===== TESTS =====

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/questions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthenticated, decode[ErrorResponse](t, w).Code)
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestListQuestionsHidesAnswers(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/questions", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotContains(t, w.Body.String(), "correct_option")
	questions := decode[[]services.QuestionResponse](t, w)
	require.Len(t, questions, 3)
	assert.Equal(t, "What is the capital of France?", questions[0].Prompt)
}

func TestQuizFlow_PassAndCertificate(t *testing.T) {
	f := newAPIFixture(t)
	session := f.start(t, "learner-1")
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Equal(t, 3, session.TotalQuestions)

	// advancing without an answer is refused
	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/advance", "learner-1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeAnswerRequired, decode[ErrorResponse](t, w).Code)

	// submit before the last question is refused
	f.answer(t, "learner-1", session.ID, "Paris")
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/submit", "learner-1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeNotLastQuestion, decode[ErrorResponse](t, w).Code)

	for _, option := range []string{"Mars", "William Shakespeare"} {
		w = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/advance", "learner-1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, engine.OutcomeMovedNext, decode[services.AdvanceResponse](t, w).Outcome)
		f.answer(t, "learner-1", session.ID, option)
	}

	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/submit", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	advanced := decode[services.AdvanceResponse](t, w)
	assert.Equal(t, engine.OutcomeCompleted, advanced.Outcome)
	require.NotNil(t, advanced.Result)
	assert.Equal(t, 3, advanced.Result.Score)
	assert.True(t, advanced.Result.Passed)
	require.NotNil(t, advanced.Result.AttemptID)

	// completed sessions are read-only
	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/select", "learner-1", map[string]string{"option": "Paris"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID+"/result", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[services.ResultResponse](t, w)
	assert.Equal(t, *advanced.Result.AttemptID, *result.AttemptID)
	assert.Len(t, result.Review, 3)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/certificates/%d", *result.AttemptID), "learner-1", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Len(t, f.publisher.EventsOfType(events.EventCertificateRequested), 1)
	assert.Len(t, f.attempts.attempts, 1)
}

func TestQuizFlow_FailIsNotEligible(t *testing.T) {
	f := newAPIFixture(t)
	session := f.start(t, "learner-1")

	for i, option := range []string{"Berlin", "Earth", "Mark Twain"} {
		f.answer(t, "learner-1", session.ID, option)
		action := "advance"
		if i == 2 {
			action = "submit"
		}
		w := f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/"+action, "learner-1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodGet, "/api/v1/certificates/eligibility", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[services.EligibilityResponse](t, w).Eligible)

	w = f.do(t, http.MethodPost, "/api/v1/certificates/1", "learner-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeNotEligible, decode[ErrorResponse](t, w).Code)
	assert.Empty(t, f.publisher.EventsOfType(events.EventCertificateRequested))
}

func TestSessionErrors(t *testing.T) {
	f := newAPIFixture(t)
	session := f.start(t, "learner-1")

	tests := []struct {
		name       string
		method     string
		path       string
		learner    string
		body       interface{}
		wantStatus int
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/missing", "learner-1", nil, http.StatusNotFound},
		{"other learner", http.MethodGet, "/api/v1/sessions/" + session.ID, "learner-2", nil, http.StatusForbidden},
		{"retreat on first question stays put", http.MethodPost, "/api/v1/sessions/" + session.ID + "/retreat", "learner-1", nil, http.StatusOK},
		{"result before completion", http.MethodGet, "/api/v1/sessions/" + session.ID + "/result", "learner-1", nil, http.StatusConflict},
		{"blank option", http.MethodPost, "/api/v1/sessions/" + session.ID + "/select", "learner-1", map[string]string{"option": "  "}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/sessions/" + session.ID + "/select", "learner-1", []int{1}, http.StatusBadRequest},
		{"bad attempt id", http.MethodGet, "/api/v1/attempts/abc", "learner-1", nil, http.StatusBadRequest},
		{"unknown attempt", http.MethodGet, "/api/v1/attempts/42", "learner-1", nil, http.StatusNotFound},
		{"page too large", http.MethodGet, "/api/v1/attempts?limit=1000", "learner-1", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.learner, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestReviewAndRestart(t *testing.T) {
	f := newAPIFixture(t)
	session := f.start(t, "learner-1")

	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/review", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviewed := decode[services.SessionResponse](t, w)
	assert.True(t, reviewed.MarkedForReview)
	assert.Equal(t, []int{0}, reviewed.ReviewMarks)

	w = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/restart", "learner-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	fresh := decode[services.SessionResponse](t, w)
	assert.NotEqual(t, session.ID, fresh.ID)
	assert.Empty(t, fresh.ReviewMarks)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID, "learner-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttemptHistory(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []int{1, 3} {
		require.NoError(t, f.attempts.Create(ctx, &models.AttemptResult{
			LearnerID: "learner-1", Score: score, TotalQuestions: 3,
			Passed: score >= 2, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	w := f.do(t, http.MethodGet, "/api/v1/attempts", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[services.AttemptListResponse](t, w)
	require.Len(t, list.Attempts, 2)
	assert.Equal(t, 1, list.Attempts[0].Score)
	assert.Equal(t, 3, list.Attempts[1].Score)

	w = f.do(t, http.MethodGet, "/api/v1/attempts?passed=true", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[services.AttemptListResponse](t, w).Attempts, 1)

	w = f.do(t, http.MethodGet, "/api/v1/attempts/summary", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[services.AttemptSummary](t, w)
	assert.Equal(t, 2, summary.TotalAttempts)
	assert.Equal(t, uint(2), summary.Best.ID)

	w = f.do(t, http.MethodGet, "/api/v1/attempts/1", "learner-2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/attempts/export", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())
}

// ===== AUTHENTICATORS =====

type fakeTokenParser struct {
	claims *casdoorsdk.Claims
	err    error
}

func (p fakeTokenParser) ParseJwtToken(string) (*casdoorsdk.Claims, error) {
	return p.claims, p.err
}

func TestCasdoorAuthenticator(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		parser  fakeTokenParser
		want    models.Learner
		wantErr error
	}{
		{
			name:   "valid token",
			header: "Bearer token",
			parser: fakeTokenParser{claims: &casdoorsdk.Claims{User: casdoorsdk.User{Id: "u-1", DisplayName: "Ada"}}},
			want:   models.Learner{ID: "u-1", DisplayName: "Ada"},
		},
		{
			name:   "falls back to owner and name",
			header: "Bearer token",
			parser: fakeTokenParser{claims: &casdoorsdk.Claims{User: casdoorsdk.User{Owner: "org", Name: "ada"}}},
			want:   models.Learner{ID: "org/ada"},
		},
		{
			name:    "missing header",
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "not a bearer token",
			header:  "Basic abc",
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "rejected token",
			header:  "Bearer token",
			parser:  fakeTokenParser{err: errors.New("signature is invalid")},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			learner, err := (&CasdoorAuthenticator{parser: tt.parser}).Authenticate(c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, learner)
		})
	}
}
