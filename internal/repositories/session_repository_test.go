package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/engine"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheSessionRepository(cache.NewMemoryCache(), time.Hour)

	e := engine.New(engine.DefaultPassThreshold)
	s, err := e.Start("learner-1", []engine.Question{
		{ID: "1", Prompt: "Q1", Options: []string{"A", "B"}, CorrectOption: "A"},
		{ID: "2", Prompt: "Q2", Options: []string{"C", "D"}, CorrectOption: "D"},
	})
	require.NoError(t, err)
	require.NoError(t, e.SelectOption(s, "A"))
	require.NoError(t, e.ToggleReview(s))

	require.NoError(t, repo.Save(ctx, &models.SessionRecord{Session: s, LearnerName: "Ada"}))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.LearnerName)
	assert.Equal(t, s.ID, got.Session.ID)
	assert.Equal(t, "A", got.Session.Answers[0])
	assert.True(t, got.Session.Marked(0))
	assert.Equal(t, engine.StatusInProgress, got.Session.Status)
	assert.False(t, got.Recorded())

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.True(t, IsNotFoundError(err))
}

func TestCacheSessionRepository_SaveRejectsEmpty(t *testing.T) {
	repo := NewCacheSessionRepository(cache.NewMemoryCache(), time.Hour)
	assert.Error(t, repo.Save(context.Background(), &models.SessionRecord{}))
}
