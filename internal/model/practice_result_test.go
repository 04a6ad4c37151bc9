package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPracticeResult(t *testing.T) {
	id := uuid.New()
	set := practice.BuiltinExerciseSets()["grammar"]
	summary := practice.Score(practice.AnswerMap{0: 0, 1: 2}, set)
	summary.ExpiredByTimeout = true

	rec, err := NewPracticeResult(practice.Result{
		SessionID:      id.String(),
		Summary:        summary,
		ElapsedSeconds: 300,
		FinishedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600)),
	})
	require.NoError(t, err)

	assert.Equal(t, id, rec.SessionID)
	assert.Equal(t, "grammar", rec.Category)
	assert.Equal(t, 33, rec.ScorePercent)
	assert.Equal(t, 2, rec.AnsweredCount)
	assert.True(t, rec.ExpiredByTimeout)
	assert.Equal(t, practice.PerformanceKeepPracticing, rec.Performance)
	assert.Equal(t, "5:00", rec.TimeTaken)
	assert.Equal(t, time.UTC, rec.FinishedAt.Location())

	var outcomes []practice.QuestionOutcome
	require.NoError(t, json.Unmarshal(rec.Outcomes, &outcomes))
	assert.Len(t, outcomes, 3)
}

func TestNewPracticeResult_BadSessionID(t *testing.T) {
	_, err := NewPracticeResult(practice.Result{SessionID: "nope"})
	assert.Error(t, err)
}

func TestNewExercisePaper_HidesAnswers(t *testing.T) {
	set := practice.BuiltinExerciseSets()["punctuation"]
	paper := NewExercisePaper(set)

	raw, err := json.Marshal(paper)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"correct_option_index"`)
	assert.NotContains(t, string(raw), `"explanation"`)
	assert.Len(t, paper.Questions, 1)
	assert.Len(t, paper.Questions[0].Options, 4)
}

func TestQuestionRoundTrip(t *testing.T) {
	set := practice.BuiltinExerciseSets()["vocabulary"]
	rows := QuestionsFromPractice("vocabulary", set.Questions)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].OrderNum)
	assert.Equal(t, set.Questions[1], rows[1].ToPractice())
}
