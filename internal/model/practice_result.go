package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// PracticeResult is a persisted, graded practice session.
type PracticeResult struct {
	ID               uuid.UUID            `json:"id"`
	SessionID        uuid.UUID            `json:"session_id"`
	Category         string               `json:"category"`
	ScorePercent     int                  `json:"score_percent"`
	Performance      practice.Performance `json:"performance"`
	CorrectCount     int                  `json:"correct_count"`
	AnsweredCount    int                  `json:"answered_count"`
	TotalQuestions   int                  `json:"total_questions"`
	ExpiredByTimeout bool                 `json:"expired_by_timeout"`
	ElapsedSeconds   int                  `json:"elapsed_seconds"`
	TimeTaken        string               `json:"time_taken"`
	FinishedAt       time.Time            `json:"finished_at"`
	Outcomes         json.RawMessage      `json:"outcomes"`
}

// NewPracticeResult flattens a session result for storage and transport.
func NewPracticeResult(r practice.Result) (*PracticeResult, error) {
	sessionID, err := uuid.Parse(r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	outcomes, err := json.Marshal(r.Summary.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("marshal outcomes: %w", err)
	}

	return &PracticeResult{
		SessionID:        sessionID,
		Category:         r.Summary.Category,
		ScorePercent:     r.Summary.ScorePercent,
		Performance:      practice.ClassifyPerformance(r.Summary.ScorePercent),
		CorrectCount:     r.Summary.CorrectCount,
		AnsweredCount:    r.Summary.AnsweredCount,
		TotalQuestions:   r.Summary.TotalQuestions,
		ExpiredByTimeout: r.Summary.ExpiredByTimeout,
		ElapsedSeconds:   r.ElapsedSeconds,
		TimeTaken:        practice.FormatClock(r.ElapsedSeconds),
		FinishedAt:       r.FinishedAt.UTC(),
		Outcomes:         outcomes,
	}, nil
}

// CategoryStats aggregates persisted results for one category.
type CategoryStats struct {
	Category     string  `json:"category"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
	TimeoutCount int     `json:"timeout_count"`
}
