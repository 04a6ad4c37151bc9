package model

import (
	"github.com/google/uuid"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// SessionView is the API representation of a live practice session.
type SessionView struct {
	ID uuid.UUID `json:"id"`
	practice.Snapshot
}

// CreateSessionRequest is the payload for opening a practice session.
type CreateSessionRequest struct {
	Category string `json:"category" binding:"required,category_id"`
}

// SelectCategoryRequest switches an idle or finished session to another category.
type SelectCategoryRequest struct {
	Category string `json:"category" binding:"required,category_id"`
}

// RecordAnswerRequest selects an option for a question. Range checks are
// done by the session itself.
type RecordAnswerRequest struct {
	QuestionIndex *int `json:"question_index" binding:"required"`
	OptionIndex   *int `json:"option_index" binding:"required"`
}

// ListResultsQuery filters the result history.
type ListResultsQuery struct {
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
	Category string `form:"category" binding:"omitempty,category_id"`
}
