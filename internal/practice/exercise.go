package practice

import (
	"context"
	"fmt"
)

// Question is a single multiple-choice item.
type Question struct {
	Prompt             string   `json:"prompt"`
	Passage            string   `json:"passage"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Validate checks that the question has at least two options and that the
// correct index points at one of them.
func (q Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question needs at least 2 options, has %d: %w", len(q.Options), ErrInvalidIndex)
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("correct option %d out of range [0,%d): %w", q.CorrectOptionIndex, len(q.Options), ErrInvalidIndex)
	}
	return nil
}

// ExerciseSet is the ordered list of questions for one category.
type ExerciseSet struct {
	Category  string     `json:"category"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Validate checks every question in the set.
func (s *ExerciseSet) Validate() error {
	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy so a session never shares mutable slices with
// its provider.
func (s *ExerciseSet) Clone() *ExerciseSet {
	out := &ExerciseSet{
		Category:  s.Category,
		Title:     s.Title,
		Questions: make([]Question, len(s.Questions)),
	}
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

// AnswerMap maps a question index to the selected option index.
type AnswerMap map[int]int

func (a AnswerMap) clone() AnswerMap {
	out := make(AnswerMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ContentProvider supplies exercise sets by category id.
// Implementations return an error wrapping ErrNotFound for unknown ids.
type ContentProvider interface {
	ExerciseSet(ctx context.Context, categoryID string) (*ExerciseSet, error)
}
