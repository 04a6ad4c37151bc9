package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// Category is an exercise category row.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon"`
	SortOrder     int       `json:"sort_order"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Question is a stored multiple-choice question.
type Question struct {
	ID            uuid.UUID `json:"id"`
	CategoryID    string    `json:"category_id"`
	Prompt        string    `json:"prompt"`
	Passage       string    `json:"passage"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Explanation   string    `json:"explanation"`
	OrderNum      int       `json:"order_num"`
}

// ToPractice converts the row into the session's question type.
func (q Question) ToPractice() practice.Question {
	return practice.Question{
		Prompt:             q.Prompt,
		Passage:            q.Passage,
		Options:            append([]string(nil), q.Options...),
		CorrectOptionIndex: q.CorrectOption,
		Explanation:        q.Explanation,
	}
}

// QuestionsFromPractice converts a session question list into rows for
// categoryID, numbering them in order.
func QuestionsFromPractice(categoryID string, qs []practice.Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = Question{
			CategoryID:    categoryID,
			Prompt:        q.Prompt,
			Passage:       q.Passage,
			Options:       append([]string(nil), q.Options...),
			CorrectOption: q.CorrectOptionIndex,
			Explanation:   q.Explanation,
			OrderNum:      i,
		}
	}
	return out
}

// QuestionForLearner is a question without its answer, sent while a session is open.
type QuestionForLearner struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Passage string   `json:"passage"`
	Options []string `json:"options"`
}

// ExercisePaper is the learner-facing view of an exercise set.
type ExercisePaper struct {
	Category  string               `json:"category"`
	Title     string               `json:"title"`
	Questions []QuestionForLearner `json:"questions"`
}

// NewExercisePaper strips answers and explanations from set.
func NewExercisePaper(set *practice.ExerciseSet) ExercisePaper {
	p := ExercisePaper{Category: set.Category, Title: set.Title, Questions: make([]QuestionForLearner, len(set.Questions))}
	for i, q := range set.Questions {
		p.Questions[i] = QuestionForLearner{
			Index:   i,
			Prompt:  q.Prompt,
			Passage: q.Passage,
			Options: append([]string(nil), q.Options...),
		}
	}
	return p
}
