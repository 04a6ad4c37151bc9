package practice

import "fmt"

// QuestionOutcome is the graded result for one question.
type QuestionOutcome struct {
	Index           int      `json:"index"`
	Question        Question `json:"question"`
	UserOptionIndex *int     `json:"user_option_index"`
	IsCorrect       bool     `json:"is_correct"`
}

// Performance is the tier a score falls into.
type Performance string

const (
	PerformanceExcellent      Performance = "EXCELLENT"
	PerformanceGood           Performance = "GOOD"
	PerformanceKeepPracticing Performance = "KEEP_PRACTICING"
)

// TrophyThreshold is the lowest score that earns a trophy.
const TrophyThreshold = 80

// ClassifyPerformance maps a percentage to its tier: 90 and above is
// excellent, 70 to 89 is good, anything lower needs more practice.
func ClassifyPerformance(scorePercent int) Performance {
	switch {
	case scorePercent >= 90:
		return PerformanceExcellent
	case scorePercent >= 70:
		return PerformanceGood
	default:
		return PerformanceKeepPracticing
	}
}

// Headline is the message shown above the result.
func (p Performance) Headline() string {
	switch p {
	case PerformanceExcellent:
		return "Excellent Performance!"
	case PerformanceGood:
		return "Good Job!"
	default:
		return "Keep Practicing!"
	}
}

// ResultSummary is the read-only scoring output of a finished session.
type ResultSummary struct {
	Category         string            `json:"category"`
	ScorePercent     int               `json:"score_percent"`
	Performance      Performance       `json:"performance"`
	Headline         string            `json:"headline"`
	Trophy           bool              `json:"trophy"`
	TotalQuestions   int               `json:"total_questions"`
	AnsweredCount    int               `json:"answered_count"`
	CorrectCount     int               `json:"correct_count"`
	ExpiredByTimeout bool              `json:"expired_by_timeout"`
	ElapsedSeconds   int               `json:"elapsed_seconds"`
	TimeTaken        string            `json:"time_taken"`
	Outcomes         []QuestionOutcome `json:"outcomes"`
}

func (r ResultSummary) clone() ResultSummary {
	out := r
	out.Outcomes = make([]QuestionOutcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		if o.UserOptionIndex != nil {
			v := *o.UserOptionIndex
			o.UserOptionIndex = &v
		}
		o.Question.Options = append([]string(nil), o.Question.Options...)
		out.Outcomes[i] = o
	}
	return out
}

// Score grades answers against set. It never mutates its inputs and
// unanswered questions simply count as incorrect.
func Score(answers AnswerMap, set *ExerciseSet) ResultSummary {
	if set == nil {
		out := ResultSummary{Outcomes: []QuestionOutcome{}}
		out.grade()
		return out
	}

	total := len(set.Questions)
	out := ResultSummary{
		Category:       set.Category,
		TotalQuestions: total,
		Outcomes:       make([]QuestionOutcome, total),
	}

	for i, q := range set.Questions {
		o := QuestionOutcome{Index: i, Question: q}
		o.Question.Options = append([]string(nil), q.Options...)
		if sel, ok := answers[i]; ok {
			o.UserOptionIndex = &sel
			out.AnsweredCount++
			if sel == q.CorrectOptionIndex {
				o.IsCorrect = true
				out.CorrectCount++
			}
		}
		out.Outcomes[i] = o
	}

	out.ScorePercent = Percent(out.CorrectCount, total)
	out.grade()
	return out
}

// grade fills the fields derived from ScorePercent and ElapsedSeconds.
func (r *ResultSummary) grade() {
	r.Performance = ClassifyPerformance(r.ScorePercent)
	r.Headline = r.Performance.Headline()
	r.Trophy = r.ScorePercent >= TrophyThreshold
	r.TimeTaken = FormatClock(r.ElapsedSeconds)
}

// Percent returns round-half-up(100*correct/total), or 0 when total is 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
