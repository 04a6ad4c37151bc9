package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds up
		{5, 8, 63}, // 62.5 rounds up
		{1, 200, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percent(tc.correct, tc.total), "%d/%d", tc.correct, tc.total)
	}
}

func TestClassifyPerformance(t *testing.T) {
	cases := []struct {
		score    int
		want     Performance
		headline string
		trophy   bool
	}{
		{0, PerformanceKeepPracticing, "Keep Practicing!", false},
		{69, PerformanceKeepPracticing, "Keep Practicing!", false},
		{70, PerformanceGood, "Good Job!", false},
		{79, PerformanceGood, "Good Job!", false},
		{80, PerformanceGood, "Good Job!", true},
		{89, PerformanceGood, "Good Job!", true},
		{90, PerformanceExcellent, "Excellent Performance!", true},
		{100, PerformanceExcellent, "Excellent Performance!", true},
	}
	for _, tc := range cases {
		got := ClassifyPerformance(tc.score)
		assert.Equal(t, tc.want, got, "score %d", tc.score)
		assert.Equal(t, tc.headline, got.Headline(), "score %d", tc.score)

		r := ResultSummary{ScorePercent: tc.score}
		r.grade()
		assert.Equal(t, tc.trophy, r.Trophy, "score %d", tc.score)
	}
}

func TestScore_GradesPerformance(t *testing.T) {
	set := threeQuestionSet("grammar")

	perfect := Score(AnswerMap{0: 0, 1: 1, 2: 2}, set)
	assert.Equal(t, 100, perfect.ScorePercent)
	assert.Equal(t, PerformanceExcellent, perfect.Performance)
	assert.True(t, perfect.Trophy)
	assert.Equal(t, "0:00", perfect.TimeTaken)

	partial := Score(AnswerMap{0: 0, 1: 1}, set)
	assert.Equal(t, 67, partial.ScorePercent)
	assert.Equal(t, PerformanceKeepPracticing, partial.Performance)
	assert.Equal(t, "Keep Practicing!", partial.Headline)
	assert.False(t, partial.Trophy)
}

func TestScore_IsPure(t *testing.T) {
	set := threeQuestionSet("grammar")
	answers := AnswerMap{0: 0, 2: 1}

	a := Score(answers, set)
	b := Score(answers, set)
	assert.Equal(t, a, b)
	assert.Equal(t, AnswerMap{0: 0, 2: 1}, answers)

	require.Len(t, a.Outcomes, 3)
	assert.True(t, a.Outcomes[0].IsCorrect)
	assert.Nil(t, a.Outcomes[1].UserOptionIndex)
	require.NotNil(t, a.Outcomes[2].UserOptionIndex)
	assert.Equal(t, 1, *a.Outcomes[2].UserOptionIndex)
	assert.False(t, a.Outcomes[2].IsCorrect)
	assert.Equal(t, 33, a.ScorePercent)
	assert.Equal(t, 2, a.AnsweredCount)
}

func TestScore_EmptySet(t *testing.T) {
	res := Score(AnswerMap{}, &ExerciseSet{Category: "empty"})
	assert.Equal(t, 0, res.ScorePercent)
	assert.Equal(t, 0, res.TotalQuestions)
	assert.Empty(t, res.Outcomes)

	res = Score(nil, nil)
	assert.Equal(t, 0, res.ScorePercent)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "5:00", FormatClock(300))
	assert.Equal(t, "2:05", FormatClock(125))
	assert.Equal(t, "0:09", FormatClock(9))
	assert.Equal(t, "0:00", FormatClock(-3))
}

func TestBuiltinContentIsValid(t *testing.T) {
	sets := BuiltinExerciseSets()
	for _, c := range BuiltinCategories {
		set, ok := sets[c.ID]
		require.True(t, ok, c.ID)
		assert.NoError(t, set.Validate(), c.ID)
		assert.NotEmpty(t, set.Questions, c.ID)
	}
	assert.Len(t, sets, len(DefaultCategoryCycle))
}
