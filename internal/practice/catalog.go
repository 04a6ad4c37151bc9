package practice

import (
	"context"
	"fmt"
	"sort"
)

// Category describes one exercise category for listings.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// BuiltinCategories lists the stock categories in cycle order.
var BuiltinCategories = []Category{
	{ID: "grammar", Name: "Grammar", Icon: "📝"},
	{ID: "vocabulary", Name: "Vocabulary", Icon: "📚"},
	{ID: "punctuation", Name: "Punctuation", Icon: "❓"},
	{ID: "style", Name: "Writing Style", Icon: "🎨"},
}

// BuiltinExerciseSets returns the stock exercise content, keyed by category id.
func BuiltinExerciseSets() map[string]*ExerciseSet {
	return map[string]*ExerciseSet{
		"grammar": {
			Category: "grammar",
			Title:    "Grammar",
			Questions: []Question{
				{
					Prompt:             "Choose the correct form of the verb:",
					Passage:            "The team _____ working on the project for three months.",
					Options:            []string{"has been", "have been", "is been", "are been"},
					CorrectOptionIndex: 0,
					Explanation:        "Use 'has been' because 'team' is treated as a singular collective noun, and we need present perfect continuous tense.",
				},
				{
					Prompt:             "Select the proper subject-verb agreement:",
					Passage:            "Neither the manager nor the employees _____ satisfied with the decision.",
					Options:            []string{"was", "were", "is", "are"},
					CorrectOptionIndex: 1,
					Explanation:        "When using 'neither...nor', the verb agrees with the subject closest to it. 'Employees' is plural, so use 'were'.",
				},
				{
					Prompt:             "Identify the correct pronoun usage:",
					Passage:            "Between you and _____, this project seems challenging.",
					Options:            []string{"I", "me", "myself", "mine"},
					CorrectOptionIndex: 1,
					Explanation:        "After prepositions like 'between', use object pronouns. 'Me' is the correct object form of 'I'.",
				},
			},
		},
		"vocabulary": {
			Category: "vocabulary",
			Title:    "Vocabulary",
			Questions: []Question{
				{
					Prompt:             "Choose the word that best fits the context:",
					Passage:            "The CEO's speech was very _____ and inspired the entire team.",
					Options:            []string{"eloquent", "elegant", "efficient", "effective"},
					CorrectOptionIndex: 0,
					Explanation:        "'Eloquent' means fluent and persuasive in speaking, which best describes an inspiring speech.",
				},
				{
					Prompt:             "Select the most appropriate synonym:",
					Passage:            "The company decided to _____ the old policy.",
					Options:            []string{"abandon", "desert", "leave", "quit"},
					CorrectOptionIndex: 0,
					Explanation:        "'Abandon' is the most formal and appropriate word for discontinuing a policy in a business context.",
				},
			},
		},
		"punctuation": {
			Category: "punctuation",
			Title:    "Punctuation",
			Questions: []Question{
				{
					Prompt:  "Choose the correctly punctuated sentence:",
					Passage: "Which sentence uses commas correctly?",
					Options: []string{
						"The meeting, which was scheduled for 3 PM was postponed.",
						"The meeting which was scheduled for 3 PM, was postponed.",
						"The meeting, which was scheduled for 3 PM, was postponed.",
						"The meeting which was scheduled for 3 PM was postponed.",
					},
					CorrectOptionIndex: 2,
					Explanation:        "Non-restrictive clauses (which provide additional information) should be set off by commas on both sides.",
				},
			},
		},
		"style": {
			Category: "style",
			Title:    "Writing Style",
			Questions: []Question{
				{
					Prompt:  "Choose the most concise version:",
					Passage: "Which sentence is most concise and clear?",
					Options: []string{
						"Due to the fact that it was raining, we cancelled the event.",
						"Because it was raining, we cancelled the event.",
						"Owing to the rain, we cancelled the event.",
						"As a result of the rain, we cancelled the event.",
					},
					CorrectOptionIndex: 1,
					Explanation:        "'Because' is the most direct and concise way to express causation in this context.",
				},
			},
		},
	}
}

// StaticProvider serves exercise sets from memory.
type StaticProvider struct {
	sets map[string]*ExerciseSet
}

// NewStaticProvider builds a provider over the given sets, keyed by their category.
func NewStaticProvider(sets ...*ExerciseSet) *StaticProvider {
	p := &StaticProvider{sets: make(map[string]*ExerciseSet, len(sets))}
	for _, s := range sets {
		p.sets[s.Category] = s.Clone()
	}
	return p
}

// NewBuiltinProvider serves the stock content.
func NewBuiltinProvider() *StaticProvider {
	p := &StaticProvider{sets: BuiltinExerciseSets()}
	return p
}

// ExerciseSet returns a copy of the set for categoryID, or ErrNotFound.
func (p *StaticProvider) ExerciseSet(_ context.Context, categoryID string) (*ExerciseSet, error) {
	s, ok := p.sets[categoryID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", categoryID, ErrNotFound)
	}
	return s.Clone(), nil
}

// CategoryIDs returns the known ids in lexical order.
func (p *StaticProvider) CategoryIDs() []string {
	ids := make([]string, 0, len(p.sets))
	for id := range p.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
