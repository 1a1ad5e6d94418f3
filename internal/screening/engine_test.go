package screening

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

// experienceForm is one required single-choice question with a knockout below
// five years.
func experienceForm() *Form {
	return &Form{
		ID:      "form-1",
		JobID:   "job-1",
		Version: 1,
		Questions: []Question{
			{
				ID:           "experience",
				QuestionText: "Years of experience ≥ 5?",
				QuestionType: QuestionSingleChoice,
				Order:        1,
				IsRequired:   true,
				Config:       map[string]any{"options": []any{"1", "3", "5", "7", "10"}},
				Rules: []Rule{
					{
						ID:       "ko-experience",
						RuleType: RuleKnockout,
						Operator: OpLessThan,
						Value:    Number(5),
						Message:  "Insufficient experience",
						Priority: 1,
						IsActive: true,
					},
				},
			},
		},
	}
}

func TestProcessKnockout(t *testing.T) {
	result, err := Process(experienceForm(), []Answer{{QuestionID: "experience", Answer: Number(3)}})
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.True(t, result.HasKnockout)
	assert.Equal(t, "Insufficient experience", result.KnockoutReason)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, StatusRejected, result.RecommendedStatus)
	require.Len(t, result.AnswerResults, 1)
	assert.Equal(t, AnswerResult{QuestionID: "experience", IsKnockout: true, MatchedRuleID: "ko-experience"}, result.AnswerResults[0])
}

func TestProcessPassesKnockout(t *testing.T) {
	result, err := Process(experienceForm(), []Answer{{QuestionID: "experience", Answer: String("7")}})
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.False(t, result.HasKnockout)
	assert.Empty(t, result.KnockoutReason)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, StatusNew, result.RecommendedStatus)
	assert.Nil(t, result.MeetsPassingThreshold)
}

func TestProcessMissingRequiredAnswer(t *testing.T) {
	form := &Form{
		ID: "form-2",
		Questions: []Question{
			{ID: "motivation", QuestionType: QuestionTextarea, IsRequired: true},
		},
	}

	for name, answers := range map[string][]Answer{
		"no submission": nil,
		"blank string":  {{QuestionID: "motivation", Answer: String("  ")}},
		"null answer":   {{QuestionID: "motivation", Answer: Null()}},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := Process(form, answers)
			require.NoError(t, err)

			assert.False(t, result.IsValid)
			assert.Equal(t, []ValidationError{{QuestionID: "motivation", Message: RequiredAnswerMessage}}, result.ValidationErrors)
			assert.Empty(t, result.AnswerResults)
			assert.Empty(t, result.RecommendedStatus)
		})
	}
}

func TestProcessFalseAndZeroAreAnswers(t *testing.T) {
	form := &Form{
		Questions: []Question{
			{ID: "relocate", QuestionType: QuestionBoolean, IsRequired: true},
			{ID: "gaps", QuestionType: QuestionNumber, IsRequired: true},
			{ID: "skills", QuestionType: QuestionMultipleChoice, IsRequired: true},
		},
	}

	result, err := Process(form, []Answer{
		{QuestionID: "relocate", Answer: Bool(false)},
		{QuestionID: "gaps", Answer: Number(0)},
		{QuestionID: "skills", Answer: StringList()},
	})
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, []ValidationError{{QuestionID: "skills", Message: RequiredAnswerMessage}}, result.ValidationErrors)
}

func TestProcessValidationPrecedence(t *testing.T) {
	form := experienceForm()
	form.ShortlistThreshold = ptr(0)
	form.Questions = append(form.Questions, Question{
		ID:           "portfolio",
		QuestionType: QuestionText,
		IsRequired:   true,
	})

	result, err := Process(form, []Answer{{QuestionID: "experience", Answer: Number(1)}})
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.False(t, result.HasKnockout, "no knockout on an incomplete submission")
	assert.Empty(t, result.KnockoutReason)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Empty(t, result.AnswerResults)
	assert.Len(t, result.ValidationErrors, 1)
}

func TestProcessKnockoutShortCircuitsScoring(t *testing.T) {
	form := &Form{
		ShortlistThreshold: ptr(10),
		Questions: []Question{{
			ID:           "salary",
			QuestionType: QuestionNumber,
			Rules: []Rule{
				{ID: "score", RuleType: RuleScoring, Operator: OpGreaterThan, Value: Number(0), ScoreValue: 50, Priority: 2, IsActive: true},
				{ID: "ko", RuleType: RuleKnockout, Operator: OpGreaterThan, Value: Number(9000), Message: "Over budget", Priority: 1, IsActive: true},
			},
		}},
	}

	result, err := Process(form, []Answer{{QuestionID: "salary", Answer: Number(12000)}})
	require.NoError(t, err)

	require.Len(t, result.AnswerResults, 1)
	assert.True(t, result.AnswerResults[0].IsKnockout)
	assert.Equal(t, 0.0, result.AnswerResults[0].ScoreEarned)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, StatusRejected, result.RecommendedStatus)
}

// A knockout ranked after a scoring rule still wins: knockouts are scanned
// first.
func TestProcessKnockoutBeatsEarlierScoringRule(t *testing.T) {
	form := &Form{
		Questions: []Question{{
			ID:           "visa",
			QuestionType: QuestionBoolean,
			Rules: []Rule{
				{ID: "score", RuleType: RuleScoring, Operator: OpEquals, Value: Bool(false), ScoreValue: 5, Priority: 1, IsActive: true},
				{ID: "ko", RuleType: RuleKnockout, Operator: OpEquals, Value: Bool(false), Message: "Needs a visa", Priority: 2, IsActive: true},
			},
		}},
	}

	result, err := Process(form, []Answer{{QuestionID: "visa", Answer: String("false")}})
	require.NoError(t, err)

	assert.True(t, result.HasKnockout)
	assert.Equal(t, "Needs a visa", result.KnockoutReason)
	assert.Equal(t, 0.0, result.TotalScore)
}

func TestProcessFirstScoringMatchWins(t *testing.T) {
	form := &Form{
		Questions: []Question{{
			ID:           "years",
			QuestionType: QuestionNumber,
			Rules: []Rule{
				{ID: "gt5", RuleType: RuleScoring, Operator: OpGreaterThan, Value: Number(5), ScoreValue: 10, Priority: 2, IsActive: true},
				{ID: "gt10", RuleType: RuleScoring, Operator: OpGreaterThan, Value: Number(10), ScoreValue: 20, Priority: 1, IsActive: true},
			},
		}},
	}

	result, err := Process(form, []Answer{{QuestionID: "years", Answer: Number(12)}})
	require.NoError(t, err)

	require.Len(t, result.AnswerResults, 1)
	assert.Equal(t, 20.0, result.AnswerResults[0].ScoreEarned)
	assert.Equal(t, "gt10", result.AnswerResults[0].MatchedRuleID)
	assert.Equal(t, 20.0, result.TotalScore)

	result, err = Process(form, []Answer{{QuestionID: "years", Answer: Number(7)}})
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.TotalScore)
}

func TestProcessPriorityTiesKeepSuppliedOrder(t *testing.T) {
	form := &Form{
		Questions: []Question{{
			ID:           "city",
			QuestionType: QuestionText,
			Rules: []Rule{
				{ID: "first", RuleType: RuleScoring, Operator: OpContains, Value: String("ber"), ScoreValue: 3, Priority: 1, IsActive: true},
				{ID: "second", RuleType: RuleScoring, Operator: OpIsNotEmpty, ScoreValue: 1, Priority: 1, IsActive: true},
			},
		}},
	}

	result, err := Process(form, []Answer{{QuestionID: "city", Answer: String("Berlin")}})
	require.NoError(t, err)
	assert.Equal(t, "first", result.AnswerResults[0].MatchedRuleID)
	assert.Equal(t, 3.0, result.TotalScore)
}

func TestProcessSkipsInactiveRules(t *testing.T) {
	form := experienceForm()
	form.Questions[0].Rules[0].IsActive = false

	result, err := Process(form, []Answer{{QuestionID: "experience", Answer: Number(1)}})
	require.NoError(t, err)
	assert.False(t, result.HasKnockout)
	assert.Equal(t, StatusNew, result.RecommendedStatus)
}

func TestProcessShortlistThreshold(t *testing.T) {
	form := &Form{
		ShortlistThreshold: ptr(50),
		Questions: []Question{
			{
				ID:           "go",
				QuestionType: QuestionMultipleChoice,
				Rules: []Rule{
					{ID: "go-score", RuleType: RuleScoring, Operator: OpContains, Value: String("go"), ScoreValue: 30, IsActive: true},
				},
			},
			{
				ID:           "remote",
				QuestionType: QuestionBoolean,
				Rules: []Rule{
					{ID: "remote-score", RuleType: RuleScoring, Operator: OpEquals, Value: Bool(true), ScoreValue: 20, IsActive: true},
				},
			},
		},
	}

	tests := []struct {
		name   string
		remote Value
		score  float64
		status Status
	}{
		{name: "exactly at threshold", remote: Bool(true), score: 50, status: StatusShortlisted},
		{name: "below threshold", remote: Bool(false), score: 30, status: StatusNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Process(form, []Answer{
				{QuestionID: "go", Answer: StringList("go", "sql")},
				{QuestionID: "remote", Answer: tt.remote},
			})
			require.NoError(t, err)
			assert.False(t, result.HasKnockout)
			assert.Equal(t, tt.score, result.TotalScore)
			assert.Equal(t, tt.status, result.RecommendedStatus)
		})
	}
}

func TestProcessKnockoutReasonFollowsQuestionOrder(t *testing.T) {
	form := &Form{
		ShortlistThreshold: ptr(0),
		Questions: []Question{
			{
				ID:           "license",
				QuestionType: QuestionBoolean,
				Rules: []Rule{
					{ID: "ko-license", RuleType: RuleKnockout, Operator: OpEquals, Value: Bool(false), Message: "Driving license required", Priority: 10, IsActive: true},
				},
			},
			{
				ID:           "age",
				QuestionType: QuestionNumber,
				Rules: []Rule{
					{ID: "ko-age", RuleType: RuleKnockout, Operator: OpLessThan, Value: Number(18), Message: "Must be an adult", Priority: 0, IsActive: true},
				},
			},
		},
	}

	result, err := Process(form, []Answer{
		{QuestionID: "age", Answer: Number(16)},
		{QuestionID: "license", Answer: Bool(false)},
	})
	require.NoError(t, err)

	assert.True(t, result.HasKnockout)
	assert.Equal(t, "Driving license required", result.KnockoutReason)
	assert.True(t, result.AnswerResults[0].IsKnockout)
	assert.True(t, result.AnswerResults[1].IsKnockout)
	assert.Equal(t, StatusRejected, result.RecommendedStatus)
}

func TestProcessDefaultKnockoutReason(t *testing.T) {
	form := experienceForm()
	form.Questions[0].Rules[0].Message = ""

	result, err := Process(form, []Answer{{QuestionID: "experience", Answer: Number(2)}})
	require.NoError(t, err)
	assert.Equal(t, defaultKnockoutReason, result.KnockoutReason)
}

func TestProcessUnansweredOptionalQuestion(t *testing.T) {
	form := experienceForm()
	form.Questions = append(form.Questions, Question{
		ID:           "github",
		QuestionType: QuestionText,
		Rules: []Rule{
			{ID: "gh", RuleType: RuleScoring, Operator: OpIsNotEmpty, ScoreValue: 5, IsActive: true},
		},
	})

	result, err := Process(form, []Answer{{QuestionID: "experience", Answer: Number(6)}})
	require.NoError(t, err)

	require.Len(t, result.AnswerResults, 2)
	assert.Equal(t, AnswerResult{QuestionID: "github"}, result.AnswerResults[1])
}

func TestProcessAnswerHandling(t *testing.T) {
	form := experienceForm()

	// The last submission for a question wins; unknown questions are ignored.
	result, err := Process(form, []Answer{
		{QuestionID: "experience", Answer: Number(8)},
		{QuestionID: "unknown", Answer: String("ignored")},
		{QuestionID: "experience", Answer: Number(2)},
	})
	require.NoError(t, err)
	assert.True(t, result.HasKnockout)
	require.Len(t, result.AnswerResults, 1)
}

func TestProcessPassingThreshold(t *testing.T) {
	form := &Form{
		ShortlistThreshold: ptr(40),
		PassingThreshold:   ptr(25),
		Questions: []Question{{
			ID:           "years",
			QuestionType: QuestionNumber,
			Rules: []Rule{
				{ID: "senior", RuleType: RuleScoring, Operator: OpGreaterThanOrEqual, Value: Number(5), ScoreValue: 40, Priority: 1, IsActive: true},
				{ID: "mid", RuleType: RuleScoring, Operator: OpGreaterThanOrEqual, Value: Number(2), ScoreValue: 20, Priority: 2, IsActive: true},
			},
		}},
	}
	answers := []Answer{{QuestionID: "years", Answer: Number(3)}}

	result, err := Process(form, answers)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, result.RecommendedStatus, "passing threshold is reported only")
	require.NotNil(t, result.MeetsPassingThreshold)
	assert.False(t, *result.MeetsPassingThreshold)
	assert.Equal(t, 25.0, *result.PassingThreshold)

	result, err = Process(form, answers, WithPassingGate())
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.RecommendedStatus)
	assert.False(t, result.HasKnockout)

	result, err = Process(form, []Answer{{QuestionID: "years", Answer: Number(9)}}, WithPassingGate())
	require.NoError(t, err)
	assert.Equal(t, StatusShortlisted, result.RecommendedStatus)
	assert.True(t, *result.MeetsPassingThreshold)
}

func TestProcessConfigurationDefect(t *testing.T) {
	form := experienceForm()
	form.Questions[0].Rules[0].Operator = Operator("between")

	// Defects are reported before validation, even for incomplete submissions.
	result, err := Process(form, nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, CodeUnknownOperator, cfgErr.Code)

	_, err = Process(nil, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestProcessIsIdempotent(t *testing.T) {
	form := experienceForm()
	form.ShortlistThreshold = ptr(10)
	form.PassingThreshold = ptr(5)
	form.Questions = append(form.Questions, Question{
		ID:           "stack",
		QuestionType: QuestionMultipleChoice,
		Rules: []Rule{
			{ID: "k8s", RuleType: RuleScoring, Operator: OpIn, Value: StringList("go", "k8s", "sql"), ScoreValue: 15, IsActive: true},
		},
	})
	answers := []Answer{
		{QuestionID: "experience", Answer: Number(7)},
		{QuestionID: "stack", Answer: StringList("k8s", "go")},
	}

	first, err := Process(form, answers)
	require.NoError(t, err)
	second, err := Process(form, answers)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, StatusShortlisted, first.RecommendedStatus)
}

func TestProcessDoesNotMutateForm(t *testing.T) {
	form := &Form{
		Questions: []Question{{
			ID:           "q",
			QuestionType: QuestionText,
			Rules: []Rule{
				{ID: "late", RuleType: RuleScoring, Operator: OpIsNotEmpty, ScoreValue: 1, Priority: 9, IsActive: true},
				{ID: "early", RuleType: RuleScoring, Operator: OpIsNotEmpty, ScoreValue: 2, Priority: 1, IsActive: true},
			},
		}},
	}

	result, err := Process(form, []Answer{{QuestionID: "q", Answer: String("x")}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.TotalScore)
	assert.Equal(t, "late", form.Questions[0].Rules[0].ID)
	assert.Equal(t, "early", form.Questions[0].Rules[1].ID)
}

func TestResultJSON(t *testing.T) {
	result, err := Process(experienceForm(), []Answer{{QuestionID: "experience", Answer: Number(3)}})
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"formId": "form-1",
		"jobId": "job-1",
		"formVersion": 1,
		"isValid": true,
		"hasKnockout": true,
		"knockoutReason": "Insufficient experience",
		"totalScore": 0,
		"recommendedStatus": "rejected",
		"answerResults": [
			{"questionId": "experience", "isKnockout": true, "scoreEarned": 0, "matchedRuleId": "ko-experience"}
		]
	}`, string(out))
}

func TestQuestionOptions(t *testing.T) {
	q := experienceForm().Questions[0]
	assert.Equal(t, []string{"1", "3", "5", "7", "10"}, q.Options())

	assert.Nil(t, (&Question{}).Options())
	assert.Nil(t, (&Question{Config: map[string]any{"options": map[string]any{}}}).Options())
}

func TestProcessVisitsQuestionsByOrder(t *testing.T) {
	form := &Form{
		ID: "form-1",
		Questions: []Question{
			{
				ID:           "license",
				QuestionType: QuestionBoolean,
				Order:        2,
				IsRequired:   true,
				Rules: []Rule{
					{ID: "ko-license", RuleType: RuleKnockout, Operator: OpEquals, Value: Bool(false), Message: "Driving license required", IsActive: true},
				},
			},
			{
				ID:           "age",
				QuestionType: QuestionNumber,
				Order:        1,
				IsRequired:   true,
				Rules: []Rule{
					{ID: "ko-age", RuleType: RuleKnockout, Operator: OpLessThan, Value: Number(18), Message: "Must be an adult", IsActive: true},
				},
			},
		},
	}

	invalid, err := Process(form, nil)
	require.NoError(t, err)
	require.Len(t, invalid.ValidationErrors, 2)
	assert.Equal(t, "age", invalid.ValidationErrors[0].QuestionID)
	assert.Equal(t, "license", invalid.ValidationErrors[1].QuestionID)

	result, err := Process(form, []Answer{
		{QuestionID: "license", Answer: Bool(false)},
		{QuestionID: "age", Answer: Number(16)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Must be an adult", result.KnockoutReason)
	require.Len(t, result.AnswerResults, 2)
	assert.Equal(t, "age", result.AnswerResults[0].QuestionID)
	assert.Equal(t, "license", result.AnswerResults[1].QuestionID)
	assert.Equal(t, "license", form.Questions[0].ID)
}
