package screening

// Result is the sole output of Process. When IsValid is false only
// ValidationErrors and the form identity are set.
type Result struct {
	FormID      string `json:"formId"`
	JobID       string `json:"jobId"`
	FormVersion int    `json:"formVersion"`

	IsValid          bool              `json:"isValid"`
	ValidationErrors []ValidationError `json:"validationErrors,omitempty"`

	HasKnockout       bool           `json:"hasKnockout"`
	KnockoutReason    string         `json:"knockoutReason,omitempty"`
	TotalScore        float64        `json:"totalScore"`
	RecommendedStatus Status         `json:"recommendedStatus,omitempty"`
	AnswerResults     []AnswerResult `json:"answerResults,omitempty"`

	ShortlistThreshold    *float64 `json:"shortlistThreshold,omitempty"`
	PassingThreshold      *float64 `json:"passingThreshold,omitempty"`
	MeetsPassingThreshold *bool    `json:"meetsPassingThreshold,omitempty"`
}

// Process screens one submission against one form snapshot. Questions are
// visited in Order, which fixes the order of validation errors, answer
// results and the knockout reason. It returns a
// *ConfigError when the form itself is defective; missing required answers
// are reported in the Result instead. Process holds no state and is safe for
// concurrent use.
func Process(form *Form, answers []Answer, opts ...Option) (*Result, error) {
	if err := CheckForm(form); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	result := &Result{
		FormID:      form.ID,
		JobID:       form.JobID,
		FormVersion: form.Version,
	}

	byQuestion := indexAnswers(answers)
	questions := form.OrderedQuestions()

	if errs := validate(questions, byQuestion); len(errs) > 0 {
		result.ValidationErrors = errs
		return result, nil
	}
	result.IsValid = true

	results := make([]AnswerResult, len(questions))
	outcomes := make([]questionOutcome, len(questions))
	for i := range questions {
		q := &questions[i]
		out := evaluateQuestion(q, byQuestion[q.ID])
		outcomes[i] = out
		results[i] = AnswerResult{
			QuestionID:    q.ID,
			IsKnockout:    out.knockout,
			ScoreEarned:   out.scoreEarned,
			MatchedRuleID: out.matchedRule,
		}
	}

	t := aggregate(results, outcomes)

	result.AnswerResults = results
	result.TotalScore = t.score
	result.HasKnockout = t.knockout
	result.KnockoutReason = t.reason
	result.ShortlistThreshold = copyFloat(form.ShortlistThreshold)
	result.PassingThreshold = copyFloat(form.PassingThreshold)
	result.MeetsPassingThreshold = meetsPassing(t.score, form.PassingThreshold)
	result.RecommendedStatus = recommend(t, form, o)

	return result, nil
}

// indexAnswers keys answers by question. A later submission for the same
// question replaces an earlier one.
func indexAnswers(answers []Answer) map[string]Value {
	m := make(map[string]Value, len(answers))
	for _, a := range answers {
		m[a.QuestionID] = a.Answer
	}
	return m
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
