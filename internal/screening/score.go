package screening

// Status is the recommended application status.
type Status string

const (
	StatusRejected    Status = "rejected"
	StatusShortlisted Status = "shortlisted"
	StatusNew         Status = "new"
)

// AnswerResult is the per-question outcome persisted next to the application.
type AnswerResult struct {
	QuestionID    string  `json:"questionId"`
	IsKnockout    bool    `json:"isKnockout"`
	ScoreEarned   float64 `json:"scoreEarned"`
	MatchedRuleID string  `json:"matchedRuleId,omitempty"`
}

type totals struct {
	score    float64
	knockout bool
	reason   string
}

// aggregate sums scores and keeps the knockout reason of the first knocked
// out question in form order.
func aggregate(results []AnswerResult, outcomes []questionOutcome) totals {
	var t totals
	for i, res := range results {
		t.score += res.ScoreEarned
		if res.IsKnockout && !t.knockout {
			t.knockout = true
			t.reason = outcomes[i].reason
		}
	}
	return t
}

type options struct {
	passingGate bool
}

// Option tunes the recommendation policy.
type Option func(*options)

// WithPassingGate makes a score below the form's passing threshold recommend
// rejection. Without it the passing threshold is only reported.
func WithPassingGate() Option {
	return func(o *options) { o.passingGate = true }
}

func recommend(t totals, form *Form, opts options) Status {
	if t.knockout {
		return StatusRejected
	}
	if opts.passingGate && form.PassingThreshold != nil && t.score < *form.PassingThreshold {
		return StatusRejected
	}
	if form.ShortlistThreshold != nil && t.score >= *form.ShortlistThreshold {
		return StatusShortlisted
	}
	return StatusNew
}

func meetsPassing(score float64, threshold *float64) *bool {
	if threshold == nil {
		return nil
	}
	ok := score >= *threshold
	return &ok
}
