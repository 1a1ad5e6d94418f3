package screening

import (
	"encoding/json"
	"sort"
)

// QuestionType tells which answer shape a question expects.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionTextarea       QuestionType = "textarea"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionNumber         QuestionType = "number"
	QuestionBoolean        QuestionType = "boolean"
)

// RuleType is either a knockout or a scoring rule.
type RuleType string

const (
	RuleKnockout RuleType = "KNOCKOUT"
	RuleScoring  RuleType = "SCORING"
)

// Form is an immutable snapshot of one version of a job's screening form.
type Form struct {
	ID                 string     `json:"id" mapstructure:"id"`
	JobID              string     `json:"jobId" mapstructure:"jobId"`
	Version            int        `json:"version" mapstructure:"version"`
	ShortlistThreshold *float64   `json:"shortlistThreshold,omitempty" mapstructure:"shortlistThreshold"`
	PassingThreshold   *float64   `json:"passingThreshold,omitempty" mapstructure:"passingThreshold"`
	Questions          []Question `json:"questions" mapstructure:"questions"`
}

// OrderedQuestions returns a copy of the questions sorted by Order. Questions
// sharing an Order keep their position in the snapshot.
func (f *Form) OrderedQuestions() []Question {
	questions := make([]Question, len(f.Questions))
	copy(questions, f.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	return questions
}

type Question struct {
	ID           string         `json:"id" mapstructure:"id"`
	QuestionText string         `json:"questionText" mapstructure:"questionText"`
	QuestionType QuestionType   `json:"questionType" mapstructure:"questionType"`
	Order        int            `json:"order" mapstructure:"order"`
	IsRequired   bool           `json:"isRequired" mapstructure:"isRequired"`
	Config       map[string]any `json:"config,omitempty" mapstructure:"config"`
	Rules        []Rule         `json:"rules,omitempty" mapstructure:"rules"`
}

// Options returns the choices listed under config.options, if any.
func (q *Question) Options() []string {
	raw, ok := q.Config["options"]
	if !ok {
		return nil
	}
	v, err := ValueOf(raw)
	if err != nil {
		return nil
	}
	return v.Strings()
}

type Rule struct {
	ID string `json:"id" mapstructure:"id"`
	// QuestionID is an optional back-reference; when set it must name the
	// question that owns the rule.
	QuestionID string   `json:"questionId,omitempty" mapstructure:"questionId"`
	RuleType   RuleType `json:"ruleType" mapstructure:"ruleType"`
	Operator   Operator `json:"operator" mapstructure:"operator"`
	Value      Value    `json:"value" mapstructure:"value"`
	ScoreValue float64  `json:"scoreValue" mapstructure:"scoreValue"`
	Message    string   `json:"message,omitempty" mapstructure:"message"`
	Priority   int      `json:"priority" mapstructure:"priority"`
	IsActive   bool     `json:"isActive" mapstructure:"isActive"`
}

// UnmarshalJSON treats a missing isActive as true.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	p := plain{IsActive: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// Answer is one submitted answer. A question without an Answer is unanswered.
type Answer struct {
	QuestionID string `json:"questionId" mapstructure:"questionId"`
	Answer     Value  `json:"answer" mapstructure:"answer"`
}
