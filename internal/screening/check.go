package screening

import "fmt"

var questionOperators = map[QuestionType]func(Operator) bool{
	QuestionText:         anyOperator,
	QuestionTextarea:     anyOperator,
	QuestionSingleChoice: anyOperator,
	QuestionMultipleChoice: func(op Operator) bool {
		return !op.numeric()
	},
	QuestionNumber: func(op Operator) bool {
		return op != OpContains && op != OpNotContains
	},
	QuestionBoolean: func(op Operator) bool {
		switch op {
		case OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty:
			return true
		}
		return false
	},
}

func anyOperator(Operator) bool { return true }

// CheckForm reports the first authoring defect in form, in form order.
// Inactive rules are checked too.
func CheckForm(form *Form) error {
	if form == nil {
		return &ConfigError{Code: CodeMissingForm, Message: "no screening form supplied"}
	}

	seen := make(map[string]struct{}, len(form.Questions))
	for i := range form.Questions {
		q := &form.Questions[i]
		if _, dup := seen[q.ID]; dup {
			return &ConfigError{
				Code:       CodeDuplicateQuestion,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("question id appears more than once (position %d)", i),
			}
		}
		seen[q.ID] = struct{}{}

		supports, ok := questionOperators[q.QuestionType]
		if !ok {
			return &ConfigError{
				Code:       CodeUnknownQuestionType,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("unknown question type %q", q.QuestionType),
			}
		}

		for j := range q.Rules {
			if err := checkRule(q, &q.Rules[j], supports); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkRule(q *Question, r *Rule, supports func(Operator) bool) error {
	if r.QuestionID != "" && r.QuestionID != q.ID {
		return newRuleError(CodeRuleQuestionMismatch, q, r,
			"rule references question %q but belongs to %q", r.QuestionID, q.ID)
	}

	switch r.RuleType {
	case RuleKnockout, RuleScoring:
	default:
		return newRuleError(CodeUnknownRuleType, q, r, "unknown rule type %q", r.RuleType)
	}

	if !r.Operator.Known() {
		return newRuleError(CodeUnknownOperator, q, r, "unknown operator %q", r.Operator)
	}

	if !supports(r.Operator) {
		return newRuleError(CodeOperatorNotSupported, q, r,
			"operator %s cannot be applied to %s questions", r.Operator, q.QuestionType)
	}

	return checkRuleValue(q, r)
}

func checkRuleValue(q *Question, r *Rule) error {
	v := r.Value
	switch r.Operator {
	case OpEquals, OpNotEquals:
		if v.IsNull() {
			return newRuleError(CodeMalformedRuleValue, q, r, "%s needs a value", r.Operator)
		}
	case OpContains, OpNotContains:
		if v.Kind() != KindString && v.Kind() != KindNumber {
			return newRuleError(CodeMalformedRuleValue, q, r,
				"%s needs a string or number, got %s", r.Operator, v.Kind())
		}
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		if _, ok := v.Number(); !ok {
			return newRuleError(CodeMalformedRuleValue, q, r,
				"%s needs a numeric value, got %s %q", r.Operator, v.Kind(), v.String())
		}
	case OpIn, OpNotIn:
		if v.Kind() != KindStringList {
			return newRuleError(CodeMalformedRuleValue, q, r,
				"%s needs a list value, got %s", r.Operator, v.Kind())
		}
	}
	return nil
}
