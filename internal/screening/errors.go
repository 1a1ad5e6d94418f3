package screening

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every *ConfigError with errors.Is.
var ErrConfiguration = errors.New("screening form configuration defect")

// ErrorCode classifies a configuration defect.
type ErrorCode string

const (
	CodeMissingForm          ErrorCode = "MISSING_FORM"
	CodeDuplicateQuestion    ErrorCode = "DUPLICATE_QUESTION"
	CodeUnknownQuestionType  ErrorCode = "UNKNOWN_QUESTION_TYPE"
	CodeUnknownRuleType      ErrorCode = "UNKNOWN_RULE_TYPE"
	CodeUnknownOperator      ErrorCode = "UNKNOWN_OPERATOR"
	CodeOperatorNotSupported ErrorCode = "OPERATOR_NOT_SUPPORTED"
	CodeMalformedRuleValue   ErrorCode = "MALFORMED_RULE_VALUE"
	CodeRuleQuestionMismatch ErrorCode = "RULE_QUESTION_MISMATCH"
)

// ConfigError reports a form authoring defect. It is never caused by
// candidate data and retrying with other answers does not help.
type ConfigError struct {
	Code       ErrorCode
	QuestionID string
	RuleID     string
	Message    string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "screening config [%s]", e.Code)
	if e.QuestionID != "" {
		fmt.Fprintf(&b, " question %q", e.QuestionID)
	}
	if e.RuleID != "" {
		fmt.Fprintf(&b, " rule %q", e.RuleID)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

func newRuleError(code ErrorCode, q *Question, r *Rule, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:       code,
		QuestionID: q.ID,
		RuleID:     r.ID,
		Message:    fmt.Sprintf(format, args...),
	}
}
