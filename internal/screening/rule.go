package screening

import "sort"

// questionOutcome is the Rule Evaluator result for one question.
type questionOutcome struct {
	knockout    bool
	reason      string
	scoreEarned float64
	matchedRule string
}

// activeRules returns the active rules ordered by priority. Ties keep the
// supplied order. The question's own slice is left untouched.
func activeRules(q *Question) []Rule {
	rules := make([]Rule, 0, len(q.Rules))
	for _, r := range q.Rules {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules
}

// evaluateQuestion scans the rules twice. The first matching knockout ends
// the scan with no score. Otherwise the first matching scoring rule sets the
// score and ends it; scores never stack within a question.
func evaluateQuestion(q *Question, answer Value) questionOutcome {
	rules := activeRules(q)

	for i := range rules {
		r := &rules[i]
		if r.RuleType != RuleKnockout {
			continue
		}
		if r.Operator.evaluate(answer, r.Value) {
			return questionOutcome{knockout: true, reason: knockoutReason(r), matchedRule: r.ID}
		}
	}

	for i := range rules {
		r := &rules[i]
		if r.RuleType != RuleScoring {
			continue
		}
		if r.Operator.evaluate(answer, r.Value) {
			return questionOutcome{scoreEarned: r.ScoreValue, matchedRule: r.ID}
		}
	}

	return questionOutcome{}
}

const defaultKnockoutReason = "Knockout rule triggered"

func knockoutReason(r *Rule) string {
	if r.Message == "" {
		return defaultKnockoutReason
	}
	return r.Message
}
