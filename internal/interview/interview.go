package interview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/eclipseagency/jobly/internal/screening"
)

const (
	PromptYes  = "Yes"
	PromptNo   = "No"
	PromptSkip = "Skip"
	PromptDone = "Done"
)

// Prompter asks the user one thing at a time.
type Prompter interface {
	Select(label string, items []string) (string, error)
	Input(label string, validate func(string) error) (string, error)
}

// Terminal is the promptui-backed Prompter.
type Terminal struct{}

func (Terminal) Select(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(len(items), 10),
	}
	_, selected, err := prompt.Run()
	return selected, err
}

func (Terminal) Input(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: promptui.ValidateFunc(validate),
	}
	return prompt.Run()
}

// Collect walks the form questions in display order and returns the answers
// given. Skipped optional questions produce no answer.
func Collect(form *screening.Form, p Prompter) ([]screening.Answer, error) {
	if form == nil {
		return nil, errors.New("no screening form supplied")
	}

	questions := form.OrderedQuestions()

	answers := make([]screening.Answer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		value, err := ask(q, p)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if value.IsEmpty() {
			continue
		}
		answers = append(answers, screening.Answer{QuestionID: q.ID, Answer: value})
	}

	return answers, nil
}

func label(q *screening.Question) string {
	text := strings.TrimSpace(q.QuestionText)
	if text == "" {
		text = q.ID
	}
	if q.IsRequired {
		text += " *"
	}
	return text
}

func ask(q *screening.Question, p Prompter) (screening.Value, error) {
	options := q.Options()

	switch q.QuestionType {
	case screening.QuestionBoolean:
		selected, err := p.Select(label(q), withSkip(q, []string{PromptYes, PromptNo}))
		if err != nil || selected == PromptSkip {
			return screening.Null(), err
		}
		return screening.Bool(selected == PromptYes), nil

	case screening.QuestionNumber:
		raw, err := p.Input(label(q), numberValidator(q.IsRequired))
		if err != nil || strings.TrimSpace(raw) == "" {
			return screening.Null(), err
		}
		n, _ := screening.String(raw).Number()
		return screening.Number(n), nil

	case screening.QuestionSingleChoice:
		if len(options) == 0 {
			return askText(q, p)
		}
		selected, err := p.Select(label(q), withSkip(q, options))
		if err != nil || selected == PromptSkip {
			return screening.Null(), err
		}
		return screening.String(selected), nil

	case screening.QuestionMultipleChoice:
		if len(options) == 0 {
			raw, err := p.Input(label(q)+" (comma separated)", textValidator(q.IsRequired))
			if err != nil {
				return screening.Null(), err
			}
			return screening.StringList(splitList(raw)...), nil
		}
		return askMany(q, p, options)

	default:
		return askText(q, p)
	}
}

func askText(q *screening.Question, p Prompter) (screening.Value, error) {
	raw, err := p.Input(label(q), textValidator(q.IsRequired))
	if err != nil {
		return screening.Null(), err
	}
	return screening.String(strings.TrimSpace(raw)), nil
}

// askMany offers the remaining options until the user picks Done.
func askMany(q *screening.Question, p Prompter, options []string) (screening.Value, error) {
	remaining := append([]string(nil), options...)
	var picked []string

	for len(remaining) > 0 {
		items := remaining
		if len(picked) > 0 || !q.IsRequired {
			items = append(append([]string(nil), remaining...), PromptDone)
		}

		selected, err := p.Select(fmt.Sprintf("%s [%s]", label(q), strings.Join(picked, ", ")), items)
		if err != nil {
			return screening.Null(), err
		}
		if selected == PromptDone {
			break
		}

		picked = append(picked, selected)
		remaining = without(remaining, selected)
	}

	return screening.StringList(picked...), nil
}

func withSkip(q *screening.Question, items []string) []string {
	if q.IsRequired {
		return items
	}
	return append(append([]string(nil), items...), PromptSkip)
}

func without(items []string, drop string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != drop {
			out = append(out, item)
		}
	}
	return out
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func textValidator(required bool) func(string) error {
	return func(s string) error {
		if required && strings.TrimSpace(s) == "" {
			return errors.New(screening.RequiredAnswerMessage)
		}
		return nil
	}
}

func numberValidator(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errors.New(screening.RequiredAnswerMessage)
			}
			return nil
		}
		if _, ok := screening.String(s).Number(); !ok {
			return errors.New("enter a number")
		}
		return nil
	}
}
