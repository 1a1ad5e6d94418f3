package forms

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/eclipseagency/jobly/internal/screening"
)

var valueType = reflect.TypeOf(screening.Value{})

// valueHook turns loosely typed JSON data into a screening.Value wherever the
// target field is one.
func valueHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != valueType {
		return data, nil
	}
	return screening.ValueOf(data)
}

func decode(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(valueHook),
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// ParseForm validates a JSON form snapshot against the form schema and
// decodes it. Semantic checks are left to screening.CheckForm.
func ParseForm(data []byte) (*screening.Form, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	if err := validateDocument("form", formSchema, raw); err != nil {
		return nil, err
	}

	applyRuleDefaults(raw)

	var form screening.Form
	if err := decode(raw, &form); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}

	return &form, nil
}

// applyRuleDefaults marks rules without an isActive flag as active, matching
// the default declared in the form schema.
func applyRuleDefaults(raw any) {
	doc, _ := raw.(map[string]any)
	questions, _ := doc["questions"].([]any)
	for _, q := range questions {
		question, _ := q.(map[string]any)
		rules, _ := question["rules"].([]any)
		for _, r := range rules {
			rule, ok := r.(map[string]any)
			if !ok {
				continue
			}
			if _, set := rule["isActive"]; !set {
				rule["isActive"] = true
			}
		}
	}
}

// ParseAnswers validates and decodes one candidate's answer submission.
func ParseAnswers(data []byte) ([]screening.Answer, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}

	if err := validateDocument("answers", answersSchema, raw); err != nil {
		return nil, err
	}

	var answers []screening.Answer
	if err := decode(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}

	return answers, nil
}
