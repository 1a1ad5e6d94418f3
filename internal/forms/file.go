package forms

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/eclipseagency/jobly/internal/screening"
)

func LoadForm(path string) (*screening.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	form, err := ParseForm(data)
	if err != nil {
		return nil, fmt.Errorf("form %q: %w", path, err)
	}
	return form, nil
}

// LoadAnswers reads one submission. An empty file is an empty submission.
func LoadAnswers(path string) ([]screening.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, nil
	}

	answers, err := ParseAnswers(data)
	if err != nil {
		return nil, fmt.Errorf("answers %q: %w", path, err)
	}
	return answers, nil
}

// Encode writes v as indented JSON.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile replaces path with the JSON encoding of v.
func WriteFile(path string, v any) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	return encodeAndClose(file, v)
}

// DumpToTmpFile writes v to a new temporary file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if err := encodeAndClose(file, v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// encodeAndClose always closes w. A close failure is reported when the
// encoding itself succeeded.
func encodeAndClose(w io.WriteCloser, v any) error {
	err := Encode(w, v)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	return err
}
