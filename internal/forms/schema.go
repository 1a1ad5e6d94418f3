package forms

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schema/form.schema.json
	formSchemaJSON []byte
	//go:embed schema/answers.schema.json
	answersSchemaJSON []byte
)

var (
	formSchema    = compile(formSchemaJSON)
	answersSchema = compile(answersSchemaJSON)
)

func compile(raw []byte) func() (*gojsonschema.Schema, error) {
	return sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	})
}

// SchemaError lists every structural problem found in a document.
type SchemaError struct {
	Document string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match schema: %s", e.Document, strings.Join(e.Problems, "; "))
}

func validateDocument(name string, schema func() (*gojsonschema.Schema, error), doc any) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile %s schema: %w", name, err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}

	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return &SchemaError{Document: name, Problems: problems}
	}

	return nil
}
