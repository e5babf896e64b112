package descriptors

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/function.schema.json
var functionSchema []byte

// Issue is a single lint finding.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	location := i.Location
	if location == "" {
		location = "#"
	} else if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	return fmt.Sprintf("%s: %s", location, i.Message)
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("function.schema.json", bytes.NewReader(functionSchema)); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile("function.schema.json")
	})
	return compiledSchema, compileErr
}

// Lint checks a raw function descriptor against the descriptor schema. It
// returns an error only when data is not JSON; schema violations come back as
// issues. Rendering never depends on the result.
func Lint(data []byte) ([]Issue, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("descriptors: lint: %w", err)
	}
	compiled, err := schema()
	if err != nil {
		return nil, fmt.Errorf("descriptors: compile schema: %w", err)
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []Issue{{Message: err.Error()}}, nil
	}
	return collectIssues(validationErr), nil
}

func collectIssues(root *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(root)
	return issues
}
