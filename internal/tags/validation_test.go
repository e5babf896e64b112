package tags

import (
	"errors"
	"testing"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

func referenceDefinition() interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:     "demo",
		Template: "<p>{{ .name }}</p>",
		Schema: interfaces.TagSchema{
			Attributes: []interfaces.TagAttribute{
				{Name: "name", Type: interfaces.TagAttributeString, Required: true},
				{Name: "depth", Type: interfaces.TagAttributeInt, Default: 2},
				{Name: "open", Type: interfaces.TagAttributeBool},
				{Name: "link", Type: interfaces.TagAttributeURL},
			},
		},
	}
}

func TestValidatorCoerceAttributes(t *testing.T) {
	v := NewValidator()

	attrs, err := v.CoerceAttributes(referenceDefinition(), map[string]any{
		"name": "ike.Init",
		"open": "true",
		"link": "/docs",
	})
	if err != nil {
		t.Fatalf("CoerceAttributes: %v", err)
	}
	if attrs["depth"] != 2 {
		t.Fatalf("expected default depth 2, got %v", attrs["depth"])
	}
	if attrs["open"] != true {
		t.Fatalf("expected open coerced to true, got %v", attrs["open"])
	}
	if attrs["link"] != "/docs" {
		t.Fatalf("expected link /docs, got %v", attrs["link"])
	}
}

func TestValidatorCoerceAttributesErrors(t *testing.T) {
	v := NewValidator()
	def := referenceDefinition()

	cases := []struct {
		name  string
		attrs map[string]any
		want  error
	}{
		{"missing required", map[string]any{}, ErrMissingAttribute},
		{"blank required", map[string]any{"name": "  "}, ErrMissingAttribute},
		{"unknown", map[string]any{"name": "x", "color": "red"}, ErrUnknownAttribute},
		{"bad int", map[string]any{"name": "x", "depth": "deep"}, ErrAttributeType},
		{"fractional int", map[string]any{"name": "x", "depth": 1.5}, ErrAttributeType},
		{"bad bool", map[string]any{"name": "x", "open": "maybe"}, ErrAttributeType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.CoerceAttributes(def, tc.attrs); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidatorCustomValidate(t *testing.T) {
	v := NewValidator()
	def := calloutDefinition()

	if _, err := v.CoerceAttributes(def, map[string]any{"type": "warning"}); err != nil {
		t.Fatalf("expected warning callout to validate: %v", err)
	}
	if _, err := v.CoerceAttributes(def, map[string]any{"type": "shout"}); err == nil {
		t.Fatal("expected unsupported callout type to fail")
	}
}

func TestValidatorValidateDefinition(t *testing.T) {
	v := NewValidator()

	def := referenceDefinition()
	def.Schema.Attributes = append(def.Schema.Attributes, interfaces.TagAttribute{Name: "name", Type: interfaces.TagAttributeString})
	if err := v.ValidateDefinition(def); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected duplicate attribute to be rejected, got %v", err)
	}

	def = referenceDefinition()
	def.Schema.Attributes[0].Type = "array"
	if err := v.ValidateDefinition(def); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected unknown type to be rejected, got %v", err)
	}
}
