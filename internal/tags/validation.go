package tags

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Validator performs definition and attribute validation.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition ensures the definition has a name, a rendering strategy
// and a well-formed attribute schema.
func (v *Validator) ValidateDefinition(def interfaces.TagDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Handler == nil && strings.TrimSpace(def.Template) == "" {
		return fmt.Errorf("%w: %s needs a handler or a template", ErrInvalidDefinition, def.Name)
	}

	seen := make(map[string]struct{}, len(def.Schema.Attributes))
	for _, attr := range def.Schema.Attributes {
		name := strings.TrimSpace(attr.Name)
		if name == "" {
			return fmt.Errorf("%w: attribute name required", ErrInvalidDefinition)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidDefinition, name)
		}
		seen[name] = struct{}{}

		switch attr.Type {
		case interfaces.TagAttributeString,
			interfaces.TagAttributeInt,
			interfaces.TagAttributeBool,
			interfaces.TagAttributeURL:
		default:
			return fmt.Errorf("%w: attribute %q unknown type %q", ErrInvalidDefinition, name, attr.Type)
		}
	}
	return nil
}

// CoerceAttributes checks supplied attributes against the definition schema
// and returns a normalised map with defaults applied.
func (v *Validator) CoerceAttributes(def interfaces.TagDefinition, supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(def.Schema.Attributes))
	allowed := make(map[string]interfaces.TagAttribute, len(def.Schema.Attributes))
	for _, attr := range def.Schema.Attributes {
		allowed[attr.Name] = attr
		if attr.Default != nil {
			out[attr.Name] = attr.Default
		}
	}

	for key, value := range supplied {
		attr, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownAttribute, key, def.Name)
		}
		coerced, err := coerceValue(attr.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %v", ErrAttributeType, key, err)
		}
		if attr.Validate != nil {
			if err := attr.Validate(coerced); err != nil {
				return nil, err
			}
		}
		out[key] = coerced
	}

	for _, attr := range def.Schema.Attributes {
		if !attr.Required {
			continue
		}
		value, ok := out[attr.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, attr.Name, def.Name)
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, attr.Name, def.Name)
		}
	}
	return out, nil
}

func coerceValue(kind interfaces.TagAttributeType, value any) (any, error) {
	switch kind {
	case interfaces.TagAttributeString:
		if value == nil {
			return "", nil
		}
		return fmt.Sprint(value), nil
	case interfaces.TagAttributeInt:
		return coerceInt(value)
	case interfaces.TagAttributeBool:
		return coerceBool(value)
	case interfaces.TagAttributeURL:
		raw := strings.TrimSpace(fmt.Sprint(value))
		if _, err := url.Parse(raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %q", kind)
	}
}

func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}
