package tags

import (
	"errors"
	"testing"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

type noopValidator struct{}

func (noopValidator) ValidateDefinition(interfaces.TagDefinition) error { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry(noopValidator{})

	def := interfaces.TagDefinition{
		Name: "Func",
		Schema: interfaces.TagSchema{
			Attributes: []interfaces.TagAttribute{
				{Name: "name", Type: interfaces.TagAttributeString, Required: true},
			},
		},
	}
	if err := registry.Register(def); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	got, ok := registry.Get("func")
	if !ok {
		t.Fatal("Get() expected case-insensitive match")
	}
	if got.Name != "Func" {
		t.Fatalf("Get() wrong definition, got %s", got.Name)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	registry := NewRegistry(noopValidator{})

	if err := registry.Register(interfaces.TagDefinition{Name: "func"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := registry.Register(interfaces.TagDefinition{Name: " FUNC "}); !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("Register() expected ErrDuplicateDefinition, got %v", err)
	}
}

func TestRegistryListSortedAndRemove(t *testing.T) {
	registry := NewRegistry(noopValidator{})
	for _, name := range []string{"function", "callout", "func"} {
		if err := registry.Register(interfaces.TagDefinition{Name: name}); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	got := registry.List()
	want := []string{"callout", "func", "function"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("List() order mismatch at %d: got %s, want %s", i, got[i].Name, name)
		}
	}

	registry.Remove("CALLOUT")
	registry.Remove("missing")
	if len(registry.List()) != 2 {
		t.Fatalf("expected 2 definitions after Remove, got %d", len(registry.List()))
	}
}

func TestRegistryUsesValidator(t *testing.T) {
	registry := NewRegistry(NewValidator())

	err := registry.Register(interfaces.TagDefinition{Name: "bare"})
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for definition without renderer, got %v", err)
	}
}
