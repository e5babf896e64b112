package tags

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Registry is the thread-safe in-memory implementation of interfaces.TagRegistry.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]interfaces.TagDefinition
	validator   DefinitionValidator
}

// DefinitionValidator abstracts definition validation so tests can swap it.
type DefinitionValidator interface {
	ValidateDefinition(def interfaces.TagDefinition) error
}

// NewRegistry constructs a registry using the supplied validator.
func NewRegistry(validator DefinitionValidator) *Registry {
	return &Registry{
		definitions: make(map[string]interfaces.TagDefinition),
		validator:   validator,
	}
}

// Register stores a definition if it passes validation and the name is free.
// Names are case-insensitive.
func (r *Registry) Register(def interfaces.TagDefinition) error {
	key := normalizeName(def.Name)
	if key == "" {
		return ErrInvalidDefinition
	}
	if r.validator != nil {
		if err := r.validator.ValidateDefinition(def); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[key]; exists {
		return ErrDuplicateDefinition
	}
	r.definitions[key] = def
	return nil
}

func (r *Registry) Get(name string) (interfaces.TagDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[normalizeName(name)]
	return def, ok
}

func (r *Registry) List() []interfaces.TagDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]interfaces.TagDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return normalizeName(result[i].Name) < normalizeName(result[j].Name)
	})
	return result
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.definitions, normalizeName(name))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ interfaces.TagRegistry = (*Registry)(nil)
