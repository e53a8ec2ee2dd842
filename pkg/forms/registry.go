package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-confgen/pkg/model"
)

// ErrUnknownForm is returned when a form type has not been registered.
var ErrUnknownForm = errors.New("forms: unknown form type")

// Option configures a Registry.
type Option func(*Registry)

// WithDecorators registers decorators applied to every definition at
// registration time, in order.
func WithDecorators(decorators ...Decorator) Option {
	return func(r *Registry) {
		r.decorators = append(r.decorators, decorators...)
	}
}

// WithLabeler overrides the function that derives labels for fields that
// still have none after decoration.
func WithLabeler(labeler func(string) string) Option {
	return func(r *Registry) {
		if labeler != nil {
			r.labeler = labeler
		}
	}
}

// Registry stores form definitions by type. Definitions are cloned and
// decorated on registration and treated as immutable afterwards.
type Registry struct {
	mu          sync.RWMutex
	definitions map[model.FormType]*Definition
	decorators  []Decorator
	labeler     func(string) string
}

// NewRegistry creates an empty registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		definitions: make(map[model.FormType]*Definition),
		labeler:     DefaultLabeler,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// NewBuiltinRegistry returns a registry holding the built-in forms.
func NewBuiltinRegistry(options ...Option) (*Registry, error) {
	r := NewRegistry(options...)
	for _, def := range Builtin() {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates, decorates and stores def. Duplicate types are errors.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.New("forms: definition is required")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	stored := def.Clone()
	for _, decorator := range r.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(stored); err != nil {
			return fmt.Errorf("forms: decorate %s: %w", def.Type, err)
		}
	}
	r.applyLabels(stored)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[stored.Type]; exists {
		return fmt.Errorf("forms: form %q already registered", stored.Type)
	}
	r.definitions[stored.Type] = stored
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition registered for formType.
func (r *Registry) Get(formType model.FormType) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[formType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, formType)
	}
	return def, nil
}

// Describe returns the ordered field specs of formType.
func (r *Registry) Describe(formType model.FormType) ([]model.FieldSpec, error) {
	def, err := r.Get(formType)
	if err != nil {
		return nil, err
	}
	return def.Clone().Fields, nil
}

// Has reports whether formType is registered.
func (r *Registry) Has(formType model.FormType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.definitions[formType]
	return ok
}

// List returns the registered form types sorted by name.
func (r *Registry) List() []model.FormType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.FormType, 0, len(r.definitions))
	for formType := range r.definitions {
		types = append(types, formType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *Registry) applyLabels(def *Definition) {
	if r.labeler == nil {
		return
	}
	for i := range def.Fields {
		if def.Fields[i].Label != "" {
			continue
		}
		def.Fields[i].Label = r.labeler(lastSegment(def.Fields[i].Name))
	}
	for i := range def.Groups {
		if def.Groups[i].Label == "" {
			def.Groups[i].Label = r.labeler(def.Groups[i].Path)
		}
		if def.Groups[i].AddLabel == "" {
			def.Groups[i].AddLabel = "Add " + strings.ToLower(def.Groups[i].Label)
		}
	}
	if def.Title == "" {
		def.Title = r.labeler(string(def.Type))
	}
}
