package uischema

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-confgen/pkg/forms"
)

// Decorator applies UI schema overlays to form definitions. It satisfies
// forms.Decorator and runs when a definition is registered.
type Decorator struct {
	store *Store
}

// NewDecorator builds a Decorator backed by the provided store. When store is
// nil or empty, the decorator becomes a no-op.
func NewDecorator(store *Store) *Decorator {
	return &Decorator{store: store}
}

// Decorate copies labels, placeholders and help text onto the definition.
// Overlays that name fields or groups the definition does not declare are
// rejected so typos surface at startup.
func (d *Decorator) Decorate(def *forms.Definition) error {
	if d == nil || d.store.Empty() || def == nil {
		return nil
	}

	overlay, ok := d.store.Form(string(def.Type))
	if !ok {
		return nil
	}

	if overlay.Title != "" {
		def.Title = sanitizeText(overlay.Title)
	}
	if overlay.Subtitle != "" {
		def.Subtitle = sanitizeText(overlay.Subtitle)
	}
	if overlay.SubmitLabel != "" {
		def.SubmitLabel = sanitizeText(overlay.SubmitLabel)
	}

	if err := applyGroups(def, overlay); err != nil {
		return err
	}
	return applyFields(def, overlay)
}

func applyGroups(def *forms.Definition, overlay Form) error {
	for _, path := range sortedKeys(overlay.Groups) {
		cfg := overlay.Groups[path]
		idx := groupIndex(def, path)
		if idx < 0 {
			return fmt.Errorf("uischema: form %q (file %s) references unknown group %q", overlay.Type, overlay.Source, cfg.OriginalPath)
		}
		if cfg.Label != "" {
			def.Groups[idx].Label = sanitizeText(cfg.Label)
		}
		if cfg.AddLabel != "" {
			def.Groups[idx].AddLabel = sanitizeText(cfg.AddLabel)
		}
	}
	return nil
}

func applyFields(def *forms.Definition, overlay Form) error {
	for _, path := range sortedKeys(overlay.Fields) {
		cfg := overlay.Fields[path]
		idx := fieldIndex(def, path)
		if idx < 0 {
			return fmt.Errorf("uischema: form %q (file %s) references unknown field %q", overlay.Type, overlay.Source, cfg.OriginalPath)
		}
		field := &def.Fields[idx]
		if cfg.Label != "" {
			field.Label = sanitizeText(cfg.Label)
		}
		if cfg.Placeholder != "" {
			field.Placeholder = sanitizeText(cfg.Placeholder)
		}
		if cfg.HelpText != "" {
			field.Help = sanitizeText(cfg.HelpText)
		}
	}
	return nil
}

func fieldIndex(def *forms.Definition, pattern string) int {
	for i, field := range def.Fields {
		if field.Name == pattern {
			return i
		}
	}
	return -1
}

func groupIndex(def *forms.Definition, path string) int {
	for i, group := range def.Groups {
		if group.Path == path {
			return i
		}
	}
	return -1
}

func sortedKeys[T any](values map[string]T) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
