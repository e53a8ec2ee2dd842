package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-confgen/pkg/model"
)

// GroupSpec declares a repeated group: an ordered list of sub-trees sharing
// the field specs whose pattern starts with Path + ".*".
type GroupSpec struct {
	// Path is the dotted path of the group inside the tree.
	Path string
	// Label names a single entry ("Master node", "Service").
	Label string
	// AddLabel is the caption of the append control.
	AddLabel string
	// Leaf names the scalar leaf a group collapses to on the wire. When set,
	// the group is sent as a plain sequence of that leaf's values.
	Leaf string
	// ProtectFirst keeps the first entry from ever being removed so the group
	// always holds at least one row.
	ProtectFirst bool
	// MinEntries is checked at submission time.
	MinEntries int
	// Template returns the empty sub-tree used when a new entry is appended.
	Template func() map[string]any
}

// NewEntry returns a fresh template value, never nil.
func (g GroupSpec) NewEntry() map[string]any {
	if g.Template == nil {
		return map[string]any{}
	}
	entry := g.Template()
	if entry == nil {
		return map[string]any{}
	}
	return entry
}

// Download carries the per-form parameters handed to the download step.
type Download struct {
	FileName string `json:"fileName"`
	Source   string `json:"source"`
	Folder   string `json:"folder"`
}

// Definition is the immutable description of one form type.
type Definition struct {
	Type     model.FormType
	Title    string
	Subtitle string
	// SubmitLabel is the idle caption of the submit control.
	SubmitLabel string
	Fields      []model.FieldSpec
	Groups      []GroupSpec
	Download    Download
	// Defaults returns the values a freshly mounted form starts with. Groups
	// are given as []map[string]any; identities are assigned by pkg/state.
	Defaults func() map[string]any
}

// Field returns the field registered for pattern.
func (d *Definition) Field(pattern string) (model.FieldSpec, bool) {
	if d == nil {
		return model.FieldSpec{}, false
	}
	for _, field := range d.Fields {
		if field.Name == pattern {
			return field, true
		}
	}
	return model.FieldSpec{}, false
}

// Group returns the group declared at path.
func (d *Definition) Group(path string) (GroupSpec, bool) {
	if d == nil {
		return GroupSpec{}, false
	}
	for _, group := range d.Groups {
		if group.Path == path {
			return group, true
		}
	}
	return GroupSpec{}, false
}

// GroupFields returns the specs belonging to the group at path, with the
// group prefix intact.
func (d *Definition) GroupFields(path string) []model.FieldSpec {
	if d == nil {
		return nil
	}
	prefix := path + "." + model.Wildcard + "."
	var out []model.FieldSpec
	for _, field := range d.Fields {
		if strings.HasPrefix(field.Name, prefix) {
			out = append(out, field)
		}
	}
	return out
}

// Known reports whether pattern addresses a field, a group, or an object
// that contains fields. Anything else would be an orphan value.
func (d *Definition) Known(pattern string) bool {
	if d == nil || pattern == "" {
		return false
	}
	if _, ok := d.Group(pattern); ok {
		return true
	}
	for _, field := range d.Fields {
		if field.Name == pattern || strings.HasPrefix(field.Name, pattern+".") {
			return true
		}
	}
	return false
}

// DefaultValues returns a fresh copy of the mount-time defaults.
func (d *Definition) DefaultValues() map[string]any {
	if d == nil || d.Defaults == nil {
		return map[string]any{}
	}
	values := d.Defaults()
	if values == nil {
		return map[string]any{}
	}
	return values
}

// Validate checks the definition is internally consistent: unique field
// names, declared kinds, select options, and wildcard fields that belong to a
// declared group.
func (d *Definition) Validate() error {
	if d == nil {
		return errors.New("forms: definition is nil")
	}
	if strings.TrimSpace(string(d.Type)) == "" {
		return errors.New("forms: definition type is required")
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for _, field := range d.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("forms: %s: field name is required", d.Type)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("forms: %s: duplicate field %q", d.Type, name)
		}
		seen[name] = struct{}{}

		if !field.Kind.Valid() {
			return fmt.Errorf("forms: %s: field %q has unknown kind %q", d.Type, name, field.Kind)
		}
		if field.Kind == model.KindSelect && len(field.Options) == 0 {
			return fmt.Errorf("forms: %s: select field %q has no options", d.Type, name)
		}
		if group, _, ok := model.SplitPattern(name); ok {
			if _, declared := d.Group(group); !declared {
				return fmt.Errorf("forms: %s: field %q belongs to undeclared group %q", d.Type, name, group)
			}
		}
	}
	for _, group := range d.Groups {
		if len(d.GroupFields(group.Path)) == 0 {
			return fmt.Errorf("forms: %s: group %q has no fields", d.Type, group.Path)
		}
		if group.Leaf != "" {
			if _, ok := d.Field(model.JoinPath(group.Path, model.Wildcard, group.Leaf)); !ok {
				return fmt.Errorf("forms: %s: group %q leaf %q is not a field", d.Type, group.Path, group.Leaf)
			}
		}
	}
	return nil
}

// Clone returns a deep copy safe to decorate without touching the original.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := *d
	out.Fields = make([]model.FieldSpec, len(d.Fields))
	for i, field := range d.Fields {
		field.Options = append([]model.Option(nil), field.Options...)
		out.Fields[i] = field
	}
	out.Groups = append([]GroupSpec(nil), d.Groups...)
	return &out
}
