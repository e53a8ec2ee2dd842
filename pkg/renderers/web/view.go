package web

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
)

// OrderField is the posted field carrying the entry identities of a group
// in display order: "<group>.__order".
const OrderField = "__order"

// OpenField is the posted field carrying the expanded entry of a group:
// "<group>.__open".
const OpenField = "__open"

// InstanceField is the posted field carrying the form-instance token that
// ties a page to the session kept for it by the server.
const InstanceField = "__instance"

// FormView is everything the form template needs.
type FormView struct {
	Form       string
	Action     string
	Title      string
	Subtitle   string
	Items      []ItemView
	FormErrors []string
	Notice     string
	Success    string
	Label      string
	Busy       bool
	// Instance is the form-instance token posted back with the page.
	Instance string
	// Refresh is the status URL the page reloads from while Busy.
	Refresh string
}

// ItemView is either a top-level field or a repeated group, in field order.
type ItemView struct {
	Field *FieldView
	Group *GroupView
}

// FieldView is one concrete input.
type FieldView struct {
	Name        string
	Path        string
	Label       string
	Control     string
	Value       string
	Placeholder string
	Help        string
	Required    bool
	Options     []OptionView
	Errors      []string
}

// OptionView is one select option.
type OptionView struct {
	Label    string
	Value    string
	Selected bool
}

// GroupView is a repeated group rendered as an accordion.
type GroupView struct {
	Path      string
	Label     string
	AddLabel  string
	OrderName string
	OpenName  string
	Open      string
	Entries   []EntryView
	Errors    []string
}

// EntryView is one group entry. Its inputs are named by identity, so posted
// values bind to the same entry however the list was edited.
type EntryView struct {
	ID        string
	Title     string
	Open      bool
	Removable bool
	Fields    []FieldView
}

// NewFormView projects a session onto the view model. While a submission is
// pending the previous outcome is hidden and the submit control is busy.
func NewFormView(session *submit.Session, action string) (FormView, error) {
	tree := session.Tree()
	if tree == nil {
		return FormView{}, fmt.Errorf("web: session has no tree")
	}
	def := tree.Definition()
	errs := session.Errors()

	view := FormView{
		Form:     string(def.Type),
		Action:   action,
		Title:    def.Title,
		Subtitle: def.Subtitle,
		Label:    session.Label(),
		Busy:     session.Pending(),
	}

	seen := make(map[string]bool)
	for _, spec := range def.Fields {
		groupPath, inGroup := groupOf(spec.Name)
		if !inGroup {
			field, err := newFieldView(spec, spec.Name, spec.Name, tree, errs)
			if err != nil {
				return FormView{}, err
			}
			view.Items = append(view.Items, ItemView{Field: &field})
			continue
		}
		if seen[groupPath] {
			continue
		}
		seen[groupPath] = true
		group, err := newGroupView(session, tree, groupPath, errs)
		if err != nil {
			return FormView{}, err
		}
		view.Items = append(view.Items, ItemView{Group: &group})
	}

	if view.Busy {
		return view, nil
	}
	view.Notice = sanitize(session.Notice())
	switch result := session.Last().(type) {
	case submit.Success:
		view.Success = "Saved " + result.Location
	case submit.RemoteFailure:
		for _, msg := range result.Form {
			view.FormErrors = append(view.FormErrors, sanitize(msg))
		}
	}
	return view, nil
}

func newGroupView(session *submit.Session, tree *state.Tree, groupPath string, errs map[string][]string) (GroupView, error) {
	spec, _ := tree.GroupSpec(groupPath)
	accordion := session.Accordion(groupPath)
	view := GroupView{
		Path:      groupPath,
		Label:     spec.Label,
		AddLabel:  spec.AddLabel,
		OrderName: model.JoinPath(groupPath, OrderField),
		OpenName:  model.JoinPath(groupPath, OpenField),
		Open:      accordion.Open(),
		Errors:    sanitizeAll(errs[groupPath]),
	}
	if view.AddLabel == "" {
		view.AddLabel = "Add"
	}

	prefix := model.JoinPath(groupPath, model.Wildcard) + "."
	specs := tree.Definition().GroupFields(groupPath)
	for i, entry := range tree.Entries(groupPath) {
		ev := EntryView{
			ID:        entry.ID,
			Title:     fmt.Sprintf("%s %d", entryTitle(spec), i+1),
			Open:      accordion.IsOpen(entry.ID),
			Removable: tree.Removable(groupPath, entry.ID),
		}
		for _, field := range specs {
			leaf := strings.TrimPrefix(field.Name, prefix)
			path, ok := tree.EntryPath(groupPath, entry.ID, leaf)
			if !ok {
				continue
			}
			fv, err := newFieldView(field, model.JoinPath(groupPath, entry.ID, leaf), path, tree, errs)
			if err != nil {
				return GroupView{}, err
			}
			ev.Fields = append(ev.Fields, fv)
		}
		view.Entries = append(view.Entries, ev)
	}
	return view, nil
}

func newFieldView(spec model.FieldSpec, name, path string, tree *state.Tree, errs map[string][]string) (FieldView, error) {
	control, err := controlFor(spec.Kind)
	if err != nil {
		return FieldView{}, fmt.Errorf("web: field %q: %w", spec.Name, err)
	}
	value, _ := tree.Get(path)
	label := spec.Label
	if label == "" {
		label = spec.Name
	}
	view := FieldView{
		Name:        name,
		Path:        path,
		Label:       label,
		Control:     control,
		Value:       forms.Text(value),
		Placeholder: spec.Placeholder,
		Help:        spec.Help,
		Required:    spec.Required,
		Errors:      sanitizeAll(errs[path]),
	}
	for _, option := range spec.Options {
		view.Options = append(view.Options, OptionView{
			Label:    option.Label,
			Value:    option.Value,
			Selected: option.Value == view.Value,
		})
	}
	return view, nil
}

// controlFor maps every field kind onto the control that renders it.
func controlFor(kind model.FieldKind) (string, error) {
	switch kind {
	case model.KindText:
		return "text", nil
	case model.KindNumber:
		return "number", nil
	case model.KindSelect:
		return "select", nil
	case model.KindTextArea:
		return "textarea", nil
	default:
		return "", fmt.Errorf("unsupported field kind %q", kind)
	}
}

func groupOf(pattern string) (string, bool) {
	group, _, found := strings.Cut(pattern, "."+model.Wildcard)
	return group, found
}

func entryTitle(group forms.GroupSpec) string {
	if group.Label != "" {
		return group.Label
	}
	return "Entry"
}
