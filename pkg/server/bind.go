package server

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/renderers/web"
	"github.com/goliatone/go-confgen/pkg/state"
)

// Posted is a form page decoded back onto plain tree values.
type Posted struct {
	Values map[string]any
	// Open holds the expanded entry identity per group.
	Open map[string]string
}

// Bind rebuilds tree values from a posted page. Top-level fields missing
// from the post keep their defaults. A group is taken from the post only
// when its accordion marker was posted; its entries are read in the posted
// order and keep their identities.
func Bind(def *forms.Definition, form url.Values) Posted {
	posted := Posted{Values: def.DefaultValues(), Open: make(map[string]string)}

	for _, spec := range def.Fields {
		if _, _, inGroup := model.SplitPattern(spec.Name); inGroup {
			continue
		}
		if raw, ok := form[spec.Name]; ok && len(raw) > 0 {
			posted.Values[spec.Name] = bindValue(spec, raw[0])
		}
	}

	for _, group := range def.Groups {
		openKey := model.JoinPath(group.Path, web.OpenField)
		if _, ok := form[openKey]; !ok {
			continue
		}
		posted.Open[group.Path] = form.Get(openKey)

		ids := uniqueIDs(form[model.JoinPath(group.Path, web.OrderField)])
		entries := make([]state.Entry, 0, len(ids))
		prefix := model.JoinPath(group.Path, model.Wildcard) + "."
		for _, id := range ids {
			values := group.NewEntry()
			for _, spec := range def.GroupFields(group.Path) {
				leaf := strings.TrimPrefix(spec.Name, prefix)
				raw, ok := form[model.JoinPath(group.Path, id, leaf)]
				if !ok || len(raw) == 0 {
					continue
				}
				setLeaf(values, leaf, bindValue(spec, raw[0]))
			}
			entries = append(entries, state.Entry{ID: id, Values: values})
		}
		posted.Values[group.Path] = entries
	}
	return posted
}

func bindValue(spec model.FieldSpec, raw string) any {
	if spec.Kind != model.KindSelect {
		return raw
	}
	for _, option := range spec.Options {
		if option.Value == raw {
			return option
		}
	}
	// Kept so OneOf reports it instead of silently falling back.
	return model.Option{Label: raw, Value: raw}
}

// setLeaf writes value at a dotted leaf such as "build.context".
func setLeaf(values map[string]any, leaf string, value any) {
	segments := strings.Split(leaf, ".")
	current := values
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
