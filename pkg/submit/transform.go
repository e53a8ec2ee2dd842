package submit

import (
	"math"
	"sort"
	"strings"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/validation"
)

// Transform maps plain tree values (state.Tree.Values) onto the wire payload.
// It is deterministic and pure:
//   - groups with a leaf become a plain list of that leaf's values;
//   - other groups become lists of objects, without identities;
//   - option pairs collapse to their value;
//   - list and map shaped text fields are split;
//   - blank optional numbers are omitted, integral numbers are sent as ints.
func Transform(def *forms.Definition, values map[string]any) Payload {
	out := Payload{}
	if def == nil {
		return out
	}
	for key, value := range values {
		if encoded, ok := encode(def, key, value); ok {
			out[key] = encoded
		}
	}
	return out
}

func encode(def *forms.Definition, path string, value any) (any, bool) {
	if group, ok := def.Group(path); ok {
		return encodeGroup(def, group, value), true
	}
	if spec, ok := def.Field(path); ok {
		return encodeField(spec, value)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	return encodeObject(def, path, object), true
}

func encodeGroup(def *forms.Definition, group forms.GroupSpec, value any) []any {
	entries := entriesOf(value)
	out := make([]any, 0, len(entries))
	entryPattern := model.JoinPath(group.Path, model.Wildcard)
	for _, entry := range entries {
		if group.Leaf != "" {
			spec, _ := def.Field(model.JoinPath(entryPattern, group.Leaf))
			leaf, ok := encodeField(spec, entry[group.Leaf])
			if !ok {
				leaf = ""
			}
			out = append(out, leaf)
			continue
		}
		out = append(out, encodeObject(def, entryPattern, entry))
	}
	return out
}

func encodeObject(def *forms.Definition, pattern string, object map[string]any) map[string]any {
	out := make(map[string]any, len(object))
	for key, value := range object {
		if encoded, ok := encode(def, model.JoinPath(pattern, key), value); ok {
			out[key] = encoded
		}
	}
	return out
}

func encodeField(spec model.FieldSpec, value any) (any, bool) {
	if option, ok := asOption(value); ok {
		value = option.Value
	}

	if spec.Kind == model.KindNumber {
		if validation.Blank(value) {
			return nil, false
		}
		number, ok := validation.Number(value)
		if !ok {
			return value, true
		}
		if number == math.Trunc(number) && math.Abs(number) < 1<<53 {
			return int64(number), true
		}
		return number, true
	}

	switch spec.Wire {
	case model.WireList:
		return splitList(forms.Text(value)), true
	case model.WireMap:
		return splitMap(forms.Text(value)), true
	}
	if value == nil {
		return "", true
	}
	return value, true
}

func asOption(value any) (model.Option, bool) {
	switch typed := value.(type) {
	case model.Option:
		return typed, true
	case *model.Option:
		if typed == nil {
			return model.Option{}, false
		}
		return *typed, true
	case map[string]any:
		// Option pairs decoded from JSON.
		label, hasLabel := typed["label"].(string)
		val, hasValue := typed["value"].(string)
		if hasLabel && hasValue && len(typed) == 2 {
			return model.Option{Label: label, Value: val}, true
		}
	}
	return model.Option{}, false
}

func entriesOf(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if object, ok := item.(map[string]any); ok {
				out = append(out, object)
			}
		}
		return out
	default:
		return nil
	}
}

// splitList turns "80:80, 443:443" into ["80:80", "443:443"].
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitMap turns KEY=VALUE lines into an object. Lines without "=" become
// keys with an empty value; later duplicates win.
func splitMap(raw string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// Keys returns the payload keys sorted, for logging.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
