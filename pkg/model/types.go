package model

import (
	"strconv"
	"strings"
)

// FormType identifies one of the registered form definitions.
type FormType string

const (
	FormKubernetes FormType = "kubernetes"
	FormCompose    FormType = "compose"
	FormBasic      FormType = "basic"
	FormBugFix     FormType = "bugfix"
)

// FieldKind is the closed set of field kinds a form can declare. Renderers
// switch over it exhaustively; there is no open-ended fallback.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindSelect   FieldKind = "select"
	KindTextArea FieldKind = "textarea"
)

// Kinds lists every FieldKind in declaration order.
func Kinds() []FieldKind {
	return []FieldKind{KindText, KindNumber, KindSelect, KindTextArea}
}

// Valid reports whether k is one of the declared kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSelect, KindTextArea:
		return true
	default:
		return false
	}
}

// Option is a label/value pair backing Select fields. Only Value crosses the
// wire; Label is display metadata.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FieldSpec declares one field of a form. Name is a dotted path pattern where
// repeated-group entries use the "*" wildcard segment, e.g.
// "services.*.build.context".
type FieldSpec struct {
	Name        string         `json:"name"`
	Kind        FieldKind      `json:"kind"`
	Required    bool           `json:"required"`
	Rule        ValidationRule `json:"-"`
	Label       string         `json:"label,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Help        string         `json:"help,omitempty"`
	Options     []Option       `json:"options,omitempty"`
	Wire        WireShape      `json:"wire,omitempty"`
}

// WireShape controls how a text value is encoded in the outgoing payload.
type WireShape string

const (
	// WireScalar sends the value as typed (the zero value).
	WireScalar WireShape = ""
	// WireList splits comma separated text into a list of strings.
	WireList WireShape = "list"
	// WireMap parses KEY=VALUE lines into an object.
	WireMap WireShape = "map"
)

// RuleName reports a short identifier for the field's rule, used when
// describing forms.
func (f FieldSpec) RuleName() string {
	if f.Rule == nil {
		return ""
	}
	return f.Rule.Describe()
}

// FieldError is a validation failure attached to a concrete field path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements error so a single failure can travel through error
// returns when convenient.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + " " + e.Message
}

// Wildcard is the path segment standing in for any repeated-group index.
const Wildcard = "*"

// PatternOf maps a concrete path ("services.2.name") to the field pattern that
// describes it ("services.*.name").
func PatternOf(path string) string {
	if path == "" {
		return ""
	}
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		if isIndex(segment) {
			segments[i] = Wildcard
		}
	}
	return strings.Join(segments, ".")
}

// JoinPath joins non-empty dotted path segments.
func JoinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), ".")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, ".")
}

// SplitPattern splits a pattern at its first wildcard. For
// "services.*.build.context" it returns ("services", "build.context", true).
func SplitPattern(pattern string) (group, rest string, ok bool) {
	head, tail, found := strings.Cut(pattern, "."+Wildcard)
	if !found {
		return pattern, "", false
	}
	return head, strings.TrimPrefix(tail, "."), true
}

func isIndex(segment string) bool {
	if segment == "" {
		return false
	}
	_, err := strconv.Atoi(segment)
	return err == nil
}
