package uischema

import "strings"

// Store keeps the parsed form overlays from UI schema documents. It is safe
// for concurrent readers when treated as immutable after construction.
type Store struct {
	forms map[string]Form
}

// Form describes the display overrides for one form type.
type Form struct {
	Type        string
	Source      string
	Title       string
	Subtitle    string
	SubmitLabel string
	Groups      map[string]GroupConfig
	Fields      map[string]FieldConfig
}

// GroupConfig customises the controls of a repeated group.
type GroupConfig struct {
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	AddLabel     string `json:"addLabel,omitempty" yaml:"addLabel,omitempty"`
	OriginalPath string `json:"-" yaml:"-"`
}

// FieldConfig customises how a single field is presented.
type FieldConfig struct {
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText     string `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	OriginalPath string `json:"-" yaml:"-"`
}

// NormalizeFieldPath converts UI schema keys into registry patterns.
// "services[].build.context" and "services.*.build.context" are equivalent.
func NormalizeFieldPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"[].", ".*.",
		"[]", ".*",
		"[", ".",
		"]", "",
	)
	normalised := replacer.Replace(trimmed)
	for strings.Contains(normalised, "..") {
		normalised = strings.ReplaceAll(normalised, "..", ".")
	}
	return strings.Trim(normalised, ".")
}
