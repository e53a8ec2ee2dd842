package uischema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses JSON/YAML UI schema files.
// When fsys is nil or no schema files are present, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Form)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for formType, raw := range doc.Forms {
			id := strings.TrimSpace(formType)
			if id == "" {
				return fmt.Errorf("uischema: file %s defines an empty form type", path)
			}
			if _, exists := store.forms[id]; exists {
				return fmt.Errorf("uischema: duplicate form %q (file %s)", id, path)
			}

			form, err := normaliseForm(raw, id, path)
			if err != nil {
				return err
			}
			store.forms[id] = form
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Form returns the overlay for the supplied form type.
func (s *Store) Form(formType string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	form, ok := s.forms[formType]
	return form, ok
}

// Empty reports whether the store holds any overlays.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	Forms map[string]formFile `json:"forms" yaml:"forms"`
}

type formFile struct {
	Title       string                 `json:"title" yaml:"title"`
	Subtitle    string                 `json:"subtitle" yaml:"subtitle"`
	SubmitLabel string                 `json:"submitLabel" yaml:"submitLabel"`
	Groups      map[string]GroupConfig `json:"groups" yaml:"groups"`
	Fields      map[string]FieldConfig `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("uischema: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return documentFile{}, fmt.Errorf("uischema: parse %s: invalid JSON or YAML", source)
}

func normaliseForm(raw formFile, id, source string) (Form, error) {
	form := Form{
		Type:        id,
		Source:      source,
		Title:       strings.TrimSpace(raw.Title),
		Subtitle:    strings.TrimSpace(raw.Subtitle),
		SubmitLabel: strings.TrimSpace(raw.SubmitLabel),
		Groups:      make(map[string]GroupConfig, len(raw.Groups)),
		Fields:      make(map[string]FieldConfig, len(raw.Fields)),
	}

	for key, cfg := range raw.Fields {
		normalised := NormalizeFieldPath(key)
		if normalised == "" {
			return Form{}, fmt.Errorf("uischema: form %q (file %s) field key %q normalises to empty path", id, source, key)
		}
		if _, exists := form.Fields[normalised]; exists {
			return Form{}, fmt.Errorf("uischema: form %q (file %s) defines duplicate field path %q", id, source, normalised)
		}
		cfg.OriginalPath = key
		form.Fields[normalised] = cfg
	}

	for key, cfg := range raw.Groups {
		normalised := NormalizeFieldPath(key)
		if normalised == "" {
			return Form{}, fmt.Errorf("uischema: form %q (file %s) group key %q normalises to empty path", id, source, key)
		}
		cfg.OriginalPath = key
		form.Groups[normalised] = cfg
	}

	return form, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
