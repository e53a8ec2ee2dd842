package uischema_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-confgen/pkg/uischema"
)

func TestLoadFS_JSONAndYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(`{"forms":{"basic":{"title":"Basic","fields":{"input":{"label":"Prompt"}}}}}`)},
		"b.yaml": {Data: []byte("forms:\n  compose:\n    fields:\n      services[].name:\n        label: Name\n")},
		"c.txt":  {Data: []byte("ignored")},
	}
	store, err := uischema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	basic, ok := store.Form("basic")
	if !ok || basic.Title != "Basic" {
		t.Fatalf("basic overlay missing: %#v", basic)
	}
	compose, ok := store.Form("compose")
	if !ok {
		t.Fatalf("compose overlay missing")
	}
	want := map[string]uischema.FieldConfig{
		"services.*.name": {Label: "Name", OriginalPath: "services[].name"},
	}
	if diff := cmp.Diff(want, compose.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"empty file": {"a.yaml": {Data: []byte("  ")}},
		"invalid":    {"a.json": {Data: []byte("{forms: [")}},
		"duplicate form": {
			"a.yaml": {Data: []byte("forms:\n  basic:\n    title: A\n")},
			"b.yaml": {Data: []byte("forms:\n  basic:\n    title: B\n")},
		},
		"duplicate field": {
			"a.yaml": {Data: []byte("forms:\n  compose:\n    fields:\n      services[].name: {label: A}\n      services.*.name: {label: B}\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := uischema.LoadFS(fsys); err == nil || !strings.HasPrefix(err.Error(), "uischema:") {
				t.Fatalf("expected uischema error, got %v", err)
			}
		})
	}
}

func TestLoadFS_NilIsEmpty(t *testing.T) {
	store, err := uischema.LoadFS(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store")
	}
}

func TestDefaultCoversBuiltinForms(t *testing.T) {
	store, err := uischema.Default()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	for _, formType := range []string{"kubernetes", "compose", "basic", "bugfix"} {
		if _, ok := store.Form(formType); !ok {
			t.Fatalf("embedded overlays miss %s", formType)
		}
	}
}

func TestNormalizeFieldPath(t *testing.T) {
	cases := map[string]string{
		"services[].build.context": "services.*.build.context",
		"services.*.name":          "services.*.name",
		"lb_nodes[]":               "lb_nodes.*",
		" version ":                "version",
		"":                         "",
	}
	for input, want := range cases {
		if got := uischema.NormalizeFieldPath(input); got != want {
			t.Fatalf("NormalizeFieldPath(%q) = %q, want %q", input, got, want)
		}
	}
}
