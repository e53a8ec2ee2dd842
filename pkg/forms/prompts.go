package forms

import "github.com/goliatone/go-confgen/pkg/model"

// Basic is the free-text generation prompt form.
func Basic() *Definition {
	return &Definition{
		Type:  model.FormBasic,
		Title: "Basic generation",
		Fields: []model.FieldSpec{
			{Name: "input", Kind: model.KindTextArea, Required: true, Rule: model.NonEmpty{}},
		},
		Download: Download{FileName: "Basic", Source: "basic", Folder: "MyBasic"},
		Defaults: func() map[string]any {
			return map[string]any{"input": ""}
		},
	}
}

// BugFix is the bug description form.
func BugFix() *Definition {
	return &Definition{
		Type:  model.FormBugFix,
		Title: "Bug fix",
		Fields: []model.FieldSpec{
			{Name: "bug_description", Kind: model.KindTextArea, Required: true, Rule: model.NonEmpty{}},
			{Name: "version", Kind: model.KindText},
		},
		Download: Download{FileName: "BugFix", Source: "bug-fix", Folder: "MyBugFix"},
		Defaults: func() map[string]any {
			return map[string]any{"bug_description": "", "version": ""}
		},
	}
}

// Builtin returns fresh copies of every built-in form definition.
func Builtin() []*Definition {
	return []*Definition{Kubernetes(), Compose(), Basic(), BugFix()}
}
