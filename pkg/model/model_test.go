package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatternOf(t *testing.T) {
	cases := map[string]string{
		"":                            "",
		"ansible_user":                "ansible_user",
		"services.2.name":             "services.*.name",
		"k8s_master_nodes.0.value":    "k8s_master_nodes.*.value",
		"services.10.build.context":   "services.*.build.context",
		"services.id-3.build.context": "services.id-3.build.context",
	}
	for path, want := range cases {
		if got := PatternOf(path); got != want {
			t.Errorf("PatternOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestJoinAndSplitPattern(t *testing.T) {
	if got := JoinPath("services", "", " *. ", "build.context"); got != "services.*.build.context" {
		t.Fatalf("JoinPath = %q", got)
	}

	group, rest, ok := SplitPattern("services.*.build.context")
	if !ok || group != "services" || rest != "build.context" {
		t.Fatalf("SplitPattern = (%q, %q, %v)", group, rest, ok)
	}
	if _, _, ok := SplitPattern("version"); ok {
		t.Fatalf("expected top-level pattern not to split")
	}
}

func TestKindsAreValid(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Fatalf("kind %q reported invalid", kind)
		}
	}
	if FieldKind("checkbox").Valid() {
		t.Fatalf("undeclared kind reported valid")
	}
}

func TestRulesFlattenAndDescribe(t *testing.T) {
	if Rules() != nil || Rules(nil, nil) != nil {
		t.Fatalf("expected no rule for empty input")
	}
	if got := Rules(nil, NonEmpty{}); got != (NonEmpty{}) {
		t.Fatalf("single rule should be returned as is, got %#v", got)
	}

	rule := Rules(Custom{Name: "integer"}, NumericRange{Min: 1, Max: 65535}, OneOf{Values: []string{"a", "b"}})
	all, ok := rule.(All)
	if !ok {
		t.Fatalf("expected All, got %T", rule)
	}
	if diff := cmp.Diff("integer+range(1..65535)+oneOf(a|b)", all.Describe()); diff != "" {
		t.Fatalf("describe mismatch (-want +got):\n%s", diff)
	}

	spec := FieldSpec{Name: "ansible_port", Rule: rule}
	if spec.RuleName() != all.Describe() {
		t.Fatalf("RuleName = %q", spec.RuleName())
	}
	if (FieldSpec{}).RuleName() != "" {
		t.Fatalf("expected empty rule name without a rule")
	}
}

func TestEvaluatesBlank(t *testing.T) {
	if EvaluatesBlank(NonEmpty{}) {
		t.Fatalf("NonEmpty must not evaluate blank values")
	}
	nested := All{Rules: []ValidationRule{NonEmpty{}, Custom{Name: "either", EvaluateBlank: true}}}
	if !EvaluatesBlank(nested) {
		t.Fatalf("expected nested Custom to opt into blank values")
	}
}

func TestFieldErrorMessage(t *testing.T) {
	if got := (FieldError{Path: "version", Message: "is required"}).Error(); got != "version is required" {
		t.Fatalf("Error() = %q", got)
	}
	if got := (FieldError{Message: "form has no values"}).Error(); got != "form has no values" {
		t.Fatalf("Error() = %q", got)
	}
}
