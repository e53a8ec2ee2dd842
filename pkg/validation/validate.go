package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
)

const requiredMessage = "is required"

// Result is the outcome of checking one value: Ok, or Fail with a message.
type Result struct {
	Failed  bool
	Message string
}

// Ok is the passing result.
func Ok() Result { return Result{} }

// Fail returns a failing result carrying message.
func Fail(message string) Result { return Result{Failed: true, Message: message} }

// Validate applies rule to value. Custom rules receive tree so they can look
// at sibling values; tree may be nil for rules that do not need it.
func Validate(path string, value any, rule model.ValidationRule, tree model.Lookup) Result {
	switch r := rule.(type) {
	case nil:
		return Ok()
	case model.NonEmpty:
		if Blank(value) {
			return Fail("must not be empty")
		}
		return Ok()
	case model.NumericRange:
		number, ok := Number(value)
		if !ok {
			return Fail("must be a number")
		}
		if number < r.Min || number > r.Max {
			return Fail(fmt.Sprintf("must be between %s and %s", formatNumber(r.Min), formatNumber(r.Max)))
		}
		return Ok()
	case model.OneOf:
		text := forms.Text(value)
		for _, allowed := range r.Values {
			if text == allowed {
				return Ok()
			}
		}
		return Fail("must be one of " + strings.Join(r.Values, ", "))
	case model.Custom:
		if r.Predicate == nil {
			return Ok()
		}
		if err := r.Predicate(path, value, tree); err != nil {
			return Fail(err.Error())
		}
		return Ok()
	case model.All:
		for _, nested := range r.Rules {
			if res := Validate(path, value, nested, tree); res.Failed {
				return res
			}
		}
		return Ok()
	default:
		return Fail(fmt.Sprintf("unsupported rule %T", rule))
	}
}

// Check validates value against spec: required blank values fail before the
// rule runs, optional blank values pass without it unless the rule asks to
// evaluate blanks.
func Check(spec model.FieldSpec, path string, value any, tree model.Lookup) Result {
	if Blank(value) {
		if spec.Required {
			return Fail(requiredMessage)
		}
		if !model.EvaluatesBlank(spec.Rule) {
			return Ok()
		}
	}
	return Validate(path, value, spec.Rule, tree)
}

// Field re-checks the single concrete path just edited, for immediate
// feedback. Unknown paths report nothing.
func Field(tree *state.Tree, path string) []model.FieldError {
	if tree == nil {
		return nil
	}
	canonical, err := tree.Canonical(path)
	if err != nil {
		return nil
	}
	spec, ok := tree.Definition().Field(model.PatternOf(canonical))
	if !ok {
		return nil
	}
	value, _ := tree.Get(canonical)
	if res := Check(spec, canonical, value, tree); res.Failed {
		return []model.FieldError{{Path: canonical, Message: res.Message}}
	}
	return nil
}

// Tree validates every concrete path of the tree, including each entry of
// every repeated group, in field order then entry order. Nothing is cached:
// cross-field rules are evaluated against the tree as it is now.
func Tree(tree *state.Tree) []model.FieldError {
	if tree == nil {
		return nil
	}
	def := tree.Definition()

	var errs []model.FieldError
	for _, group := range def.Groups {
		if group.MinEntries <= 0 {
			continue
		}
		if n := len(tree.Entries(group.Path)); n < group.MinEntries {
			errs = append(errs, model.FieldError{
				Path:    group.Path,
				Message: fmt.Sprintf("needs at least %d %s", group.MinEntries, entryNoun(group, group.MinEntries)),
			})
		}
	}
	for _, spec := range def.Fields {
		for _, path := range tree.Expand(spec.Name) {
			value, _ := tree.Get(path)
			if res := Check(spec, path, value, tree); res.Failed {
				errs = append(errs, model.FieldError{Path: path, Message: res.Message})
			}
		}
	}
	return errs
}

// ByPath indexes errors by their concrete path, keeping their order.
func ByPath(errs []model.FieldError) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, err := range errs {
		out[err.Path] = append(out[err.Path], err.Message)
	}
	return out
}

// Blank reports whether value counts as empty input.
func Blank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case model.Option:
		return strings.TrimSpace(typed.Value) == ""
	case *model.Option:
		return typed == nil || strings.TrimSpace(typed.Value) == ""
	default:
		return false
	}
}

// Number reads value as a number. Strings are parsed, so text typed into a
// number control validates the same as a decoded JSON number.
func Number(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func entryNoun(group forms.GroupSpec, n int) string {
	noun := strings.ToLower(group.Label)
	if noun == "" {
		noun = "entry"
	}
	if n == 1 {
		return noun
	}
	return noun + "s"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
