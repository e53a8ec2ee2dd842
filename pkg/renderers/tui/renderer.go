package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
	"github.com/goliatone/go-confgen/pkg/validation"
)

// defaultMaxAttempts bounds re-prompting of a single field.
const defaultMaxAttempts = 10

// Renderer fills a form tree through terminal prompts.
type Renderer struct {
	driver      PromptDriver
	maxAttempts int
	theme       Theme
}

// New constructs a TUI renderer backed by the survey driver unless another
// driver is supplied.
func New(options ...Option) *Renderer {
	r := &Renderer{maxAttempts: defaultMaxAttempts}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// Fill walks the definition of tree in field order. Repeated groups prompt
// every existing entry and then offer to add another. Each answer is checked
// immediately and re-prompted while it fails; a final pass re-prompts any
// path whose cross-field rules still fail. The filled tree is returned.
func (r *Renderer) Fill(ctx context.Context, tree *state.Tree) (*state.Tree, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if tree == nil {
		return nil, errors.New("tui: tree is required")
	}
	def := tree.Definition()
	if def.Title != "" {
		if err := r.info(ctx, def.Title); err != nil {
			return nil, err
		}
	}

	visited := make(map[string]bool)
	var err error
	for _, spec := range def.Fields {
		groupPath, ok := groupOf(spec.Name)
		if !ok {
			if tree, err = r.promptPath(ctx, tree, spec, spec.Name); err != nil {
				return nil, err
			}
			continue
		}
		if visited[groupPath] {
			continue
		}
		visited[groupPath] = true
		if tree, err = r.promptGroup(ctx, tree, groupPath); err != nil {
			return nil, err
		}
	}
	return r.settle(ctx, tree)
}

func (r *Renderer) promptGroup(ctx context.Context, tree *state.Tree, groupPath string) (*state.Tree, error) {
	group, _ := tree.GroupSpec(groupPath)
	noun := strings.ToLower(entryLabel(group))
	var err error
	for _, id := range tree.IDs(groupPath) {
		if tree.Removable(groupPath, id) {
			remove, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Remove %s %d?", noun, tree.IndexOf(groupPath, id)+1),
			})
			if err != nil {
				return nil, err
			}
			if remove {
				tree = tree.Remove(groupPath, id)
				continue
			}
		}
		if tree, err = r.promptEntry(ctx, tree, group, id); err != nil {
			return nil, err
		}
	}

	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add another %s?", noun)})
		if err != nil {
			return nil, err
		}
		if !more {
			return tree, nil
		}
		next, id, err := tree.Append(groupPath, nil)
		if err != nil {
			return nil, err
		}
		if tree, err = r.promptEntry(ctx, next, group, id); err != nil {
			return nil, err
		}
	}
}

func (r *Renderer) promptEntry(ctx context.Context, tree *state.Tree, group forms.GroupSpec, id string) (*state.Tree, error) {
	index := tree.IndexOf(group.Path, id)
	if err := r.info(ctx, fmt.Sprintf("%s %d", entryLabel(group), index+1)); err != nil {
		return nil, err
	}
	prefix := model.JoinPath(group.Path, model.Wildcard) + "."
	var err error
	for _, spec := range tree.Definition().GroupFields(group.Path) {
		leaf := strings.TrimPrefix(spec.Name, prefix)
		path, ok := tree.EntryPath(group.Path, id, leaf)
		if !ok {
			continue
		}
		if tree, err = r.promptPath(ctx, tree, spec, path); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// promptPath asks for one concrete path until the answer passes the field's
// immediate check.
func (r *Renderer) promptPath(ctx context.Context, tree *state.Tree, spec model.FieldSpec, path string) (*state.Tree, error) {
	for attempt := 1; ; attempt++ {
		current, _ := tree.Get(path)
		answer, err := r.ask(ctx, spec, current)
		if err != nil {
			return nil, err
		}
		next, err := tree.Set(path, answer)
		if err != nil {
			return nil, err
		}
		errs := validation.Field(next, path)
		if len(errs) == 0 {
			return next, nil
		}
		if err := r.warn(ctx, fmt.Sprintf("Invalid %s: %s", fieldLabel(spec), errs[0].Message)); err != nil {
			return nil, err
		}
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, path)
		}
		tree = next
	}
}

// settle re-prompts whatever the whole-tree check still rejects, e.g. a rule
// that depends on a sibling answered later.
func (r *Renderer) settle(ctx context.Context, tree *state.Tree) (*state.Tree, error) {
	def := tree.Definition()
	for round := 0; ; round++ {
		errs := validation.Tree(tree)
		if len(errs) == 0 {
			return tree, nil
		}
		if r.maxAttempts > 0 && round >= r.maxAttempts {
			return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, errs[0].Path)
		}
		failure := errs[0]
		if err := r.warn(ctx, failure.Error()); err != nil {
			return nil, err
		}

		var err error
		if group, ok := def.Group(model.PatternOf(failure.Path)); ok {
			next, id, appendErr := tree.Append(failure.Path, nil)
			if appendErr != nil {
				return nil, appendErr
			}
			if tree, err = r.promptEntry(ctx, next, group, id); err != nil {
				return nil, err
			}
			continue
		}
		spec, ok := def.Field(model.PatternOf(failure.Path))
		if !ok {
			return nil, fmt.Errorf("tui: cannot prompt %q: %s", failure.Path, failure.Message)
		}
		if tree, err = r.promptPath(ctx, tree, spec, failure.Path); err != nil {
			return nil, err
		}
	}
}

func (r *Renderer) ask(ctx context.Context, spec model.FieldSpec, current any) (any, error) {
	label := fieldLabel(spec)
	help := spec.Help
	if help == "" && spec.Placeholder != "" {
		help = "e.g. " + spec.Placeholder
	}

	switch spec.Kind {
	case model.KindText:
		return r.driver.Input(ctx, InputConfig{Message: label, Default: forms.Text(current), Help: help})
	case model.KindNumber:
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: forms.Text(current), Help: help})
		if err != nil {
			return nil, err
		}
		return parseNumber(raw), nil
	case model.KindSelect:
		labels := make([]string, len(spec.Options))
		selected := 0
		for i, option := range spec.Options {
			labels[i] = option.Label
			if optionValue(current) == option.Value {
				selected = i
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: selected, Help: help})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(spec.Options) {
			return model.Option{}, nil
		}
		return spec.Options[idx], nil
	case model.KindTextArea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: forms.Text(current), Help: help})
	default:
		return nil, fmt.Errorf("tui: field %q has unsupported kind %q", spec.Name, spec.Kind)
	}
}

// Report prints the outcome of a submission: the archive location on
// success, otherwise any field errors. Failure messages are printed by the
// Progress notifier while the submission runs.
func (r *Renderer) Report(ctx context.Context, result submit.Result) error {
	switch res := result.(type) {
	case submit.Success:
		return r.info(ctx, "Saved "+res.Location)
	case submit.ValidationFailure:
		for _, fieldErr := range res.Errors {
			if err := r.warn(ctx, fieldErr.Error()); err != nil {
				return err
			}
		}
		return nil
	case submit.RemoteFailure:
		paths := make([]string, 0, len(res.Fields))
		for path := range res.Fields {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			for _, msg := range res.Fields[path] {
				if err := r.warn(ctx, path+" "+msg); err != nil {
					return err
				}
			}
		}
		return nil
	case submit.DownloadFailure, nil:
		return nil
	default:
		return fmt.Errorf("tui: unknown result %T", result)
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) warn(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

// groupOf returns the group path of a pattern that lives inside a repeated
// group, e.g. "services" for "services.*.name".
func groupOf(pattern string) (string, bool) {
	group, _, found := strings.Cut(pattern, "."+model.Wildcard)
	return group, found
}

func fieldLabel(spec model.FieldSpec) string {
	if spec.Label != "" {
		return spec.Label
	}
	return spec.Name
}

func entryLabel(group forms.GroupSpec) string {
	if group.Label != "" {
		return group.Label
	}
	return "Entry"
}

func optionValue(value any) string {
	switch typed := value.(type) {
	case model.Option:
		return typed.Value
	case map[string]any:
		if v, ok := typed["value"].(string); ok {
			return v
		}
	}
	return forms.Text(value)
}

// parseNumber keeps unparseable input as text so validation can report it.
func parseNumber(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return raw
	}
	if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
		return int(n)
	}
	return n
}
