package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/validation"
)

// ErrSubmissionPending is returned when Submit is called while a submission
// of the same session is still in flight.
var ErrSubmissionPending = errors.New("submit: a submission is already pending")

// Session is one mounted form instance. It owns its tree, the identity-keyed
// accordion state of its groups and the lifecycle of its submissions. Edits
// are accepted while a submission is pending; the submission keeps working
// on the tree captured when it started.
type Session struct {
	orchestrator *Orchestrator

	mu         sync.Mutex
	tree       *state.Tree
	accordions map[string]state.Accordion
	errors     map[string][]string
	phase      Phase
	pending    bool
	last       Result
	notice     string
}

// NewSession mounts tree. Every group's accordion starts with its first
// entry expanded.
func NewSession(orchestrator *Orchestrator, tree *state.Tree) *Session {
	s := &Session{
		orchestrator: orchestrator,
		tree:         tree,
		accordions:   make(map[string]state.Accordion),
		errors:       make(map[string][]string),
	}
	if tree != nil {
		for _, group := range tree.Definition().Groups {
			s.accordions[group.Path] = state.NewAccordion(tree.Entries(group.Path))
		}
	}
	return s
}

// Tree returns the current tree.
func (s *Session) Tree() *state.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Load replaces the tree with one rebuilt from an edited page, e.g. a
// posted form. It is accepted while a submission is pending and does not
// affect it. Field errors are cleared; accordions keep their expanded entry
// when it still exists.
func (s *Session) Load(tree *state.Tree) error {
	if tree == nil {
		return errors.New("submit: tree is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree != nil && s.tree.Type() != tree.Type() {
		return fmt.Errorf("submit: session holds form %q, not %q", s.tree.Type(), tree.Type())
	}
	s.tree = tree
	s.errors = make(map[string][]string)
	for _, group := range tree.Definition().Groups {
		s.accordions[group.Path] = s.accordions[group.Path].Sync(tree.Entries(group.Path))
	}
	return nil
}

// Set writes value at path and returns the immediate validation feedback for
// that field.
func (s *Session) Set(path string, value any) ([]model.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.tree.Set(path, value)
	if err != nil {
		return nil, err
	}
	s.tree = next

	canonical, _ := next.Canonical(path)
	fieldErrs := validation.Field(next, canonical)
	delete(s.errors, canonical)
	for _, fieldErr := range fieldErrs {
		s.errors[fieldErr.Path] = append(s.errors[fieldErr.Path], fieldErr.Message)
	}
	return fieldErrs, nil
}

// Append adds an entry to the group from its declared empty template and
// returns the new identity.
func (s *Session) Append(groupPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, id, err := s.tree.Append(groupPath, nil)
	if err != nil {
		return "", err
	}
	s.tree = next
	s.clearGroupErrors(groupPath)
	return id, nil
}

// Remove drops the entry with id; unknown or protected entries are ignored.
func (s *Session) Remove(groupPath, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = s.tree.Remove(groupPath, id)
	s.accordions[groupPath] = s.accordions[groupPath].Sync(s.tree.Entries(groupPath))
	s.clearGroupErrors(groupPath)
}

// Toggle expands or collapses the panel of the entry with id.
func (s *Session) Toggle(groupPath, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accordions[groupPath] = s.accordions[groupPath].Toggle(id)
}

// Accordion returns the accordion state of the group.
func (s *Session) Accordion(groupPath string) state.Accordion {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.accordions[groupPath]
}

// RestoreAccordion sets the expanded entry of a group, e.g. from a posted
// form. Identities that no longer exist collapse the group.
func (s *Session) RestoreAccordion(groupPath, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accordions[groupPath] = state.OpenAt(id).Sync(s.tree.Entries(groupPath))
}

// Errors returns the field errors currently attached to paths.
func (s *Session) Errors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(s.errors))
	for path, messages := range s.errors {
		out[path] = append([]string(nil), messages...)
	}
	return out
}

// Phase returns the phase of the in-flight submission, or PhaseIdle.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Pending reports whether a submission is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Label is the submit control caption, derived from the phase in flight.
func (s *Session) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := ""
	if s.tree != nil {
		idle = s.tree.Definition().SubmitLabel
	}
	return s.phase.Label(idle)
}

// Notice returns the failure message reported by the most recent
// submission, or "" when it succeeded or is still running.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Last returns the result of the most recent completed submission.
func (s *Session) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Submit captures the current tree and runs one submission. It blocks until
// the submission completes and returns ErrSubmissionPending if another one
// is still running.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	done, err := s.Start(ctx)
	if err != nil {
		return nil, err
	}
	return <-done, nil
}

// Start captures the current tree and runs one submission in the
// background. The session is pending as soon as Start returns; the channel
// yields the result once and is then closed. A second Start while one is in
// flight returns ErrSubmissionPending.
func (s *Session) Start(ctx context.Context) (<-chan Result, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrSubmissionPending
	}
	if s.orchestrator == nil {
		s.mu.Unlock()
		return nil, errors.New("submit: session has no orchestrator")
	}
	s.pending = true
	s.phase = PhaseValidating
	s.notice = ""
	tree := s.tree
	s.mu.Unlock()

	done := make(chan Result, 1)
	go func() {
		defer close(done)
		result := s.orchestrator.run(ctx, tree.Type(), tree, runHooks{
			phase:  s.setPhase,
			notify: s.setNotice,
		})

		s.mu.Lock()
		s.pending = false
		s.phase = PhaseIdle
		s.last = result
		s.applyResult(result)
		s.mu.Unlock()

		done <- result
	}()
	return done, nil
}

func (s *Session) setPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

func (s *Session) setNotice(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = message
}

func (s *Session) applyResult(result Result) {
	switch r := result.(type) {
	case ValidationFailure:
		s.errors = validation.ByPath(r.Errors)
	case RemoteFailure:
		s.errors = make(map[string][]string, len(r.Fields))
		for path, messages := range r.Fields {
			s.errors[path] = append([]string(nil), messages...)
		}
	case Success:
		s.errors = make(map[string][]string)
	}
}

func (s *Session) clearGroupErrors(groupPath string) {
	prefix := groupPath + "."
	for path := range s.errors {
		if path == groupPath || strings.HasPrefix(path, prefix) {
			delete(s.errors, path)
		}
	}
}
