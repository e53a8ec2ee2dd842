// Package server serves the forms as plain HTML pages. Every page carries a
// form-instance token; the server keeps one session per token so a
// submission keeps running, and stays pending, across requests. Each POST
// loads the posted page into that session, applies one action and renders
// the result.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/renderers/web"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
)

// Option customises the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStateOptions passes options to every tree the server builds, e.g. a
// deterministic identity generator in tests.
func WithStateOptions(options ...state.Option) Option {
	return func(s *Server) {
		s.stateOptions = append(s.stateOptions, options...)
	}
}

// WithSubmitWait bounds how long a submit request waits for the outcome
// before answering 202 with the busy page.
func WithSubmitWait(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.submitWait = d
		}
	}
}

// WithInstanceTTL sets how long an idle form instance is kept.
func WithInstanceTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.instanceTTL = d
		}
	}
}

const (
	defaultSubmitWait  = 2 * time.Second
	defaultInstanceTTL = 30 * time.Minute
)

// Server provides the form handlers.
type Server struct {
	registry     *forms.Registry
	orchestrator *submit.Orchestrator
	renderer     *web.Renderer
	logger       zerolog.Logger
	stateOptions []state.Option
	submitWait   time.Duration
	instanceTTL  time.Duration
	now          func() time.Time

	mu        sync.Mutex
	instances map[string]*instance
}

// instance is one mounted page.
type instance struct {
	token   string
	session *submit.Session
	seen    time.Time
}

// New creates a server for the forms of registry.
func New(registry *forms.Registry, orchestrator *submit.Orchestrator, renderer *web.Renderer, options ...Option) (*Server, error) {
	if registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	if renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	s := &Server{
		registry:     registry,
		orchestrator: orchestrator,
		renderer:     renderer,
		logger:       zerolog.Nop(),
		submitWait:   defaultSubmitWait,
		instanceTTL:  defaultInstanceTTL,
		now:          time.Now,
		instances:    make(map[string]*instance),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Routes returns the router for the form pages.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /forms/{form}", s.handleForm)
	mux.HandleFunc("GET /forms/{form}/{instance}", s.handleStatus)
	mux.HandleFunc("POST /forms/{form}", s.handleAction)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	var links []web.FormLink
	for _, formType := range s.registry.List() {
		def, err := s.registry.Get(formType)
		if err != nil {
			continue
		}
		title := def.Title
		if title == "" {
			title = string(formType)
		}
		links = append(links, web.FormLink{Title: title, Href: formPath(formType)})
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderIndex(&buf, links); err != nil {
		s.fail(w, err)
		return
	}
	s.write(w, http.StatusOK, buf.Bytes())
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}
	tree, err := state.Reset(def, s.stateOptions...)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.render(w, http.StatusOK, s.mount(tree))
}

// handleStatus re-renders a mounted instance, e.g. from the refresh of a
// busy page. It answers 202 while the submission is pending.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}
	inst, ok := s.lookup(r.PathValue("instance"), def.Type)
	if !ok {
		http.Error(w, "unknown form instance", http.StatusNotFound)
		return
	}
	status := http.StatusAccepted
	if !inst.session.Pending() {
		status = statusFor(inst.session.Last())
	}
	s.render(w, status, inst)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definition(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	posted := Bind(def, r.PostForm)
	tree, err := state.New(def, posted.Values, s.stateOptions...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	inst, ok := s.lookup(r.PostForm.Get(web.InstanceField), def.Type)
	if ok {
		if err := inst.session.Load(tree); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		inst = s.mount(tree)
	}
	for group, id := range posted.Open {
		inst.session.RestoreAccordion(group, id)
	}

	action := r.PostForm.Get("action")
	status, err := s.apply(r, inst.session, action)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Debug().Str("form", string(def.Type)).Str("instance", inst.token).Str("action", action).Int("status", status).Msg("form action")
	s.render(w, status, inst)
}

// apply runs one posted action: append:<group>, remove:<group>:<id>,
// toggle:<id> or submit.
func (s *Server) apply(r *http.Request, session *submit.Session, action string) (int, error) {
	verb, arg, _ := strings.Cut(action, ":")
	switch verb {
	case "append":
		id, err := session.Append(arg)
		if err != nil {
			return 0, err
		}
		session.RestoreAccordion(arg, id)
		return http.StatusOK, nil
	case "remove":
		group, id, ok := strings.Cut(arg, ":")
		if !ok || group == "" || id == "" {
			return 0, fmt.Errorf("server: malformed action %q", action)
		}
		session.Remove(group, id)
		return http.StatusOK, nil
	case "toggle":
		group, ok := groupOfEntry(session.Tree(), arg)
		if !ok {
			return 0, fmt.Errorf("server: no entry %q", arg)
		}
		session.Toggle(group, arg)
		return http.StatusOK, nil
	case "submit":
		return s.submit(r.Context(), session)
	default:
		return 0, fmt.Errorf("server: unknown action %q", action)
	}
}

// submit starts a submission that outlives the request and waits up to
// submitWait for its outcome. A submit while one is pending is refused with
// 409 and the busy page; it never reaches the generator.
func (s *Server) submit(ctx context.Context, session *submit.Session) (int, error) {
	done, err := session.Start(context.WithoutCancel(ctx))
	if errors.Is(err, submit.ErrSubmissionPending) {
		return http.StatusConflict, nil
	}
	if err != nil {
		return 0, err
	}

	timer := time.NewTimer(s.submitWait)
	defer timer.Stop()
	select {
	case result := <-done:
		return statusFor(result), nil
	case <-timer.C:
		return http.StatusAccepted, nil
	case <-ctx.Done():
		return http.StatusAccepted, nil
	}
}

// mount stores a new instance for tree.
func (s *Server) mount(tree *state.Tree) *instance {
	inst := &instance{
		token:   uuid.NewString(),
		session: submit.NewSession(s.orchestrator, tree),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	inst.seen = s.now()
	s.instances[inst.token] = inst
	return inst
}

// lookup returns the live instance for token when it holds formType.
func (s *Server) lookup(token string, formType model.FormType) (*instance, bool) {
	if token == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	inst, ok := s.instances[token]
	if !ok || inst.session.Tree().Type() != formType {
		return nil, false
	}
	inst.seen = s.now()
	return inst, true
}

// pruneLocked drops instances idle for longer than instanceTTL. Pending
// instances are kept until their submission completes.
func (s *Server) pruneLocked() {
	cutoff := s.now().Add(-s.instanceTTL)
	for token, inst := range s.instances {
		if inst.seen.Before(cutoff) && !inst.session.Pending() {
			delete(s.instances, token)
		}
	}
}

func (s *Server) definition(w http.ResponseWriter, r *http.Request) (*forms.Definition, bool) {
	def, err := s.registry.Get(model.FormType(r.PathValue("form")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return def, true
}

func (s *Server) render(w http.ResponseWriter, status int, inst *instance) {
	formType := inst.session.Tree().Type()
	view, err := web.NewFormView(inst.session, formPath(formType))
	if err != nil {
		s.fail(w, err)
		return
	}
	view.Instance = inst.token
	view.Refresh = formPath(formType) + "/" + inst.token
	var buf bytes.Buffer
	if err := s.renderer.RenderForm(&buf, view); err != nil {
		s.fail(w, err)
		return
	}
	s.write(w, status, buf.Bytes())
}

func (s *Server) write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("render failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func statusFor(result submit.Result) int {
	switch result.(type) {
	case submit.ValidationFailure:
		return http.StatusUnprocessableEntity
	case submit.RemoteFailure, submit.DownloadFailure:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func groupOfEntry(tree *state.Tree, id string) (string, bool) {
	for _, group := range tree.Definition().Groups {
		if tree.IndexOf(group.Path, id) >= 0 {
			return group.Path, true
		}
	}
	return "", false
}

func formPath(formType model.FormType) string {
	return "/forms/" + string(formType)
}
