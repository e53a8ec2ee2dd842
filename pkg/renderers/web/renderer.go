package web

import (
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

const (
	formTemplate  = "form.html"
	indexTemplate = "index.html"
)

// Option configures the web renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// FormLink is one entry of the index page.
type FormLink struct {
	Title string
	Href  string
}

// Renderer renders form views into HTML pages.
type Renderer struct {
	templates *engine
}

// New constructs the web renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	templates, err := newEngine("confgen", cfg.templateFS)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Name() string {
	return "web"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// RenderForm writes the page for view.
func (r *Renderer) RenderForm(w io.Writer, view FormView) error {
	if r == nil || r.templates == nil {
		return fmt.Errorf("web renderer: templates are not configured")
	}
	return r.templates.execute(formTemplate, pongo2.Context{"form": view}, w)
}

// RenderIndex writes the list of available forms.
func (r *Renderer) RenderIndex(w io.Writer, links []FormLink) error {
	if r == nil || r.templates == nil {
		return fmt.Errorf("web renderer: templates are not configured")
	}
	return r.templates.execute(indexTemplate, pongo2.Context{"forms": links}, w)
}

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// sanitize strips markup from remote messages before they reach a page.
// Templates escape on output, so the result is plain unescaped text.
func sanitize(raw string) string {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(messagePolicy.Sanitize(raw)))
}

func sanitizeAll(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		if clean := sanitize(msg); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
