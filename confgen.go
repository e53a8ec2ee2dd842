// Package confgen wires the form registry, the UI schema overlays and the
// remote generator into ready-to-use sessions.
package confgen

import (
	"fmt"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/generator"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
	"github.com/goliatone/go-confgen/pkg/uischema"
)

// Result aliases submit.Result for callers of the top-level package.
type Result = submit.Result

// DefaultRegistry registers the built-in forms decorated with the bundled UI
// schema overlays. Extra options are applied after the overlay decorator.
func DefaultRegistry(options ...forms.Option) (*forms.Registry, error) {
	store, err := uischema.Default()
	if err != nil {
		return nil, fmt.Errorf("confgen: load ui schema: %w", err)
	}
	opts := append([]forms.Option{forms.WithDecorators(uischema.NewDecorator(store))}, options...)
	return forms.NewBuiltinRegistry(opts...)
}

// NewOrchestrator uses client for both the generate and download phases.
func NewOrchestrator(client *generator.Client, options ...submit.Option) *submit.Orchestrator {
	opts := []submit.Option{
		submit.WithGenerator(client),
		submit.WithDownloader(client),
	}
	return submit.New(append(opts, options...)...)
}

// Mount resets the form registered for formType and opens a session on it.
func Mount(registry *forms.Registry, orchestrator *submit.Orchestrator, formType model.FormType, options ...state.Option) (*submit.Session, error) {
	def, err := registry.Get(formType)
	if err != nil {
		return nil, err
	}
	tree, err := state.Reset(def, options...)
	if err != nil {
		return nil, err
	}
	return submit.NewSession(orchestrator, tree), nil
}
