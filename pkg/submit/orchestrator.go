package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/validation"
)

var (
	// ErrNoGenerator is reported when Submit runs without a Generator.
	ErrNoGenerator = errors.New("submit: generator is not configured")
	// ErrNoDownloader is reported when Submit runs without a Downloader.
	ErrNoDownloader = errors.New("submit: downloader is not configured")
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithGenerator sets the generate collaborator.
func WithGenerator(generator Generator) Option {
	return func(o *Orchestrator) {
		o.generator = generator
	}
}

// WithDownloader sets the download collaborator.
func WithDownloader(downloader Downloader) Option {
	return func(o *Orchestrator) {
		o.downloader = downloader
	}
}

// WithNotifier sets the channel failures are reported on.
func WithNotifier(notifier Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = notifier
	}
}

// WithLogger sets the logger used for phase transitions and failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPhaseObserver registers observers told about every phase transition.
func WithPhaseObserver(observers ...PhaseObserver) Option {
	return func(o *Orchestrator) {
		for _, observer := range observers {
			if observer != nil {
				o.observers = append(o.observers, observer)
			}
		}
	}
}

// Orchestrator sequences one submission: validate, transform, generate,
// download. Each phase runs at most once and only after the previous one
// succeeded; nothing is retried.
type Orchestrator struct {
	generator  Generator
	downloader Downloader
	notifier   Notifier
	logger     zerolog.Logger
	observers  []PhaseObserver
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Submit runs the pipeline against a snapshot of tree taken at call time;
// later edits of the caller's tree do not affect it. Remote and download
// failures are reported once through the Notifier and returned as results,
// never as panics.
func (o *Orchestrator) Submit(ctx context.Context, formType model.FormType, tree *state.Tree) Result {
	return o.run(ctx, formType, tree, runHooks{})
}

// runHooks lets a Session follow one run next to the orchestrator-wide
// observers and notifier.
type runHooks struct {
	phase  func(Phase)
	notify func(string)
}

func (o *Orchestrator) run(ctx context.Context, formType model.FormType, tree *state.Tree, hooks runHooks) Result {
	enter := func(phase Phase) {
		o.logger.Debug().Str("form", string(formType)).Str("phase", phase.String()).Msg("submit phase")
		if hooks.phase != nil {
			hooks.phase(phase)
		}
		for _, observer := range o.observers {
			observer.PhaseChanged(formType, phase)
		}
	}
	defer enter(PhaseIdle)

	enter(PhaseValidating)
	if tree == nil {
		return ValidationFailure{Errors: []model.FieldError{{Message: "form has no values"}}}
	}
	if tree.Type() != formType {
		return ValidationFailure{Errors: []model.FieldError{{
			Message: fmt.Sprintf("values belong to form %q, not %q", tree.Type(), formType),
		}}}
	}

	snapshot := tree.Snapshot()
	if errs := validation.Tree(snapshot); len(errs) > 0 {
		o.logger.Debug().Str("form", string(formType)).Int("errors", len(errs)).Msg("submit blocked by validation")
		return ValidationFailure{Errors: errs}
	}

	def := snapshot.Definition()
	payload := Transform(def, snapshot.Values())

	enter(PhaseGenerating)
	artifact, err := o.generate(ctx, formType, payload)
	if err != nil {
		failure := remoteFailure(snapshot, err)
		o.logger.Warn().Err(err).Str("form", string(formType)).Str("kind", failure.Kind.String()).Msg("generate failed")
		o.notify(hooks, failure.Message())
		return failure
	}
	if artifact.Form == "" {
		artifact.Form = formType
	}

	enter(PhaseDownloading)
	location, err := o.download(ctx, artifact, DownloadRequest{
		FileName: def.Download.FileName,
		Source:   def.Download.Source,
		Folder:   def.Download.Folder,
	})
	if err != nil {
		failure := DownloadFailure{Artifact: artifact, Err: err}
		o.logger.Warn().Err(err).Str("form", string(formType)).Msg("download failed")
		o.notify(hooks, failure.Message())
		return failure
	}

	o.logger.Info().Str("form", string(formType)).Str("location", location).Msg("configuration generated")
	return Success{Artifact: artifact, Location: location}
}

func (o *Orchestrator) generate(ctx context.Context, formType model.FormType, payload Payload) (Artifact, error) {
	if o.generator == nil {
		return Artifact{}, ErrNoGenerator
	}
	return o.generator.Generate(ctx, formType, payload)
}

func (o *Orchestrator) download(ctx context.Context, artifact Artifact, req DownloadRequest) (string, error) {
	if o.downloader == nil {
		return "", ErrNoDownloader
	}
	return o.downloader.Download(ctx, artifact, req)
}

func (o *Orchestrator) notify(hooks runHooks, message string) {
	if message == "" {
		return
	}
	if hooks.notify != nil {
		hooks.notify(message)
	}
	if o.notifier != nil {
		o.notifier.NotifyError(message)
	}
}

func remoteFailure(tree *state.Tree, err error) RemoteFailure {
	var structured *StructuredError
	if errors.As(err, &structured) && len(structured.Details) > 0 {
		fields, form := MapDetails(tree, structured.Details)
		return RemoteFailure{
			Kind:    RemoteStructured,
			Text:    structured.Message(),
			Details: structured.Details,
			Fields:  fields,
			Form:    form,
			Err:     err,
		}
	}
	return RemoteFailure{Kind: RemoteUnstructured, Text: FallbackMessage, Err: err}
}
