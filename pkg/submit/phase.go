package submit

import "github.com/goliatone/go-confgen/pkg/model"

// Phase is the step a submission is currently executing.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseGenerating
	PhaseDownloading
)

// DefaultSubmitLabel is the idle caption of the submit control.
const DefaultSubmitLabel = "Generate"

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseGenerating:
		return "generating"
	case PhaseDownloading:
		return "downloading"
	default:
		return "idle"
	}
}

// Busy reports whether the phase is part of the pending window (generate and
// download) during which the submit control is disabled.
func (p Phase) Busy() bool {
	return p == PhaseGenerating || p == PhaseDownloading
}

// Label is the submit control caption for the phase. idle is used outside
// the pending window; an empty idle falls back to DefaultSubmitLabel.
func (p Phase) Label(idle string) string {
	switch p {
	case PhaseGenerating:
		return "Generating..."
	case PhaseDownloading:
		return "Downloading..."
	default:
		if idle == "" {
			return DefaultSubmitLabel
		}
		return idle
	}
}

// PhaseObserver is told about every phase transition of a submission.
type PhaseObserver interface {
	PhaseChanged(form model.FormType, phase Phase)
}

// PhaseObserverFunc adapts a function into a PhaseObserver.
type PhaseObserverFunc func(form model.FormType, phase Phase)

// PhaseChanged calls fn.
func (fn PhaseObserverFunc) PhaseChanged(form model.FormType, phase Phase) {
	fn(form, phase)
}
