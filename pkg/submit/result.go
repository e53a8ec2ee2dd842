package submit

import "github.com/goliatone/go-confgen/pkg/model"

const (
	// FallbackMessage is shown for remote failures without structured detail.
	FallbackMessage = "Something went wrong"
	// DownloadFailureMessage tells the user the artifact exists but could not
	// be retrieved.
	DownloadFailureMessage = "Configuration was generated but could not be downloaded"
)

// Result is the outcome of one submission: Success, ValidationFailure,
// RemoteFailure or DownloadFailure. The set is closed.
type Result interface {
	// Message is the user-facing summary; empty on success.
	Message() string
	result()
}

// Success means both generate and download completed.
type Success struct {
	Artifact Artifact
	Location string
}

// ValidationFailure means the tree failed local validation and nothing was
// sent.
type ValidationFailure struct {
	Errors []model.FieldError
}

// RemoteKind distinguishes remote rejections with per-field detail from
// everything else.
type RemoteKind int

const (
	RemoteUnstructured RemoteKind = iota
	RemoteStructured
)

func (k RemoteKind) String() string {
	if k == RemoteStructured {
		return "structured"
	}
	return "unstructured"
}

// RemoteFailure means the generate step failed; nothing was produced.
type RemoteFailure struct {
	Kind    RemoteKind
	Text    string
	Details []Detail
	// Fields maps structured details onto concrete field paths; details that
	// match no field land in Form.
	Fields map[string][]string
	Form   []string
	Err    error
}

// DownloadFailure means the artifact was generated but not retrieved.
type DownloadFailure struct {
	Artifact Artifact
	Err      error
}

func (Success) result()           {}
func (ValidationFailure) result() {}
func (RemoteFailure) result()     {}
func (DownloadFailure) result()   {}

func (Success) Message() string { return "" }

func (f ValidationFailure) Message() string {
	if len(f.Errors) == 0 {
		return ""
	}
	return f.Errors[0].Error()
}

func (f RemoteFailure) Message() string {
	if f.Text == "" {
		return FallbackMessage
	}
	return f.Text
}

func (DownloadFailure) Message() string { return DownloadFailureMessage }

// Succeeded reports whether r is a Success.
func Succeeded(r Result) bool {
	_, ok := r.(Success)
	return ok
}
