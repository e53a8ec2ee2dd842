package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-confgen/pkg/model"
)

// Payload is the wire body handed to the generator.
type Payload map[string]any

// Artifact identifies what the generator produced. Handle is whatever the
// generator returned to locate it later; Body keeps the raw response.
type Artifact struct {
	Form   model.FormType  `json:"form"`
	Handle string          `json:"handle,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// DownloadRequest carries the per-form download parameters.
type DownloadRequest struct {
	FileName string
	Source   string
	Folder   string
}

// Generator produces an artifact from a payload. A rejection carrying
// per-field detail is returned as *StructuredError; any other error is
// treated as unstructured.
type Generator interface {
	Generate(ctx context.Context, form model.FormType, payload Payload) (Artifact, error)
}

// Downloader retrieves a generated artifact and reports where it was stored.
type Downloader interface {
	Download(ctx context.Context, artifact Artifact, req DownloadRequest) (string, error)
}

// Notifier is the fire-and-forget user notification channel. Success is
// silent; only failures are reported.
type Notifier interface {
	NotifyError(message string)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, form model.FormType, payload Payload) (Artifact, error)

// Generate calls fn.
func (fn GeneratorFunc) Generate(ctx context.Context, form model.FormType, payload Payload) (Artifact, error) {
	return fn(ctx, form, payload)
}

// DownloaderFunc adapts a function into a Downloader.
type DownloaderFunc func(ctx context.Context, artifact Artifact, req DownloadRequest) (string, error)

// Download calls fn.
func (fn DownloaderFunc) Download(ctx context.Context, artifact Artifact, req DownloadRequest) (string, error) {
	return fn(ctx, artifact, req)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(message string)

// NotifyError calls fn.
func (fn NotifierFunc) NotifyError(message string) {
	fn(message)
}

// StructuredError is a remote rejection with per-field detail, shaped like a
// FastAPI 422 body: {"detail": [{"loc": [...], "msg": "..."}]}.
type StructuredError struct {
	StatusCode int      `json:"-"`
	Details    []Detail `json:"detail"`
}

// Detail is one remote validation entry.
type Detail struct {
	Loc  Location `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type,omitempty"`
}

// Location is the ordered path of a remote detail. Numeric segments (list
// indexes) are kept as their decimal text.
type Location []string

// UnmarshalJSON accepts mixed string and number segments.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Location, 0, len(raw))
	for _, segment := range raw {
		switch typed := segment.(type) {
		case string:
			out = append(out, typed)
		case float64:
			out = append(out, strconv.FormatFloat(typed, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(typed))
		}
	}
	*l = out
	return nil
}

// Last returns the terminal segment, or "".
func (l Location) Last() string {
	if len(l) == 0 {
		return ""
	}
	return l[len(l)-1]
}

// Message is the user-facing text of the last detail: its terminal location
// segment and message, e.g. "ansible_port must be an integer".
func (e *StructuredError) Message() string {
	if e == nil || len(e.Details) == 0 {
		return ""
	}
	last := e.Details[len(e.Details)-1]
	return strings.TrimSpace(last.Loc.Last() + " " + last.Msg)
}

func (e *StructuredError) Error() string {
	if e == nil {
		return "submit: structured error"
	}
	if msg := e.Message(); msg != "" {
		return "submit: generator rejected payload: " + msg
	}
	return "submit: generator rejected payload"
}
