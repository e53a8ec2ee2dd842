package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/submit"
)

// maxErrorBody caps how much of a failed response is kept on a StatusError.
const maxErrorBody = 4 << 10

// StatusError is a generator or download request that completed with an
// unexpected HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generator: %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("generator: %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient injects the HTTP client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout caps each request. Zero leaves the HTTP client's timeout as is.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithContract replaces the embedded contract.
func WithContract(contract *Contract) Option {
	return func(c *Client) {
		if contract != nil {
			c.contract = contract
		}
	}
}

// WithContractCheck validates payloads against the contract before they are
// sent. Violations are returned as *submit.StructuredError.
func WithContractCheck(enabled bool) Option {
	return func(c *Client) {
		c.checkContract = enabled
	}
}

// WithDownloadDir sets the directory archives are written to.
func WithDownloadDir(dir string) Option {
	return func(c *Client) {
		c.dir = dir
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the generator API. It implements submit.Generator and
// submit.Downloader. Requests are never retried.
type Client struct {
	base          *url.URL
	http          *http.Client
	timeout       time.Duration
	contract      *Contract
	checkContract bool
	dir           string
	logger        zerolog.Logger
}

var (
	_ submit.Generator  = (*Client)(nil)
	_ submit.Downloader = (*Client)(nil)
)

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("generator: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("generator: base url %q must be http or https", baseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawPath = strings.TrimSuffix(base.RawPath, "/")

	c := &Client{
		base:   base,
		http:   http.DefaultClient,
		dir:    ".",
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.contract == nil {
		contract, err := DefaultContract()
		if err != nil {
			return nil, err
		}
		c.contract = contract
	}
	return c, nil
}

// Generate posts payload to the operation registered for form.
func (c *Client) Generate(ctx context.Context, form model.FormType, payload submit.Payload) (submit.Artifact, error) {
	op, err := c.contract.Generate(form)
	if err != nil {
		return submit.Artifact{}, err
	}
	if c.checkContract {
		if details := op.Check(payload); len(details) > 0 {
			c.logger.Debug().Str("form", string(form)).Int("violations", len(details)).Msg("payload violates contract")
			return submit.Artifact{}, &submit.StructuredError{Details: details}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return submit.Artifact{}, fmt.Errorf("generator: encode payload: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, op.Method, c.endpoint(op.Path), bytes.NewReader(body))
	if err != nil {
		return submit.Artifact{}, fmt.Errorf("generator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return submit.Artifact{}, fmt.Errorf("generator: %s: %w", op.ID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return submit.Artifact{}, fmt.Errorf("generator: read %s response: %w", op.ID, err)
	}
	c.logger.Debug().Str("form", string(form)).Int("status", resp.StatusCode).Msg("generate response")

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var structured submit.StructuredError
		if err := json.Unmarshal(data, &structured); err == nil && len(structured.Details) > 0 {
			structured.StatusCode = resp.StatusCode
			return submit.Artifact{}, &structured
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return submit.Artifact{}, statusError(op.ID, resp.StatusCode, data)
	}

	artifact := submit.Artifact{Form: form}
	if json.Valid(data) {
		artifact.Body = json.RawMessage(data)
		var generated struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &generated); err == nil {
			artifact.Handle = generated.ID
		}
	}
	return artifact, nil
}

// Download fetches the archive for req and writes it to
// <dir>/<FileName>.zip, returning the written path.
func (c *Client) Download(ctx context.Context, _ submit.Artifact, req submit.DownloadRequest) (string, error) {
	if req.FileName == "" || req.Source == "" || req.Folder == "" {
		return "", errors.New("generator: download needs a file name, source and folder")
	}
	op, err := c.contract.Operation(DownloadOperation)
	if err != nil {
		return "", err
	}
	path := strings.NewReplacer(
		"{folder}", url.PathEscape(req.Folder),
		"{source}", url.PathEscape(req.Source),
	).Replace(op.Path)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, op.Method, c.endpoint(path), nil)
	if err != nil {
		return "", fmt.Errorf("generator: build download request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generator: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusError("download", resp.StatusCode, data)
	}

	target := filepath.Join(c.dir, req.FileName+".zip")
	if err := writeFile(target, resp.Body); err != nil {
		return "", err
	}
	c.logger.Debug().Str("source", req.Source).Str("path", target).Msg("archive downloaded")
	return target, nil
}

// endpoint joins the base URL and an already escaped path.
func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func statusError(op string, status int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &StatusError{Op: op, StatusCode: status, Body: text}
}

// writeFile streams r into path through a temporary file in the same
// directory so a failed transfer never leaves a partial archive behind.
func writeFile(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("generator: create download dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".confgen-*.zip")
	if err != nil {
		return fmt.Errorf("generator: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("generator: write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("generator: close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("generator: move archive: %w", err)
	}
	return nil
}
