package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
)

type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() gate {
	return gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g gate) pass() {
	close(g.entered)
	<-g.release
}

func TestSession_PendingWindow(t *testing.T) {
	generating := newGate()
	downloading := newGate()
	var sent Payload

	orchestrator := New(
		WithGenerator(GeneratorFunc(func(_ context.Context, _ model.FormType, payload Payload) (Artifact, error) {
			sent = payload
			generating.pass()
			return Artifact{Handle: "job"}, nil
		})),
		WithDownloader(DownloaderFunc(func(_ context.Context, _ Artifact, req DownloadRequest) (string, error) {
			downloading.pass()
			return req.FileName, nil
		})),
	)
	session := NewSession(orchestrator, filledKubernetes(t))

	if got := session.Label(); got != DefaultSubmitLabel {
		t.Fatalf("idle label = %q", got)
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := session.Submit(context.Background())
		done <- outcome{result, err}
	}()

	<-generating.entered
	if got := session.Label(); got != "Generating..." {
		t.Fatalf("generating label = %q", got)
	}
	if !session.Pending() || !session.Phase().Busy() {
		t.Fatalf("expected a busy pending session")
	}
	if _, err := session.Submit(context.Background()); !errors.Is(err, ErrSubmissionPending) {
		t.Fatalf("expected ErrSubmissionPending, got %v", err)
	}
	if _, err := session.Set("ansible_user", "changed-while-pending"); err != nil {
		t.Fatalf("edit during pending submission: %v", err)
	}
	close(generating.release)

	<-downloading.entered
	if got := session.Label(); got != "Downloading..." {
		t.Fatalf("downloading label = %q", got)
	}
	close(downloading.release)

	out := <-done
	if out.err != nil {
		t.Fatalf("submit: %v", out.err)
	}
	if !Succeeded(out.result) {
		t.Fatalf("expected success, got %#v", out.result)
	}
	if sent["ansible_user"] != "root" {
		t.Fatalf("submission must use the tree captured at start, got %v", sent["ansible_user"])
	}
	if got, _ := session.Tree().Get("ansible_user"); got != "changed-while-pending" {
		t.Fatalf("edit during pending submission was lost, got %v", got)
	}
	if session.Pending() || session.Phase() != PhaseIdle {
		t.Fatalf("expected idle session after completion")
	}
	if diff := cmp.Diff(out.result, session.Last()); diff != "" {
		t.Fatalf("expected last result to be recorded (-want +got):\n%s", diff)
	}
}

func TestSession_SetReportsFieldErrors(t *testing.T) {
	session := NewSession(New(), filledKubernetes(t))

	errs, err := session.Set("k8s_master_nodes.0.value", "not a host!")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []model.FieldError{{Path: "k8s_master_nodes.0.value", Message: "must be an IP address or host name"}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"k8s_master_nodes.0.value": {"must be an IP address or host name"}}, session.Errors()); diff != "" {
		t.Fatalf("session errors mismatch (-want +got):\n%s", diff)
	}

	if errs, _ := session.Set("k8s_master_nodes.0.value", "10.0.0.9"); len(errs) != 0 {
		t.Fatalf("expected the error to clear, got %v", errs)
	}
	if len(session.Errors()) != 0 {
		t.Fatalf("expected no errors, got %v", session.Errors())
	}
}

func TestSession_ValidationFailureAttachesErrors(t *testing.T) {
	rec := &recorder{}
	session := NewSession(rec.orchestrator(), mustReset(t, forms.Kubernetes()))

	result, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := result.(ValidationFailure); !ok {
		t.Fatalf("expected validation failure, got %#v", result)
	}
	errs := session.Errors()
	for _, path := range []string{"ansible_user", "version", "k8s_master_nodes.0.value", "lb_nodes.0.value"} {
		if len(errs[path]) == 0 {
			t.Errorf("expected an error at %s, got %v", path, errs)
		}
	}
	if len(rec.generateCalls) != 0 {
		t.Fatalf("expected no generate call")
	}
}

func TestSession_RemoteFailureAttachesFieldDetail(t *testing.T) {
	rec := &recorder{generateErr: &StructuredError{Details: []Detail{
		{Loc: Location{"body", "lb_nodes", "0"}, Msg: "host is unreachable"},
		{Loc: Location{"body", "cluster"}, Msg: "quota exceeded"},
	}}}
	session := NewSession(rec.orchestrator(), filledKubernetes(t))

	result, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	failure, ok := result.(RemoteFailure)
	if !ok {
		t.Fatalf("expected remote failure, got %#v", result)
	}
	if diff := cmp.Diff([]string{"quota exceeded"}, failure.Form); diff != "" {
		t.Fatalf("form messages mismatch (-want +got):\n%s", diff)
	}
	want := map[string][]string{"lb_nodes.0.value": {"host is unreachable"}}
	if diff := cmp.Diff(want, session.Errors()); diff != "" {
		t.Fatalf("session errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_GroupEditsFollowIdentity(t *testing.T) {
	session := NewSession(New(), mustReset(t, forms.Compose()))
	first := session.Tree().IDs("services")[0]

	if !session.Accordion("services").IsOpen(first) {
		t.Fatalf("expected first service expanded on mount")
	}

	second, err := session.Append("services")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	session.Toggle("services", second)
	if !session.Accordion("services").IsOpen(second) {
		t.Fatalf("expected toggled service expanded")
	}

	session.Remove("services", first)
	if diff := cmp.Diff([]string{second}, session.Tree().IDs("services")); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if !session.Accordion("services").IsOpen(second) {
		t.Fatalf("expanded panel must follow its identity after removal")
	}

	session.RestoreAccordion("services", first)
	if session.Accordion("services").Open() != "" {
		t.Fatalf("restoring a removed identity must collapse the group")
	}
}

func TestSession_RemoveClearsGroupErrors(t *testing.T) {
	session := NewSession(New(), mustReset(t, forms.Compose()))
	if _, err := session.Set("services.0.name", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(session.Errors()) == 0 {
		t.Fatalf("expected a required error")
	}

	session.Remove("services", session.Tree().IDs("services")[0])
	if len(session.Errors()) != 0 {
		t.Fatalf("expected group errors cleared, got %v", session.Errors())
	}
}

func TestSession_WithoutOrchestrator(t *testing.T) {
	session := NewSession(nil, filledKubernetes(t))
	if _, err := session.Submit(context.Background()); err == nil {
		t.Fatalf("expected an error without an orchestrator")
	}
}

func TestSession_StartIsPendingBeforeItReturns(t *testing.T) {
	generating := newGate()
	calls := 0
	orchestrator := New(
		WithGenerator(GeneratorFunc(func(context.Context, model.FormType, Payload) (Artifact, error) {
			calls++
			generating.pass()
			return Artifact{}, errors.New("boom")
		})),
		WithDownloader(DownloaderFunc(func(context.Context, Artifact, DownloadRequest) (string, error) {
			return "", nil
		})),
	)
	session := NewSession(orchestrator, filledKubernetes(t))

	done, err := session.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !session.Pending() {
		t.Fatalf("session must be pending as soon as Start returns")
	}
	if _, err := session.Start(context.Background()); !errors.Is(err, ErrSubmissionPending) {
		t.Fatalf("expected ErrSubmissionPending, got %v", err)
	}

	<-generating.entered
	if err := session.Load(mustSet(t, filledKubernetes(t), "version", "1.30")); err != nil {
		t.Fatalf("load during pending submission: %v", err)
	}
	close(generating.release)

	result, ok := <-done
	if !ok {
		t.Fatalf("expected a result before the channel closes")
	}
	if _, ok := <-done; ok {
		t.Fatalf("expected the channel to be closed after the result")
	}
	if _, isRemote := result.(RemoteFailure); !isRemote {
		t.Fatalf("expected remote failure, got %#v", result)
	}
	if calls != 1 {
		t.Fatalf("generate calls = %d, want 1", calls)
	}
	if got, _ := session.Tree().Get("version"); got != "1.30" {
		t.Fatalf("loaded tree lost, version = %v", got)
	}
}

func TestSession_NoticeFollowsFailures(t *testing.T) {
	rec := &recorder{generateErr: errors.New("connection refused")}
	session := NewSession(rec.orchestrator(), filledKubernetes(t))

	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := session.Notice(); got != FallbackMessage {
		t.Fatalf("notice = %q, want %q", got, FallbackMessage)
	}
	if diff := cmp.Diff([]string{FallbackMessage}, rec.notices); diff != "" {
		t.Fatalf("orchestrator notifier mismatch (-want +got):\n%s", diff)
	}

	rec.generateErr = nil
	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := session.Notice(); got != "" {
		t.Fatalf("success must clear the notice, got %q", got)
	}
}

func TestSession_Load(t *testing.T) {
	session := NewSession(New(), filledKubernetes(t))
	if _, err := session.Set("ansible_user", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(session.Errors()) == 0 {
		t.Fatalf("expected a field error before load")
	}
	open := session.Accordion("k8s_worker_nodes").Open()

	if err := session.Load(filledKubernetes(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(session.Errors()) != 0 {
		t.Fatalf("load must clear field errors, got %v", session.Errors())
	}
	if got := session.Accordion("k8s_worker_nodes").Open(); got != open {
		t.Fatalf("accordion = %q, want %q", got, open)
	}

	if err := session.Load(mustReset(t, forms.Basic())); err == nil {
		t.Fatalf("expected an error loading another form's tree")
	}
	if err := session.Load(nil); err == nil {
		t.Fatalf("expected an error loading a nil tree")
	}
}
