package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
)

func TestSubmit_SuccessSendsListsAndOptionValue(t *testing.T) {
	rec := &recorder{}
	tree := filledKubernetes(t)

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, tree)

	success, ok := result.(Success)
	if !ok {
		t.Fatalf("expected success, got %#v", result)
	}
	if success.Location != "/tmp/KubernetesAnsible.zip" {
		t.Fatalf("unexpected location %q", success.Location)
	}
	if success.Artifact.Form != model.FormKubernetes {
		t.Fatalf("expected artifact form to default to the submitted form, got %q", success.Artifact.Form)
	}
	if len(rec.generateCalls) != 1 {
		t.Fatalf("expected one generate call, got %d", len(rec.generateCalls))
	}

	payload := rec.generateCalls[0].payload
	if payload["os"] != "ubuntu" {
		t.Fatalf("expected os value, got %#v", payload["os"])
	}
	if diff := cmp.Diff([]any{"10.0.0.2", "worker-2.lan"}, payload["k8s_worker_nodes"]); diff != "" {
		t.Fatalf("worker nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"10.0.0.1"}, payload["k8s_master_nodes"]); diff != "" {
		t.Fatalf("master nodes mismatch (-want +got):\n%s", diff)
	}

	wantDownload := []DownloadRequest{{FileName: "KubernetesAnsible", Source: "kubernetes", Folder: "MyAnsible"}}
	if diff := cmp.Diff(wantDownload, rec.downloads); diff != "" {
		t.Fatalf("download request mismatch (-want +got):\n%s", diff)
	}
	if len(rec.notices) != 0 {
		t.Fatalf("success must be silent, got %v", rec.notices)
	}
}

func TestSubmit_StructuredRejection(t *testing.T) {
	rec := &recorder{generateErr: &StructuredError{
		StatusCode: 422,
		Details: []Detail{
			{Loc: Location{"body", "ansible_port"}, Msg: "must be an integer", Type: "type_error.integer"},
		},
	}}

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))

	failure, ok := result.(RemoteFailure)
	if !ok {
		t.Fatalf("expected remote failure, got %#v", result)
	}
	if failure.Kind != RemoteStructured {
		t.Fatalf("expected structured failure, got %s", failure.Kind)
	}
	if got := failure.Message(); got != "ansible_port must be an integer" {
		t.Fatalf("unexpected message %q", got)
	}
	if diff := cmp.Diff(map[string][]string{"ansible_port": {"must be an integer"}}, failure.Fields); diff != "" {
		t.Fatalf("field mapping mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ansible_port must be an integer"}, rec.notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if len(rec.downloads) != 0 {
		t.Fatalf("download must not run after a rejection")
	}
}

func TestSubmit_UnstructuredFailureUsesFallback(t *testing.T) {
	rec := &recorder{generateErr: errors.New("connection refused")}

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))

	failure, ok := result.(RemoteFailure)
	if !ok {
		t.Fatalf("expected remote failure, got %#v", result)
	}
	if failure.Kind != RemoteUnstructured || failure.Message() != FallbackMessage {
		t.Fatalf("unexpected failure %#v", failure)
	}
	if diff := cmp.Diff([]string{FallbackMessage}, rec.notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_StructuredErrorWithoutDetailIsUnstructured(t *testing.T) {
	rec := &recorder{generateErr: &StructuredError{StatusCode: 422}}

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))

	if failure, ok := result.(RemoteFailure); !ok || failure.Kind != RemoteUnstructured {
		t.Fatalf("expected unstructured failure, got %#v", result)
	}
}

func TestSubmit_DownloadFailureIsDistinct(t *testing.T) {
	rec := &recorder{downloadErr: errors.New("disk full")}

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))

	failure, ok := result.(DownloadFailure)
	if !ok {
		t.Fatalf("expected download failure, got %#v", result)
	}
	if failure.Artifact.Handle != "job-1" {
		t.Fatalf("expected the generated artifact to be kept, got %#v", failure.Artifact)
	}
	if len(rec.generateCalls) != 1 {
		t.Fatalf("generate must run exactly once, got %d", len(rec.generateCalls))
	}
	if diff := cmp.Diff([]string{DownloadFailureMessage}, rec.notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if DownloadFailureMessage == FallbackMessage {
		t.Fatalf("download failures must read differently from remote failures")
	}
}

func TestSubmit_ValidationFailureCallsNothing(t *testing.T) {
	rec := &recorder{}
	tree := mustSet(t, filledKubernetes(t), "ansible_user", "")

	result := rec.orchestrator().Submit(context.Background(), model.FormKubernetes, tree)

	failure, ok := result.(ValidationFailure)
	if !ok {
		t.Fatalf("expected validation failure, got %#v", result)
	}
	want := []model.FieldError{{Path: "ansible_user", Message: "is required"}}
	if diff := cmp.Diff(want, failure.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(rec.generateCalls) != 0 || len(rec.downloads) != 0 || len(rec.notices) != 0 {
		t.Fatalf("expected no collaborator calls, got %+v", rec)
	}
}

func TestSubmit_WrongFormIsRejectedLocally(t *testing.T) {
	rec := &recorder{}

	result := rec.orchestrator().Submit(context.Background(), model.FormCompose, filledKubernetes(t))

	if _, ok := result.(ValidationFailure); !ok {
		t.Fatalf("expected validation failure, got %#v", result)
	}
	if len(rec.generateCalls) != 0 {
		t.Fatalf("expected no generate call")
	}
}

func TestSubmit_MissingCollaborators(t *testing.T) {
	result := New().Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))
	failure, ok := result.(RemoteFailure)
	if !ok || !errors.Is(failure.Err, ErrNoGenerator) {
		t.Fatalf("expected ErrNoGenerator, got %#v", result)
	}

	rec := &recorder{}
	result = New(WithGenerator(rec), WithNotifier(rec)).Submit(context.Background(), model.FormKubernetes, filledKubernetes(t))
	download, ok := result.(DownloadFailure)
	if !ok || !errors.Is(download.Err, ErrNoDownloader) {
		t.Fatalf("expected ErrNoDownloader, got %#v", result)
	}
}

func TestSubmit_PhaseSequence(t *testing.T) {
	tests := []struct {
		name  string
		rec   *recorder
		want  []Phase
		empty bool
	}{
		{
			name: "success",
			rec:  &recorder{},
			want: []Phase{PhaseValidating, PhaseGenerating, PhaseDownloading, PhaseIdle},
		},
		{
			name: "remote failure",
			rec:  &recorder{generateErr: errors.New("boom")},
			want: []Phase{PhaseValidating, PhaseGenerating, PhaseIdle},
		},
		{
			name:  "validation failure",
			rec:   &recorder{},
			want:  []Phase{PhaseValidating, PhaseIdle},
			empty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Phase
			observer := PhaseObserverFunc(func(form model.FormType, phase Phase) {
				if form != model.FormKubernetes {
					t.Errorf("unexpected form %q", form)
				}
				got = append(got, phase)
			})

			tree := filledKubernetes(t)
			if tt.empty {
				tree = mustSet(t, tree, "version", "")
			}
			tt.rec.orchestrator(WithPhaseObserver(observer)).Submit(context.Background(), model.FormKubernetes, tree)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("phases mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmit_ComposeDefaultsSucceed(t *testing.T) {
	rec := &recorder{}

	result := rec.orchestrator().Submit(context.Background(), model.FormCompose, mustReset(t, forms.Compose()))

	if !Succeeded(result) {
		t.Fatalf("expected seeded compose form to submit, got %#v", result)
	}
	if rec.downloads[0].FileName != "DockerCompose" {
		t.Fatalf("unexpected download %#v", rec.downloads[0])
	}
}

func TestPhaseLabels(t *testing.T) {
	tests := []struct {
		phase Phase
		idle  string
		want  string
		busy  bool
	}{
		{PhaseIdle, "", "Generate", false},
		{PhaseIdle, "Build", "Build", false},
		{PhaseValidating, "Build", "Build", false},
		{PhaseGenerating, "Build", "Generating...", true},
		{PhaseDownloading, "", "Downloading...", true},
	}
	for _, tt := range tests {
		if got := tt.phase.Label(tt.idle); got != tt.want {
			t.Errorf("%s label = %q, want %q", tt.phase, got, tt.want)
		}
		if got := tt.phase.Busy(); got != tt.busy {
			t.Errorf("%s busy = %v, want %v", tt.phase, got, tt.busy)
		}
	}
}
