package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
)

func kubernetesPayload() submit.Payload {
	return submit.Payload{
		"ansible_user":     "root",
		"ansible_port":     int64(22),
		"os":               "ubuntu",
		"k8s_master_nodes": []any{"10.0.0.1"},
		"k8s_worker_nodes": []any{"10.0.0.2"},
		"lb_nodes":         []any{"10.0.0.3"},
		"version":          "1.29",
	}
}

func newClient(t *testing.T, server *httptest.Server, options ...Option) *Client {
	t.Helper()
	client, err := New(server.URL+"/", append([]Option{WithHTTPClient(server.Client())}, options...)...)
	require.NoError(t, err)
	return client
}

func TestGenerate_PostsToContractPath(t *testing.T) {
	var gotPath, gotMethod, gotType string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotType = r.URL.Path, r.Method, r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"job-42","output":"ok"}`)
	}))
	defer server.Close()

	artifact, err := newClient(t, server).Generate(context.Background(), model.FormKubernetes, kubernetesPayload())
	require.NoError(t, err)

	require.Equal(t, "/api/ansible-install/kubernetes/", gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/json", gotType)
	require.Equal(t, "ubuntu", gotBody["os"])
	require.Equal(t, float64(22), gotBody["ansible_port"])
	require.Equal(t, "job-42", artifact.Handle)
	require.Equal(t, model.FormKubernetes, artifact.Form)
	require.JSONEq(t, `{"id":"job-42","output":"ok"}`, string(artifact.Body))
}

func TestGenerate_StructuredRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","ansible_port"],"msg":"must be an integer","type":"type_error.integer"}]}`)
	}))
	defer server.Close()

	_, err := newClient(t, server).Generate(context.Background(), model.FormKubernetes, kubernetesPayload())

	var structured *submit.StructuredError
	require.ErrorAs(t, err, &structured)
	require.Equal(t, http.StatusUnprocessableEntity, structured.StatusCode)
	require.Equal(t, "ansible_port must be an integer", structured.Message())
}

func TestGenerate_UnstructuredFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "422 without detail", status: http.StatusUnprocessableEntity, body: `{"error":"nope"}`},
		{name: "422 with text", status: http.StatusUnprocessableEntity, body: "bad input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newClient(t, server).Generate(context.Background(), model.FormKubernetes, kubernetesPayload())

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tt.status, statusErr.StatusCode)
			var structured *submit.StructuredError
			require.False(t, errors.As(err, &structured))
		})
	}
}

func TestGenerate_ContractCheckStopsBeforeDispatch(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	payload := kubernetesPayload()
	payload["os"] = "windows"
	payload["ansible_port"] = int64(70000)

	_, err := newClient(t, server, WithContractCheck(true)).Generate(context.Background(), model.FormKubernetes, payload)

	var structured *submit.StructuredError
	require.ErrorAs(t, err, &structured)
	require.Zero(t, calls)

	locations := make(map[string]bool)
	for _, detail := range structured.Details {
		locations[detail.Loc.Last()] = true
		require.Equal(t, "body", detail.Loc[0])
	}
	require.True(t, locations["os"], "expected an os violation, got %+v", structured.Details)
	require.True(t, locations["ansible_port"], "expected a port violation, got %+v", structured.Details)
}

func TestGenerate_ContractCheckAcceptsValidPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	_, err := newClient(t, server, WithContractCheck(true)).Generate(context.Background(), model.FormKubernetes, kubernetesPayload())
	require.NoError(t, err)
}

func TestGenerate_UnknownForm(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newClient(t, server).Generate(context.Background(), model.FormType("helm"), submit.Payload{})
	require.ErrorIs(t, err, ErrUnknownOperation)
}

func TestDownload_WritesArchive(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/zip")
		_, _ = io.WriteString(w, "PK\x03\x04archive")
	}))
	defer server.Close()

	dir := t.TempDir()
	client := newClient(t, server, WithDownloadDir(filepath.Join(dir, "out")))

	location, err := client.Download(context.Background(), submit.Artifact{}, submit.DownloadRequest{
		FileName: "KubernetesAnsible",
		Source:   "kubernetes",
		Folder:   "MyAnsible",
	})
	require.NoError(t, err)
	require.Equal(t, "/download/MyAnsible/kubernetes", gotPath)
	require.Equal(t, filepath.Join(dir, "out", "KubernetesAnsible.zip"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	require.Equal(t, "PK\x03\x04archive", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestDownload_StatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing archive", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newClient(t, server, WithDownloadDir(dir)).Download(context.Background(), submit.Artifact{}, submit.DownloadRequest{
		FileName: "DockerCompose", Source: "docker-compose", Folder: "MyCompose",
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "missing archive", statusErr.Body)

	_, statErr := os.Stat(filepath.Join(dir, "DockerCompose.zip"))
	require.True(t, os.IsNotExist(statErr))
}

func TestDownload_RequiresParameters(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newClient(t, server).Download(context.Background(), submit.Artifact{}, submit.DownloadRequest{FileName: "x"})
	require.Error(t, err)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "::nope"} {
		_, err := New(raw)
		require.Error(t, err, raw)
	}
}

func TestClientSubmitsThroughOrchestrator(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/docker-compose/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":"compose-1"}`)
	})
	mux.HandleFunc("GET /download/MyCompose/docker-compose", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "zip")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	client := newClient(t, server, WithDownloadDir(dir), WithContractCheck(true))
	var notices []string
	orchestrator := submit.New(
		submit.WithGenerator(client),
		submit.WithDownloader(client),
		submit.WithNotifier(submit.NotifierFunc(func(message string) { notices = append(notices, message) })),
	)
	tree, err := state.Reset(forms.Compose())
	require.NoError(t, err)

	result := orchestrator.Submit(context.Background(), model.FormCompose, tree)

	success, ok := result.(submit.Success)
	require.True(t, ok, "expected success, got %#v", result)
	require.Equal(t, "compose-1", success.Artifact.Handle)
	require.Equal(t, filepath.Join(dir, "DockerCompose.zip"), success.Location)
	require.Empty(t, notices)
}

func TestDefaultContractOperations(t *testing.T) {
	contract, err := DefaultContract()
	require.NoError(t, err)

	want := []string{"basic", "bugfix", "compose", DownloadOperation, "kubernetes"}
	if diff := cmp.Diff(want, contract.Operations()); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	for _, form := range []model.FormType{model.FormKubernetes, model.FormCompose, model.FormBasic, model.FormBugFix} {
		op, err := contract.Generate(form)
		require.NoError(t, err, form)
		require.Equal(t, http.MethodPost, op.Method)
	}
	_, err = contract.Generate(model.FormType(DownloadOperation))
	require.Error(t, err, "download is not a generate operation")
}

func TestLoadContract_RejectsMissingOperationID(t *testing.T) {
	doc := []byte(`openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /x:
    post:
      responses:
        '200': {description: ok}
`)
	_, err := LoadContract(context.Background(), doc)
	require.Error(t, err)
}
