package submit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
)

func sequentialIDs() state.Option {
	n := 0
	return state.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func mustReset(t *testing.T, def *forms.Definition) *state.Tree {
	t.Helper()
	tree, err := state.Reset(def, sequentialIDs())
	if err != nil {
		t.Fatalf("reset %s: %v", def.Type, err)
	}
	return tree
}

func mustSet(t *testing.T, tree *state.Tree, path string, value any) *state.Tree {
	t.Helper()
	next, err := tree.Set(path, value)
	if err != nil {
		t.Fatalf("set %s: %v", path, err)
	}
	return next
}

// filledKubernetes is a Kubernetes tree that passes local validation.
func filledKubernetes(t *testing.T) *state.Tree {
	t.Helper()
	tree := mustReset(t, forms.Kubernetes())
	tree = mustSet(t, tree, "ansible_user", "root")
	tree = mustSet(t, tree, "ansible_port", 22)
	tree = mustSet(t, tree, "k8s_master_nodes.0.value", "10.0.0.1")
	tree = mustSet(t, tree, "k8s_worker_nodes.0.value", "10.0.0.2")
	tree, _, err := tree.Append("k8s_worker_nodes", nil)
	if err != nil {
		t.Fatalf("append worker: %v", err)
	}
	tree = mustSet(t, tree, "k8s_worker_nodes.1.value", "worker-2.lan")
	tree = mustSet(t, tree, "lb_nodes.0.value", "10.0.0.3")
	tree = mustSet(t, tree, "version", "1.29")
	return tree
}

type generateCall struct {
	form    model.FormType
	payload Payload
}

type recorder struct {
	mu            sync.Mutex
	generateErr   error
	downloadErr   error
	generateCalls []generateCall
	downloads     []DownloadRequest
	notices       []string
}

func (r *recorder) Generate(_ context.Context, form model.FormType, payload Payload) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generateCalls = append(r.generateCalls, generateCall{form: form, payload: payload})
	if r.generateErr != nil {
		return Artifact{}, r.generateErr
	}
	return Artifact{Handle: "job-1"}, nil
}

func (r *recorder) Download(_ context.Context, artifact Artifact, req DownloadRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloads = append(r.downloads, req)
	if r.downloadErr != nil {
		return "", r.downloadErr
	}
	return "/tmp/" + req.FileName + ".zip", nil
}

func (r *recorder) NotifyError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func (r *recorder) orchestrator(options ...Option) *Orchestrator {
	base := []Option{WithGenerator(r), WithDownloader(r), WithNotifier(r)}
	return New(append(base, options...)...)
}
