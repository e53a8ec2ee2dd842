package forms

import "github.com/goliatone/go-confgen/pkg/model"

const (
	masterNodes = "k8s_master_nodes"
	workerNodes = "k8s_worker_nodes"
	lbNodes     = "lb_nodes"
	nodeLeaf    = "value"
)

// OSOptions lists the operating systems the Kubernetes playbooks target.
var OSOptions = []model.Option{
	{Label: "Ubuntu", Value: "ubuntu"},
	{Label: "CentOS", Value: "centos"},
}

// Kubernetes describes the Kubernetes-via-Ansible inventory form.
func Kubernetes() *Definition {
	nodePattern := func(group string) string {
		return model.JoinPath(group, model.Wildcard, nodeLeaf)
	}
	nodeField := func(group string, peers ...string) model.FieldSpec {
		patterns := append([]string{nodePattern(group)}, peers...)
		return model.FieldSpec{
			Name:     nodePattern(group),
			Kind:     model.KindText,
			Required: true,
			Rule:     model.Rules(Host(), UniqueAcross(patterns...)),
		}
	}
	nodeGroup := func(path, label string) GroupSpec {
		return GroupSpec{
			Path:         path,
			Label:        label,
			Leaf:         nodeLeaf,
			ProtectFirst: true,
			MinEntries:   1,
			Template:     func() map[string]any { return map[string]any{nodeLeaf: ""} },
		}
	}

	return &Definition{
		Type:  model.FormKubernetes,
		Title: "Kubernetes",
		Fields: []model.FieldSpec{
			{Name: "ansible_user", Kind: model.KindText, Required: true, Rule: model.NonEmpty{}},
			{Name: "ansible_port", Kind: model.KindNumber, Rule: model.Rules(Integer(), model.NumericRange{Min: 1, Max: 65535})},
			{Name: "os", Kind: model.KindSelect, Required: true, Options: OSOptions, Rule: model.OneOf{Values: optionValues(OSOptions)}},
			// Masters and workers may share hosts; load balancers may not.
			nodeField(masterNodes, nodePattern(lbNodes)),
			nodeField(workerNodes, nodePattern(lbNodes)),
			nodeField(lbNodes, nodePattern(masterNodes), nodePattern(workerNodes)),
			{Name: "version", Kind: model.KindText, Required: true, Rule: model.NonEmpty{}},
		},
		Groups: []GroupSpec{
			nodeGroup(masterNodes, "Master node"),
			nodeGroup(workerNodes, "Worker node"),
			nodeGroup(lbNodes, "Load balancer"),
		},
		Download: Download{
			FileName: "KubernetesAnsible",
			Source:   "kubernetes",
			Folder:   "MyAnsible",
		},
		Defaults: func() map[string]any {
			return map[string]any{
				"ansible_user": "",
				"os":           OSOptions[0],
				masterNodes:    []map[string]any{{nodeLeaf: ""}},
				workerNodes:    []map[string]any{{nodeLeaf: ""}},
				lbNodes:        []map[string]any{{nodeLeaf: ""}},
				"version":      "",
			}
		},
	}
}

func optionValues(options []model.Option) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		out = append(out, option.Value)
	}
	return out
}
