package forms

import "github.com/goliatone/go-confgen/pkg/model"

const (
	servicesGroup = "services"
	networksGroup = "networks"
)

// Compose describes the Docker Compose form: a version, a list of services
// (each with a nested build section) and named networks.
func Compose() *Definition {
	svc := func(leaf string) string { return model.JoinPath(servicesGroup, model.Wildcard, leaf) }
	net := func(leaf string) string { return model.JoinPath(networksGroup, model.Wildcard, leaf) }

	return &Definition{
		Type:  model.FormCompose,
		Title: "Docker Compose",
		Fields: []model.FieldSpec{
			{Name: "version", Kind: model.KindText, Required: true, Rule: model.NonEmpty{}},
			{Name: svc("name"), Kind: model.KindText, Required: true, Rule: UniqueAcross(svc("name"))},
			{Name: svc("image"), Kind: model.KindText, Rule: RequireEither("build.context", "requires an image or a build context")},
			{Name: svc("container_name"), Kind: model.KindText},
			{Name: svc("command"), Kind: model.KindTextArea},
			{Name: svc("build.context"), Kind: model.KindText},
			{Name: svc("build.dockerfile"), Kind: model.KindText},
			{Name: svc("build.args"), Kind: model.KindTextArea, Wire: model.WireMap},
			{Name: svc("environment"), Kind: model.KindTextArea, Wire: model.WireMap},
			{Name: svc("ports"), Kind: model.KindText, Wire: model.WireList},
			{Name: svc("volumes"), Kind: model.KindText, Wire: model.WireList},
			{Name: svc("networks"), Kind: model.KindText, Wire: model.WireList},
			{Name: svc("depends_on"), Kind: model.KindText, Wire: model.WireList},
			{Name: net("name"), Kind: model.KindText, Required: true, Rule: UniqueAcross(net("name"))},
			{Name: net("driver"), Kind: model.KindText, Required: true, Rule: model.NonEmpty{}},
		},
		Groups: []GroupSpec{
			{
				Path:       servicesGroup,
				Label:      "Service",
				MinEntries: 1,
				Template:   emptyService,
			},
			{
				Path:     networksGroup,
				Label:    "Network",
				Template: func() map[string]any { return map[string]any{"name": "", "driver": ""} },
			},
		},
		Download: Download{
			FileName: "DockerCompose",
			Source:   "docker-compose",
			Folder:   "MyCompose",
		},
		Defaults: func() map[string]any {
			return map[string]any{
				"version":     "3",
				servicesGroup: []map[string]any{exampleService()},
				networksGroup: []map[string]any{{"name": "app_network", "driver": "bridge"}},
			}
		},
	}
}

func exampleService() map[string]any {
	return map[string]any{
		"name":           "web",
		"image":          "nginx:latest",
		"container_name": "web_server",
		"command":        "command...",
		"build": map[string]any{
			"context":    ".",
			"dockerfile": "DockerFile",
			"args":       "foo=bar",
		},
		"environment": "foo=bar",
		"ports":       "80:80",
		"volumes":     "./foo:bar",
		"networks":    "app_network",
		"depends_on":  "",
	}
}

func emptyService() map[string]any {
	return map[string]any{
		"name":           "",
		"image":          "",
		"container_name": "",
		"command":        "",
		"build": map[string]any{
			"context":    "",
			"dockerfile": "",
			"args":       "",
		},
		"environment": "",
		"ports":       "",
		"volumes":     "",
		"networks":    "",
		"depends_on":  "",
	}
}
