package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-confgen/pkg/model"
)

type fieldDescription struct {
	model.FieldSpec
	Rule string `json:"rule,omitempty"`
}

func describeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "describe <form>",
		Short: "List the fields of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			specs, err := registry.Describe(model.FormType(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), specs)
			}
			return writeTable(cmd.OutOrStdout(), specs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print field specs as JSON")
	return cmd
}

func writeJSON(w io.Writer, specs []model.FieldSpec) error {
	out := make([]fieldDescription, 0, len(specs))
	for _, spec := range specs {
		out = append(out, fieldDescription{FieldSpec: spec, Rule: spec.RuleName()})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, specs []model.FieldSpec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tREQUIRED\tLABEL\tRULE")
	for _, spec := range specs {
		required := ""
		if spec.Required {
			required = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", spec.Name, spec.Kind, required, spec.Label, strings.TrimSpace(spec.RuleName()))
	}
	return tw.Flush()
}
