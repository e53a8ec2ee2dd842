package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-confgen/internal/logging"
	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/renderers/tui"
	"github.com/goliatone/go-confgen/pkg/state"
	"github.com/goliatone/go-confgen/pkg/submit"
)

func fillCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <form>",
		Short: "Fill a form in the terminal and generate its configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			registry, err := a.registry()
			if err != nil {
				return err
			}
			def, err := registry.Get(model.FormType(args[0]))
			if err != nil {
				return err
			}

			driver := a.driver
			if driver == nil {
				driver = tui.NewSurveyDriver()
			}
			renderer := tui.New(tui.WithPromptDriver(driver))

			progress := renderer.Progress(ctx)
			orchestrator, err := a.orchestrator(logging.Logger("submit"),
				submit.WithNotifier(progress),
				submit.WithPhaseObserver(progress),
			)
			if err != nil {
				return err
			}

			tree, err := state.Reset(def)
			if err != nil {
				return err
			}
			tree, err = renderer.Fill(ctx, tree)
			if err != nil {
				return err
			}

			session := submit.NewSession(orchestrator, tree)
			result, err := session.Submit(ctx)
			if err != nil {
				return err
			}
			log.Debug().Str("form", string(def.Type)).Bool("ok", submit.Succeeded(result)).Msg("fill finished")
			if err := progress.Err(); err != nil {
				return err
			}
			return renderer.Report(ctx, result)
		},
	}
}
