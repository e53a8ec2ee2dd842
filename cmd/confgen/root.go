package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	confgen "github.com/goliatone/go-confgen"
	"github.com/goliatone/go-confgen/internal/config"
	"github.com/goliatone/go-confgen/internal/logging"
	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/generator"
	"github.com/goliatone/go-confgen/pkg/renderers/tui"
	"github.com/goliatone/go-confgen/pkg/submit"
)

// app carries what the commands share once the root pre-run loaded config.
type app struct {
	configPath string
	debug      bool

	cfg config.Config
	// driver overrides the survey prompts, used by tests.
	driver tui.PromptDriver
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "confgen",
		Short:        "confgen fills configuration forms and generates deployable configs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, ".env")
			if err != nil {
				return err
			}
			if a.debug {
				cfg.Log.Debug = true
			}
			a.cfg = cfg
			logging.InitWriter(cmd.ErrOrStderr(), cfg.Log.Debug)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(describeCmd(a))
	cmd.AddCommand(fillCmd(a))
	cmd.AddCommand(serveCmd(a))
	return cmd
}

func (a *app) registry() (*forms.Registry, error) {
	return confgen.DefaultRegistry()
}

func (a *app) orchestrator(logger zerolog.Logger, options ...submit.Option) (*submit.Orchestrator, error) {
	client, err := generator.New(a.cfg.Generator.BaseURL,
		generator.WithTimeout(a.cfg.Generator.Timeout),
		generator.WithContractCheck(a.cfg.Generator.ContractCheck),
		generator.WithDownloadDir(a.cfg.Download.Dir),
		generator.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	opts := append([]submit.Option{submit.WithLogger(logger)}, options...)
	return confgen.NewOrchestrator(client, opts...), nil
}
