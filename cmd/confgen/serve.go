package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-confgen/internal/logging"
	"github.com/goliatone/go-confgen/pkg/renderers/web"
	"github.com/goliatone/go-confgen/pkg/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forms in the browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			handler, err := a.handler()
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Info().Str("addr", addr).Msg("serving forms")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}

func (a *app) handler() (http.Handler, error) {
	registry, err := a.registry()
	if err != nil {
		return nil, err
	}
	orchestrator, err := a.orchestrator(logging.Logger("submit"))
	if err != nil {
		return nil, err
	}
	renderer, err := web.New()
	if err != nil {
		return nil, err
	}
	srv, err := server.New(registry, orchestrator, renderer,
		server.WithLogger(logging.Logger("server")),
		server.WithSubmitWait(a.cfg.Server.SubmitWait),
		server.WithInstanceTTL(a.cfg.Server.InstanceTTL),
	)
	if err != nil {
		return nil, err
	}
	return srv.Routes(), nil
}
