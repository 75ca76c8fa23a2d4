package main

import (
	"context"
	"net/http"

	"github.com/desertthunder/lineup/internal/server"
	"github.com/desertthunder/lineup/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	engine, err := r.ready()
	if err != nil {
		return err
	}
	if engine.Enricher() == nil {
		r.logger.Warn("spotify credentials not configured, enrichment endpoints will return 503")
	}

	api := web.NewAPI(web.Deps{
		DB:          r.db,
		Engine:      engine,
		Program:     r.program,
		Config:      r.config,
		Logger:      r.logger,
		AudioClient: &http.Client{},
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	return server.Run(ctx, server.New(addr, web.NewRouter(api)), r.logger)
}
