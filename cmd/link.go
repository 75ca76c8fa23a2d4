package main

import (
	"context"

	"github.com/desertthunder/lineup/internal/matching"
	"github.com/desertthunder/lineup/internal/shared"
	"github.com/desertthunder/lineup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LinkAll matches every artist against every event.
func (r *Runner) LinkAll(ctx context.Context, cmd *cli.Command) error {
	return r.link(ctx, cmd, tasks.LinkRequest{Mode: tasks.LinkModeAll})
}

// LinkArtist matches one artist against every event.
func (r *Runner) LinkArtist(ctx context.Context, cmd *cli.Command) error {
	return r.link(ctx, cmd, tasks.LinkRequest{Mode: tasks.LinkModeSingle, ArtistID: cmd.Int64("id")})
}

func (r *Runner) link(ctx context.Context, cmd *cli.Command, req tasks.LinkRequest) error {
	engine, err := r.ready()
	if err != nil {
		return err
	}

	id := shared.GenerateID()
	if _, err := engine.Sessions().Create(id, tasks.KindLink); err != nil {
		return err
	}
	r.logger.Info("linking artists", "mode", req.Mode, "session", id)

	summary, err := engine.RunLinking(ctx, id, req)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}
	r.writeSummary(summary)
	return nil
}

func (r *Runner) writeSummary(s matching.Summary) {
	r.writePlainHeader("Linking Complete")
	r.writePlain("Artists: %d\nMatches: %d\nNew links: %d\n", s.TotalArtists, s.TotalMatches, s.NewLinks)
	r.writePlain("Confidence: %d high, %d medium, %d low\n", s.High, s.Medium, s.Low)
	if s.Errors > 0 {
		r.writePlain("Errors: %d\n", s.Errors)
	}
}
