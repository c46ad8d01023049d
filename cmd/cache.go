package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/tasks"
)

// CacheRefresh replaces the cached track snapshot with the current catalog.
func (r *Runner) CacheRefresh(ctx context.Context, cmd *cli.Command) error {
	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.RefreshCache(ctx, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.logger.Info("cache refreshed", "fetched", result.Fetched, "cached", result.Cached)
	return r.writePlain("✓ Cached %d of %d tracks\n", result.Cached, result.Fetched)
}

// CacheList prints the cached tracks without touching the network.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.engine.Tracks(ctx, true)
	if err != nil {
		return err
	}
	return r.writeTracks("Cached Tracks", tracks, cmd.String("format"), "")
}
