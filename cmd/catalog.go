package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/filters"
	"github.com/desertthunder/skyplay/internal/formatter"
	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/tasks"
)

// Tracks lists catalog tracks with search, author, genre and sort applied.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	order, err := filters.ParseSortOrder(cmd.String("sort"))
	if err != nil {
		return err
	}

	state := filters.State{
		Search: cmd.String("search"),
		Author: cmd.String("author"),
		Genre:  cmd.String("genre"),
		Sort:   order,
	}

	tracks, err := r.engine.Tracks(ctx, cmd.Bool("offline"))
	if err != nil {
		return err
	}

	visible := filters.Apply(tracks, state)
	r.logger.Debug("tracks filtered", "total", len(tracks), "shown", len(visible), "filters", state.Active())
	return r.writeTracks("Tracks", visible, cmd.String("format"), cmd.String("output"))
}

// Authors lists the distinct authors in the catalog.
func (r *Runner) Authors(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.engine.Tracks(ctx, cmd.Bool("offline"))
	if err != nil {
		return err
	}
	for _, a := range filters.UniqueAuthors(tracks) {
		r.writePlain("%s\n", a)
	}
	return nil
}

// Genres lists the distinct genres in the catalog.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.engine.Tracks(ctx, cmd.Bool("offline"))
	if err != nil {
		return err
	}
	for _, g := range filters.UniqueGenres(tracks) {
		r.writePlain("%s\n", g)
	}
	return nil
}

// SelectionsList lists curated selections.
func (r *Runner) SelectionsList(ctx context.Context, cmd *cli.Command) error {
	selections, err := r.catalog.FetchSelections(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(selections, true)
	}

	r.writePlainHeader(fmt.Sprintf("Selections (%d)", len(selections)))
	for _, s := range selections {
		name := cmp.Or(s.Name, services.DefaultSelectionName)
		r.writePlain("%4d  %s (%d tracks)\n", s.ID, name, len(s.Items))
	}
	return nil
}

// SelectionsShow prints the tracks of one selection.
func (r *Runner) SelectionsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	selection, err := r.catalog.FetchSelectionTracks(ctx, id)
	if err != nil {
		return err
	}
	return r.writeTracks(selection.Name, selection.Tracks, cmd.String("format"), "")
}

// SelectionsExport writes selections to disk through the bulk export task.
func (r *Runner) SelectionsExport(ctx context.Context, cmd *cli.Command) error {
	var ids []int
	for _, raw := range cmd.StringSlice("id") {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
		WithCovers: cmd.Bool("covers"),
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = n
	}
	if limit := cmd.Float("rate-limit"); limit > 0 {
		opts.RateLimit = limit
	}

	r.logger.Info("exporting selections", "ids", ids, "format", opts.Format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, ids, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	var size uint64
	for _, res := range result.Results {
		for _, f := range res.Files {
			if info, statErr := os.Stat(f); statErr == nil {
				size += uint64(info.Size())
			}
		}
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Output: %s (%s)\n", result.OutputDirectory, humanize.Bytes(size))
	r.writePlain("Exported: %d/%d selections\n", result.SuccessfulExports, result.TotalSelections)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d selections:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.SelectionName, res.Error)
			}
		}
	}
	return err
}

// FavoritesList prints the signed-in user's liked tracks.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.catalog.FetchFavorites(ctx)
	if err != nil {
		return err
	}
	return r.writeTracks("Favorites", tracks, cmd.String("format"), "")
}

// FavoritesAdd likes a track.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.catalog.SetFavorite(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Liked track %d\n", id)
}

// FavoritesRemove unlikes a track.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.catalog.UnsetFavorite(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed track %d from favorites\n", id)
}

// writeTracks renders tracks in format to output, or to the runner's output when empty.
func (r *Runner) writeTracks(name string, tracks []models.Track, format, output string) error {
	format, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}

	data, err := formatter.Render(name, tracks, format)
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		return r.writePlain("✓ Wrote %d tracks to %s\n", len(tracks), output)
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return r.writePlain("\n")
	}
	return nil
}

func parseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}
