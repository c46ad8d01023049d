package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/player"
	"github.com/desertthunder/skyplay/internal/player/stream"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
	"github.com/desertthunder/skyplay/internal/ui"
)

// Play launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath, err := r.config.LogFilePath()
	if err != nil {
		return err
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	element := stream.New(stream.Options{
		Client:   r.httpClient,
		Logger:   shared.WithLogger(fileLogger, "component", "stream"),
		MaxBytes: r.config.Player.MaxDownloadBytes(),
	})
	defer element.Close()

	playerStore := store.NewPlayerStore()
	playerStore.Dispatch(store.SetVolume{Percent: r.config.Player.Volume})
	favoritesStore := store.NewFavoritesStore()

	controller := player.NewController(element, playerStore, favoritesStore, player.Options{
		Favorites:    r.catalog,
		Session:      r.catalog,
		Logger:       shared.WithLogger(fileLogger, "component", "player"),
		LikeErrorTTL: r.config.Player.LikeErrorTTL(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- controller.Run(ctx) }()

	model := ui.NewModel(ctx, ui.Deps{
		Engine:        r.engine,
		Catalog:       r.catalog,
		Controller:    controller,
		Player:        playerStore,
		Favorites:     favoritesStore,
		Offline:       cmd.Bool("offline"),
		Selection:     cmd.Int("selection"),
		FavoritesOnly: cmd.Bool("favorites"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	cancel()

	if ctrlErr := <-runErr; ctrlErr != nil {
		fileLogger.Error("controller stopped", "error", ctrlErr)
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
