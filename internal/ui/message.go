package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksFetched MsgKind = iota
	MsgSelectionsFetched
	MsgSelectionFetched
	MsgFavoritesSynced
	MsgPlayerError
	MsgLikeError
	MsgLikeDone
	MsgTick
)

type tracksData struct {
	tracks []models.Track
	err    error
}

type selectionsData struct {
	selections []models.Selection
	err        error
}

type selectionData struct {
	selection *models.SelectionTracks
	err       error
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksData{tracks, err}}
}

// selectionsFetchedMsg is the constructor for [MsgSelectionsFetched]
func selectionsFetchedMsg(selections []models.Selection, err error) Msg {
	return Msg{kind: MsgSelectionsFetched, data: selectionsData{selections, err}}
}

// selectionFetchedMsg is the constructor for [MsgSelectionFetched]
func selectionFetchedMsg(selection *models.SelectionTracks, err error) Msg {
	return Msg{kind: MsgSelectionFetched, data: selectionData{selection, err}}
}

// favoritesSyncedMsg is the constructor for [MsgFavoritesSynced]
func favoritesSyncedMsg(err error) Msg {
	return Msg{kind: MsgFavoritesSynced, data: err}
}

// playerErrorMsg is the constructor for [MsgPlayerError]
func playerErrorMsg(e player.ErrorEvent) Msg {
	return Msg{kind: MsgPlayerError, data: e}
}

// likeErrorMsg is the constructor for [MsgLikeError]
func likeErrorMsg(message string) Msg {
	return Msg{kind: MsgLikeError, data: message}
}

// likeDoneMsg is the constructor for [MsgLikeDone]
func likeDoneMsg(err error) Msg {
	return Msg{kind: MsgLikeDone, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}
