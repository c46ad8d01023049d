// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [TrackListView] : Browse the catalog, favorites or a selection with filters applied
//  2. [SelectionListView] : Pick a curated selection
//  3. [SearchView] : Edit the name search while the list updates live
//
// A player bar under every view renders the shared playback state.
// Keys map to [player.Controller] intents, so the UI never touches the audio element directly.
// Store changes made by the controller goroutine are picked up by a periodic tick;
// load, playback and like failures arrive over the controller's [player.Subscription].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
