package tasks

import (
	"fmt"

	"github.com/desertthunder/skyplay/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	CacheTracks
	FetchSelections
	ExportSelection
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case CacheTracks:
		return "cache_tracks"
	case FetchSelections:
		return "fetch_selections"
	case ExportSelection:
		return "export_selection"
	default:
		return ""
	}
}

func fetchTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: "Fetching catalog tracks...",
	}
}

func cacheTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Caching %d tracks...", count),
	}
}

func fetchSelectionsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSelections,
		Step:    step,
		Total:   total,
		Message: "Fetching selections...",
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func exportingSelectionUpdate(step, total int, export *models.SelectionTracks) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSelection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exporting selection: %s (%d tracks)", export.Name, len(export.Tracks)),
		Data:    export,
	}
}

func exportCompletedUpdate(step, total int, name string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSelection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exported %s (%d files)", name, files),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSelection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to export %s: %v", name, err),
	}
}
