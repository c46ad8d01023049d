// package formatter renders track lists and selections to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ParseFormat validates an export format name. Empty means json.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV, FormatText:
		return f, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, s)
	}
}

// ExportToCSV converts a selection's tracks to CSV with columns:
// ID, Name, Author, Album, Genres, Release Date, Duration, Likes, Audio URL
func ExportToCSV(export *models.SelectionTracks) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Author", "Album", "Genres", "Release Date", "Duration", "Likes", "Audio URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			strconv.Itoa(track.ID),
			track.Name,
			track.Author,
			track.Album,
			strings.Join(track.Genres, "; "),
			track.ReleaseDate,
			shared.FormatTime(track.DurationSeconds),
			strconv.Itoa(track.LikeCount()),
			track.AudioURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a selection to Markdown with an optional cover image
func ExportToMarkdown(export *models.SelectionTracks, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", shared.FormatTime(totalDuration(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != "" && track.Album != models.PlaceholderAuthor {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Author, track.Name, albumPart, shared.FormatTime(track.DurationSeconds))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a selection to plain text
func ExportToText(export *models.SelectionTracks) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Selection: %s\n", export.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Author, track.Name)
	}

	return buf.Bytes(), nil
}

// Render encodes tracks in format, labelling them with name where the format has a title.
func Render(name string, tracks []models.Track, format string) ([]byte, error) {
	export := &models.SelectionTracks{Name: name, Tracks: tracks}
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	default:
		return shared.MarshalJSON(tracks, true)
	}
}

func totalDuration(tracks []models.Track) float64 {
	var total float64
	for _, t := range tracks {
		if t.DurationSeconds > 0 {
			total += t.DurationSeconds
		}
	}
	return total
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// SelectionMetadata is the track-less summary written next to CSV exports.
type SelectionMetadata struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	TrackCount   int      `json:"track_count"`
	Duration     string   `json:"duration"`
	Authors      []string `json:"authors"`
	ExportedAt   string   `json:"exported_at"`
	TotalLikes   int      `json:"total_likes"`
	MissingAudio int      `json:"missing_audio,omitempty"`
}

// ToMetadataJSON generates a JSON summary of a selection (without tracks)
func ToMetadataJSON(export *models.SelectionTracks) ([]byte, error) {
	meta := SelectionMetadata{
		ID:         export.ID,
		Name:       export.Name,
		TrackCount: len(export.Tracks),
		Duration:   shared.FormatTime(totalDuration(export.Tracks)),
		Authors:    []string{},
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	seen := map[string]bool{}
	for _, t := range export.Tracks {
		meta.TotalLikes += t.LikeCount()
		if t.AudioURL == "" {
			meta.MissingAudio++
		}
		if t.Author != "" && t.Author != models.PlaceholderAuthor && !seen[t.Author] {
			seen[t.Author] = true
			meta.Authors = append(meta.Authors, t.Author)
		}
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// baseName is the default file stem for a selection export.
func baseName(export *models.SelectionTracks) string {
	return "selection_" + strconv.Itoa(export.ID)
}

// WriteCSVExport exports a selection to CSV with an accompanying metadata JSON file.
//
// Defaults to selection_{id} as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.SelectionTracks, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = baseName(export)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a selection to Markdown in a dedicated directory.
//
// Directory name defaults to selection_{id}.
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *models.SelectionTracks, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = baseName(export)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a selection to plain text.
//
// Defaults to selection_{id}_tracks.txt as the filename.
func WriteTextExport(export *models.SelectionTracks, path string) (string, error) {
	if path == "" {
		path = baseName(export) + "_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the selection with its tracks as indented JSON.
//
// Defaults to selection_{id}.json as the filename.
func WriteJSONExport(export *models.SelectionTracks, path string) (string, error) {
	if path == "" {
		path = baseName(export) + ".json"
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}

// SelectionExportResult is the outcome of exporting one selection.
type SelectionExportResult struct {
	SelectionID   int
	SelectionName string
	Success       bool
	Files         []string
	Error         error
}

// BulkExportResult summarizes a bulk selection export.
type BulkExportResult struct {
	TotalSelections   int
	SuccessfulExports int
	FailedExports     int
	Results           []SelectionExportResult
	OutputDirectory   string
	ManifestPath      string
}

type manifestEntry struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type manifest struct {
	Format            string          `json:"format"`
	GeneratedAt       string          `json:"generated_at"`
	OutputDirectory   string          `json:"output_directory"`
	TotalSelections   int             `json:"total_selections"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	TotalSize         string          `json:"total_size"`
	Selections        []manifestEntry `json:"selections"`
}

// WriteBulkExportManifest writes a JSON manifest describing every exported selection.
func WriteBulkExportManifest(result *BulkExportResult, format, path string) error {
	m := manifest{
		Format:            format,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
		OutputDirectory:   result.OutputDirectory,
		TotalSelections:   result.TotalSelections,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Selections:        make([]manifestEntry, 0, len(result.Results)),
	}

	var size uint64
	for _, r := range result.Results {
		entry := manifestEntry{ID: r.SelectionID, Name: r.SelectionName, Files: r.Files, Status: "success"}
		if !r.Success {
			entry.Status = "failed"
			if r.Error != nil {
				entry.Error = r.Error.Error()
			}
		}
		for _, f := range r.Files {
			if info, err := os.Stat(f); err == nil {
				size += uint64(info.Size())
			}
		}
		m.Selections = append(m.Selections, entry)
	}
	m.TotalSize = humanize.Bytes(size)

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
