package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

// TrackRepository implements [models.TrackStore] for the offline catalog cache.
//
// Rows are keyed by a generated UUID and unique on the catalog id. Deletes are soft.
type TrackRepository struct {
	db *sql.DB
}

var _ models.TrackStore = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = `id, sequence, catalog_id, name, author, album, genres, release_date,
	duration_seconds, audio_url, logo, liked_by, created_at, updated_at, deleted_at`

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	genres, likedBy, err := encodeLists(track.Track())
	if err != nil {
		return err
	}

	t := track.Track()
	query := `
		INSERT INTO tracks (id, sequence, catalog_id, name, author, album, genres, release_date,
			duration_seconds, audio_url, logo, liked_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		t.ID,
		t.Name,
		t.Author,
		t.Album,
		genres,
		t.ReleaseDate,
		t.DurationSeconds,
		t.AudioURL,
		t.Logo,
		likedBy,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByCatalogID retrieves a cached track by its catalog id
func (r *TrackRepository) GetByCatalogID(catalogID int) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE catalog_id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, catalogID))
}

// Update replaces the cached catalog fields of an existing track
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	genres, likedBy, err := encodeLists(track.Track())
	if err != nil {
		return err
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	t := track.Track()
	query := `
		UPDATE tracks
		SET name = ?, author = ?, album = ?, genres = ?, release_date = ?, duration_seconds = ?,
			audio_url = ?, logo = ?, liked_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		t.Name,
		t.Author,
		t.Album,
		genres,
		t.ReleaseDate,
		t.DurationSeconds,
		t.AudioURL,
		t.Logo,
		likedBy,
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves cached tracks in insertion order, excluding soft-deleted tracks.
//
// Supported criteria: "author" (exact match) and "limit" (positive int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if author, ok := criteria["author"].(string); ok && author != "" {
		query += " AND author = ?"
		args = append(args, author)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func (r *TrackRepository) scan(row rowScanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		t         models.Track
		genres    string
		likedBy   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &t.ID, &t.Name, &t.Author, &t.Album, &genres, &t.ReleaseDate,
		&t.DurationSeconds, &t.AudioURL, &t.Logo, &likedBy, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	if err := json.Unmarshal([]byte(genres), &t.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres for track %d: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(likedBy), &t.LikedBy); err != nil {
		return nil, fmt.Errorf("failed to decode liked_by for track %d: %w", t.ID, err)
	}

	track := models.NewCachedTrack(sequence, t)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func encodeLists(t models.Track) (string, string, error) {
	genres := t.Genres
	if genres == nil {
		genres = []string{}
	}
	g, err := json.Marshal(genres)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode genres: %w", err)
	}

	liked := []string(t.LikedBy)
	if liked == nil {
		liked = []string{}
	}
	l, err := json.Marshal(liked)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode liked_by: %w", err)
	}
	return string(g), string(l), nil
}

// Restore clears the soft-delete marker of a cached track by catalog id.
func (r *TrackRepository) Restore(catalogID int) error {
	if _, err := r.db.Exec(`UPDATE tracks SET deleted_at = NULL WHERE catalog_id = ?`, catalogID); err != nil {
		return fmt.Errorf("failed to restore track %d: %w", catalogID, err)
	}
	return nil
}
