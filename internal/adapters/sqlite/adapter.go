// Package sqlite provides a SQLite-backed implementation of the track
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Adapter implements the track repository port for SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.TrackRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			bpm REAL,
			duration_seconds REAL,
			harmonic_key TEXT,
			energy_curve TEXT,
			structure TEXT,
			cue_points TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (a *Adapter) Save(ctx context.Context, t domain.Track) error {
	energy, structure, cues, err := marshalFeatures(t)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO tracks (id, title, artist, source, bpm, duration_seconds, harmonic_key, energy_curve, structure, cue_points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			source = excluded.source,
			bpm = excluded.bpm,
			duration_seconds = excluded.duration_seconds,
			harmonic_key = excluded.harmonic_key,
			energy_curve = excluded.energy_curve,
			structure = excluded.structure,
			cue_points = excluded.cue_points
	`, t.ID, t.Title, t.Artist, t.Source,
		nullFloat(t.BPM), nullFloat(t.DurationSeconds), nullString(t.HarmonicKey),
		energy, structure, cues)
	if err != nil {
		return fmt.Errorf("failed to save track: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Track, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, title, artist, source, bpm, duration_seconds, harmonic_key, energy_curve, structure, cue_points
		FROM tracks WHERE id = ?
	`, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Track{}, domain.ErrNotFound
		}
		return domain.Track{}, fmt.Errorf("failed to load track: %w", err)
	}
	return track, nil
}

func (a *Adapter) List(ctx context.Context) ([]domain.Track, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, title, artist, source, bpm, duration_seconds, harmonic_key, energy_curve, structure, cue_points
		FROM tracks ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	tracks := []domain.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}
	return tracks, nil
}

func (a *Adapter) UpdateFeatures(ctx context.Context, id string, an domain.Analysis) error {
	energy, structure, cues, err := marshalFeatures(domain.Track{
		EnergyCurve: an.EnergyCurve,
		Structure:   an.Structure,
		Cues:        an.Cues,
	})
	if err != nil {
		return err
	}

	res, err := a.db.ExecContext(ctx, `
		UPDATE tracks SET bpm = ?, duration_seconds = ?, harmonic_key = ?, energy_curve = ?, structure = ?, cue_points = ?
		WHERE id = ?
	`, nullFloat(an.BPM), nullFloat(an.DurationSeconds), nullString(an.HarmonicKey),
		energy, structure, cues, id)
	if err != nil {
		return fmt.Errorf("failed to update track features: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update track features: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTrack(row scannable) (domain.Track, error) {
	var track domain.Track
	var bpm, duration sql.NullFloat64
	var key, energy, structure, cues sql.NullString

	if err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Source,
		&bpm, &duration, &key, &energy, &structure, &cues); err != nil {
		return domain.Track{}, err
	}

	if bpm.Valid {
		track.BPM = bpm.Float64
	}
	if duration.Valid {
		track.DurationSeconds = duration.Float64
	}
	if key.Valid {
		track.HarmonicKey = key.String
	}
	if energy.Valid && energy.String != "" {
		if err := json.Unmarshal([]byte(energy.String), &track.EnergyCurve); err != nil {
			return domain.Track{}, fmt.Errorf("decode energy curve: %w", err)
		}
	}
	if structure.Valid && structure.String != "" {
		track.Structure = &domain.Structure{}
		if err := json.Unmarshal([]byte(structure.String), track.Structure); err != nil {
			return domain.Track{}, fmt.Errorf("decode structure: %w", err)
		}
	}
	if cues.Valid && cues.String != "" {
		track.Cues = &domain.CuePoints{}
		if err := json.Unmarshal([]byte(cues.String), track.Cues); err != nil {
			return domain.Track{}, fmt.Errorf("decode cue points: %w", err)
		}
	}
	return track, nil
}

func marshalFeatures(t domain.Track) (energy, structure, cues any, err error) {
	energy, structure, cues = nil, nil, nil

	if len(t.EnergyCurve) > 0 {
		b, merr := json.Marshal(t.EnergyCurve)
		if merr != nil {
			return nil, nil, nil, fmt.Errorf("encode energy curve: %w", merr)
		}
		energy = string(b)
	}
	if t.Structure != nil {
		b, merr := json.Marshal(t.Structure)
		if merr != nil {
			return nil, nil, nil, fmt.Errorf("encode structure: %w", merr)
		}
		structure = string(b)
	}
	if t.Cues != nil {
		b, merr := json.Marshal(t.Cues)
		if merr != nil {
			return nil, nil, nil, fmt.Errorf("encode cue points: %w", merr)
		}
		cues = string(b)
	}
	return energy, structure, cues, nil
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
