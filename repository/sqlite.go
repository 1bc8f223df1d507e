package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/berajelin/routia/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrLineNotFound is returned by GetLine for unknown line codes
var ErrLineNotFound = errors.New("line not found")

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewSQLiteDB opens the dataset database with WAL mode enabled
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; reads are served from the in-memory catalog anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// SchemaSQL returns the embedded dataset schema
func SchemaSQL() string {
	return schemaSQL
}

// SQLiteLineRepository stores the reference dataset in SQLite
type SQLiteLineRepository struct {
	db *SQLiteDB
}

// NewSQLiteLineRepository creates a new SQLiteLineRepository
func NewSQLiteLineRepository(db *SQLiteDB) *SQLiteLineRepository {
	return &SQLiteLineRepository{db: db}
}

// EnsureSchema creates the dataset tables if they don't exist
func (r *SQLiteLineRepository) EnsureSchema(ctx context.Context) error {
	r.db.writeMu.Lock()
	defer r.db.writeMu.Unlock()

	if _, err := r.db.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertLines inserts or replaces lines and their stop sequences in one transaction
func (r *SQLiteLineRepository) UpsertLines(ctx context.Context, source string, lines []models.Line) error {
	r.db.writeMu.Lock()
	defer r.db.writeMu.Unlock()

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	lineStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lines (code, name, source, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			source = excluded.source,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare line statement: %w", err)
	}
	defer lineStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO line_stops (line_code, seq, stop_id, name, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stop statement: %w", err)
	}
	defer stopStmt.Close()

	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("invalid line %q: %w", l.Code, err)
		}

		if _, err := lineStmt.ExecContext(ctx, l.Code, l.Name, source, now); err != nil {
			return fmt.Errorf("failed to upsert line %s: %w", l.Code, err)
		}

		// Replace the stop sequence for this line
		if _, err := tx.ExecContext(ctx, "DELETE FROM line_stops WHERE line_code = ?", l.Code); err != nil {
			return fmt.Errorf("failed to clear stops for line %s: %w", l.Code, err)
		}

		for i, s := range l.Stops {
			if _, err := stopStmt.ExecContext(ctx, l.Code, i, s.ID, s.Name, s.Latitude, s.Longitude); err != nil {
				return fmt.Errorf("failed to insert stop %s for line %s: %w", s.ID, l.Code, err)
			}
		}
	}

	return tx.Commit()
}

// ListLines returns every line with its stops, ordered by code
func (r *SQLiteLineRepository) ListLines(ctx context.Context) ([]models.Line, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT l.code, l.name, s.stop_id, s.name, s.latitude, s.longitude
		FROM lines l
		LEFT JOIN line_stops s ON s.line_code = l.code
		ORDER BY l.code, s.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []models.Line
	for rows.Next() {
		var (
			code, name       string
			stopID, stopName sql.NullString
			lat, lon         sql.NullFloat64
		)
		if err := rows.Scan(&code, &name, &stopID, &stopName, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}

		if len(lines) == 0 || lines[len(lines)-1].Code != code {
			lines = append(lines, models.Line{Code: code, Name: name, Stops: []models.Stop{}})
		}
		if stopID.Valid {
			current := &lines[len(lines)-1]
			current.Stops = append(current.Stops, scanStop(stopID.String, stopName.String, lat, lon))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lines: %w", err)
	}

	return lines, nil
}

// GetLine returns one line with its ordered stops
func (r *SQLiteLineRepository) GetLine(ctx context.Context, code string) (*models.Line, error) {
	if code == "" {
		return nil, errors.New("line code cannot be empty")
	}

	var line models.Line
	err := r.db.db.QueryRowContext(ctx, "SELECT code, name FROM lines WHERE code = ?", code).
		Scan(&line.Code, &line.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrLineNotFound, code)
		}
		return nil, fmt.Errorf("failed to query line: %w", err)
	}

	rows, err := r.db.db.QueryContext(ctx, `
		SELECT stop_id, name, latitude, longitude
		FROM line_stops
		WHERE line_code = ?
		ORDER BY seq
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	line.Stops = []models.Stop{}
	for rows.Next() {
		var (
			id, name string
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		line.Stops = append(line.Stops, scanStop(id, name, lat, lon))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stops: %w", err)
	}

	return &line, nil
}

// LoadLines implements LineLoader
func (r *SQLiteLineRepository) LoadLines(ctx context.Context) ([]models.Line, error) {
	lines, err := r.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d lines from SQLite", len(lines))
	return lines, nil
}

func scanStop(id, name string, lat, lon sql.NullFloat64) models.Stop {
	var latPtr, lonPtr *float64
	if lat.Valid {
		latPtr = &lat.Float64
	}
	if lon.Valid {
		lonPtr = &lon.Float64
	}
	resolvedLat, resolvedLon := models.CoordinatesOrDefault(latPtr, lonPtr)

	return models.Stop{
		ID:        id,
		Name:      name,
		Latitude:  resolvedLat,
		Longitude: resolvedLon,
	}
}
