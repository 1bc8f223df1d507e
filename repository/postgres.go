package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berajelin/routia/models"
)

// PostgresLineRepository reads the reference dataset from PostgreSQL
type PostgresLineRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLineRepository connects to databaseURL and verifies the connection
func NewPostgresLineRepository(ctx context.Context, databaseURL string) (*PostgresLineRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresLineRepository{pool: pool}, nil
}

func (r *PostgresLineRepository) Close() {
	r.pool.Close()
}

// EnsureSchema applies the shared dataset schema
func (r *PostgresLineRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresLineRepository) ListLines(ctx context.Context) ([]models.Line, error) {
	query := `
		SELECT l.code, l.name, s.stop_id, s.name, s.latitude, s.longitude
		FROM lines l
		LEFT JOIN line_stops s ON s.line_code = l.code
		ORDER BY l.code, s.seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []models.Line
	for rows.Next() {
		var (
			code, name       string
			stopID, stopName *string
			lat, lon         *float64
		)
		if err := rows.Scan(&code, &name, &stopID, &stopName, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}

		if len(lines) == 0 || lines[len(lines)-1].Code != code {
			lines = append(lines, models.Line{Code: code, Name: name, Stops: []models.Stop{}})
		}
		if stopID != nil {
			current := &lines[len(lines)-1]
			stop := models.Stop{ID: *stopID}
			if stopName != nil {
				stop.Name = *stopName
			}
			stop.Latitude, stop.Longitude = models.CoordinatesOrDefault(lat, lon)
			current.Stops = append(current.Stops, stop)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lines: %w", err)
	}

	return lines, nil
}

func (r *PostgresLineRepository) GetLine(ctx context.Context, code string) (*models.Line, error) {
	if code == "" {
		return nil, errors.New("line code cannot be empty")
	}

	var line models.Line
	err := r.pool.QueryRow(ctx, "SELECT code, name FROM lines WHERE code = $1", code).
		Scan(&line.Code, &line.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrLineNotFound, code)
		}
		return nil, fmt.Errorf("failed to query line: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT stop_id, name, latitude, longitude
		FROM line_stops
		WHERE line_code = $1
		ORDER BY seq
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	line.Stops = []models.Stop{}
	for rows.Next() {
		var (
			s        models.Stop
			lat, lon *float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		s.Latitude, s.Longitude = models.CoordinatesOrDefault(lat, lon)
		line.Stops = append(line.Stops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stops: %w", err)
	}

	return &line, nil
}

// LoadLines implements LineLoader
func (r *PostgresLineRepository) LoadLines(ctx context.Context) ([]models.Line, error) {
	lines, err := r.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d lines from PostgreSQL", len(lines))
	return lines, nil
}
