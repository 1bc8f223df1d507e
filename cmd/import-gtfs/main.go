package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/berajelin/routia/internal/static/gtfs"
	"github.com/berajelin/routia/models"
	"github.com/berajelin/routia/repository"
)

func main() {
	dbPath := flag.String("db", "data/routia.db", "Path to SQLite database")
	gtfsDir := flag.String("gtfs-dir", "data/gtfs", "Directory containing GTFS zip files")
	ctanJSON := flag.String("ctan-json", "", "If set, also import this CTAN lines export")
	flag.Parse()

	database, err := repository.NewSQLiteDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	log.Printf("Connected to database: %s", *dbPath)

	ctx := context.Background()
	repo := repository.NewSQLiteLineRepository(database)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	imported := 0

	if *ctanJSON != "" {
		lines, err := repository.NewJSONLineRepository(*ctanJSON).LoadLines(ctx)
		if err != nil {
			log.Fatalf("Failed to load CTAN export: %v", err)
		}
		if err := repo.UpsertLines(ctx, "ctan", lines); err != nil {
			log.Fatalf("Failed to import CTAN export: %v", err)
		}
		if err := verifyImport(ctx, repo, lines); err != nil {
			log.Fatalf("CTAN import verification failed: %v", err)
		}
		log.Printf("SUCCESS: %d lines imported from %s", len(lines), *ctanJSON)
		imported += len(lines)
	}

	entries, err := os.ReadDir(*gtfsDir)
	if err != nil {
		if *ctanJSON != "" && os.IsNotExist(err) {
			log.Printf("No GTFS directory at %s, done", *gtfsDir)
			return
		}
		log.Fatalf("Failed to read GTFS directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}

		zipPath := filepath.Join(*gtfsDir, entry.Name())
		source := deriveSourceName(entry.Name())

		log.Printf("Processing %s as source '%s'...", entry.Name(), source)

		n, err := importGTFS(ctx, repo, zipPath, source)
		if err != nil {
			log.Printf("ERROR importing %s: %v", entry.Name(), err)
			continue
		}
		log.Printf("SUCCESS: %s imported (%d lines)", entry.Name(), n)
		imported += n
	}

	log.Printf("Import complete: %d lines", imported)
}

func importGTFS(ctx context.Context, repo *repository.SQLiteLineRepository, zipPath, source string) (int, error) {
	data, err := gtfs.Parse(zipPath)
	if err != nil {
		return 0, err
	}

	lines := gtfs.BuildLines(data)
	if err := repo.UpsertLines(ctx, source, lines); err != nil {
		return 0, err
	}
	if err := verifyImport(ctx, repo, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// verifyImport reads every imported line back and checks its stop count
func verifyImport(ctx context.Context, repo *repository.SQLiteLineRepository, lines []models.Line) error {
	for _, want := range lines {
		got, err := repo.GetLine(ctx, want.Code)
		if err != nil {
			return fmt.Errorf("failed to read back line %s: %w", want.Code, err)
		}
		if len(got.Stops) != len(want.Stops) {
			return fmt.Errorf("line %s stored %d stops, expected %d", want.Code, len(got.Stops), len(want.Stops))
		}
	}
	return nil
}

// deriveSourceName turns "ctan_sevilla_gtfs.zip" into "ctan_sevilla"
func deriveSourceName(filename string) string {
	name := strings.TrimSuffix(filename, ".zip")
	name = strings.TrimSuffix(name, "_gtfs")
	name = strings.TrimSuffix(name, "-gtfs")
	return strings.ToLower(name)
}
