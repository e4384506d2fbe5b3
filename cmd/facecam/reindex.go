package main

import (
	"errors"
	"facecam/internal/config"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"facecam/internal/repository/sqlite"
	"facecam/internal/service/storage"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Index existing face crops into the database",
	Long: `Reindex scans the face directory, parses crop filenames and inserts the
crops that are missing from the database. Position in the frame and session
number are not encoded in filenames and stay empty.

Examples:
  facecam reindex
  facecam reindex --faces /mnt/archive/event_faces --db /mnt/archive/facecam.db`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().String("faces", "", "Face crop directory (FACE_DIR)")
	reindexCmd.Flags().String("db", "", "Database path (DB_PATH)")
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("faces") {
		cfg.FaceDirectory = mustGetString(cmd, "faces")
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = mustGetString(cmd, "db")
	}

	fmt.Printf("Indexing faces from %s into database %s\n", cfg.FaceDirectory, cfg.DatabasePath)

	if err := storage.EnsureDirs(filepath.Dir(cfg.DatabasePath)); err != nil {
		return err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	faceRepo := sqlite.NewFaceRepository(db)

	total, err := storage.CountCrops(cfg.FaceDirectory)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No face crops found to index")
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning crops"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	runID := "reindex-" + uuid.NewString()
	result, err := storage.ScanFaces(cfg.FaceDirectory, runID, logger.NewDiscard(), func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	if len(result.Faces) == 0 {
		return errors.New("no crop filename could be parsed")
	}

	missing, err := unindexed(faceRepo, result.Faces)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		fmt.Printf("Inserting %d faces into database...\n", len(missing))
		if err := faceRepo.InsertBatch(missing); err != nil {
			return fmt.Errorf("failed to insert faces: %w", err)
		}
	}

	fmt.Printf("✅ Indexed %d new faces (%d already known)\n", len(missing), len(result.Faces)-len(missing))
	if total, err := faceRepo.Count(); err == nil {
		fmt.Printf("   Index now holds %d faces\n", total)
	}
	if result.Skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid format or errors)\n", result.Skipped)
	}

	// Show stats
	stats, err := faceRepo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total faces: %d\n", stats.TotalFaces)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Sessions: %d\n", stats.TotalSessions)
		fmt.Printf("   Per run:\n")
		for run, count := range stats.PerRun {
			fmt.Printf("      - %s: %d faces\n", run, count)
		}
	}
	return nil
}

// unindexed returns the faces whose filename is not in the index yet.
func unindexed(faceRepo repository.FaceRepository, faces []model.SavedFace) ([]model.SavedFace, error) {
	var missing []model.SavedFace
	for _, face := range faces {
		exists, err := faceRepo.Exists(face.Filename)
		if err != nil {
			return nil, err
		}
		if !exists {
			missing = append(missing, face)
		}
	}
	return missing, nil
}
