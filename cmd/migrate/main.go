package main

import (
	"flag"
	"fmt"
	"log"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
	"wastewatch/internal/repository/sqlite"
	"wastewatch/internal/service/ai"
	"wastewatch/internal/service/ai/dnn"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/storage"
)

// migrate brings the database schema up to date and backfills AI analyses for
// reports whose photo was never analyzed (queue overflow or downtime).
func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	photosDir := flag.String("photos", cfg.PhotoDirectory, "Directory containing report photos")
	modelPath := flag.String("model", cfg.ModelPath, "YOLO ONNX model")
	limit := flag.Int("limit", 0, "Maximum number of reports to analyze (0 = all)")
	flag.Parse()

	cfg.DatabasePath = *dbPath
	cfg.PhotoDirectory = *photosDir
	cfg.ModelPath = *modelPath

	fmt.Printf("Migrating database %s\n", cfg.DatabasePath)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logs := logger.NewDiscard()
	reports := sqlite.NewReportRepository(db)
	photos := storage.NewPhotoService(cfg, logs)

	detector := ai.NewDetectorService(cfg, dnn.Load, logs)
	defer detector.Close()
	analyzer := analysis.NewAnalyzer(cfg, ai.NewPreprocessor(cfg.ModelInputSize), detector, logs)

	pending, err := reports.GetUnanalyzed(*limit)
	if err != nil {
		log.Fatalf("Failed to list reports: %v", err)
	}

	analyzed, skipped := 0, 0
	for _, report := range pending {
		photo, err := photos.Load(report.PhotoPath)
		if err != nil {
			log.Printf("⚠️  Skipping report %s: %v", report.ID, err)
			skipped++
			continue
		}

		result, err := analyzer.Analyze(photo)
		if err != nil {
			log.Printf("⚠️  Skipping report %s: %v", report.ID, err)
			skipped++
			continue
		}

		if result.IsMock() {
			log.Printf("⚠️  Model unavailable, leaving report %s for a later run", report.ID)
			skipped++
			continue
		}

		if err := reports.UpdateAnalysis(report.ID, result); err != nil {
			log.Printf("⚠️  Failed to store analysis for %s: %v", report.ID, err)
			skipped++
			continue
		}
		analyzed++
	}

	fmt.Printf("✅ Analyzed %d of %d pending reports\n", analyzed, len(pending))
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d reports (missing photos or errors)\n", skipped)
	}
}
