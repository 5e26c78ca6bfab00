package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/ai"
	"wastewatch/internal/service/ai/dnn"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/review"
)

func main() {
	imagePath := flag.String("image", "", "Analyze a single image")
	beforePath := flag.String("before", "", "Before photo of a cleanup")
	afterPath := flag.String("after", "", "After photo of a cleanup")
	severity := flag.Int("severity", review.DefaultSeverity, "Report severity (1-5) used to price a verification")
	modelPath := flag.String("model", "", "Override YOLO_MODEL_PATH")
	flag.Parse()

	cfg := config.Load()
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	log.SetFlags(0)
	logs := logger.NewDiscard()

	detector := ai.NewDetectorService(cfg, dnn.Load, logs)
	defer detector.Close()
	analyzer := analysis.NewAnalyzer(cfg, ai.NewPreprocessor(cfg.ModelInputSize), detector, logs)

	var result any
	switch {
	case *imagePath != "":
		result = analyzeImage(analyzer, *imagePath)
	case *beforePath != "" && *afterPath != "":
		result = verifyPair(analyzer, cfg, *beforePath, *afterPath, *severity)
	default:
		flag.Usage()
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if !detector.Ready() {
		fmt.Fprintf(os.Stderr, "⚠️  Model %s unavailable - results come from the mock analysis\n", cfg.ModelPath)
	}
}

func analyzeImage(analyzer *analysis.Analyzer, path string) *analysis.WasteAnalysis {
	result, err := analyzer.Analyze(readImage(path))
	if err != nil {
		log.Fatalf("Failed to analyze %s: %v", path, err)
	}
	return result
}

func verifyPair(analyzer *analysis.Analyzer, cfg *config.Config, beforePath, afterPath string, severity int) dto.VerifyResponse {
	verifier := analysis.NewVerifier(analyzer, analysis.NewRandomSource(cfg.VerificationSeed), logger.NewDiscard())

	result, err := verifier.Verify(readImage(beforePath), readImage(afterPath))
	if err != nil {
		log.Fatalf("Failed to verify cleanup: %v", err)
	}

	severity = review.NormalizeSeverity(severity)
	return dto.VerifyResponse{
		VerificationResult: result,
		Severity:           severity,
		Points:             analysis.CalculateCarbonPoints(severity, result.ObjectsRemoved, result.Confidence),
	}
}

func readImage(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	return data
}
