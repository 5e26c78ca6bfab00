package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	AdminToken string

	ModelPath           string
	ModelVersion        string
	ModelInputSize      int     // Square input edge of the detector, in pixels
	ConfidenceThreshold float64 // Minimum class score kept by the postprocessor

	DatabasePath   string
	PhotoDirectory string
	LogDirectory   string

	ProcessingWorkers   int // Report analysis workers
	ProcessingQueueSize int
	MaxUploadSize       int64 // Upload limit in bytes, read from MAX_UPLOAD_MB
	VerificationSeed    int64 // 0 seeds the confidence jitter from the clock
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		ModelPath:           getEnv("YOLO_MODEL_PATH", filepath.Join(".", "models", "yolo11n.onnx")),
		ModelVersion:        getEnv("MODEL_VERSION", "YOLO11n"),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "data", "wastewatch.db")),
		PhotoDirectory:      getEnv("PHOTO_DIR", filepath.Join(".", "photos")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ProcessingWorkers:   getEnvAsInt("PROCESSING_WORKERS", 3),
		ProcessingQueueSize: getEnvAsInt("PROCESSING_QUEUE_SIZE", 100),
		MaxUploadSize:       getEnvAsInt64("MAX_UPLOAD_MB", 20) << 20,
		VerificationSeed:    getEnvAsInt64("VERIFICATION_SEED", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
