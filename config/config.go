package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env              string
	Workers          int
	FFmpegPath       string
	TempDir          string
	JPEGQuality      int
	ProgressInterval time.Duration

	MaxFileCount    int
	MaxDocumentSize int64
	MaxImageSize    int64
	MaxAudioSize    int64
	MaxVideoSize    int64
}

func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		Workers:          getEnvAsInt("CONVERT_WORKERS", 4),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		TempDir:          getEnv("CONVERT_TEMP_DIR", ""),
		JPEGQuality:      getEnvAsInt("JPEG_QUALITY", 85),
		ProgressInterval: getEnvAsDuration("PROGRESS_INTERVAL", 500*time.Millisecond),
		MaxFileCount:     getEnvAsInt("MAX_FILE_COUNT", 20),
		MaxDocumentSize:  getEnvAsInt64("MAX_DOCUMENT_SIZE", 100*1024*1024),
		MaxImageSize:     getEnvAsInt64("MAX_IMAGE_SIZE", 50*1024*1024),
		MaxAudioSize:     getEnvAsInt64("MAX_AUDIO_SIZE", 200*1024*1024),
		MaxVideoSize:     getEnvAsInt64("MAX_VIDEO_SIZE", 500*1024*1024),
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
