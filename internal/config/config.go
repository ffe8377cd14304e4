package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by every pdf2img command. Command-line
// flags default to these values.
type Config struct {
	Backend    string
	Format     string
	Scale      float64
	BatchSize  int
	BatchDelay time.Duration
	Quality    int
	OutputDir  string
	Listen     string
}

// Load reads .env and pdf2img.env (if present) into the environment and
// builds a Config from it.
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("pdf2img.env")

	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Backend:    strings.ToLower(getEnv("PDF2IMG_BACKEND", "pdfium")),
		Format:     strings.ToLower(getEnv("PDF2IMG_FORMAT", "png")),
		Scale:      getEnvFloat("PDF2IMG_SCALE", 1),
		BatchSize:  getEnvInt("PDF2IMG_BATCH_SIZE", 5),
		BatchDelay: getEnvDuration("PDF2IMG_BATCH_DELAY_MS", 100*time.Millisecond),
		Quality:    getEnvInt("PDF2IMG_QUALITY", 92),
		OutputDir:  getEnv("PDF2IMG_OUTPUT_DIR", "."),
		Listen:     getEnv("PDF2IMG_LISTEN", ":8080"),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvDuration reads a whole number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	ms, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

// SetupLogging builds the process logger from LOG_LEVEL, LOG_OUTPUT and
// LOG_FILE. The returned closer releases the log file, if one was opened.
func SetupLogging() (*slog.Logger, io.Closer) {
	var level slog.Level
	switch strings.ToLower(getEnv("LOG_LEVEL", "warn")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var logWriter io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if getEnv("LOG_OUTPUT", "stderr") == "file" {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdf2img.log")))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating log file path: %v\n", err)
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			} else {
				logWriter = logFile
				closer = logFile
			}
		}
	}

	return slog.New(slog.NewTextHandler(logWriter, handlerOptions)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
