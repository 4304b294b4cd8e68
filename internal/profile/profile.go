package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Embedding configuration
	EmbeddingProvider string // "local" or "openai"
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
	EmbeddingDim      int

	// Notification configuration
	NotifyWebhookURL     string
	NotifyTelegramToken  string
	NotifyTelegramChatID int64

	Mode        string
	Addr        string
	Data        string
	Driver      string
	DSN         string
	Secret      string
	InstanceURL string
	Version     string
	Port        int

	// Matching configuration. Thresholds and weights are tunables, never
	// hardcoded at call sites.
	MatchTextWeight       float64
	MatchImageWeight      float64
	MatchProximityWeight  float64
	MatchCategoryRequired bool
	MatchTimeWindowDays   int
	MatchProximityDecay   float64
	MatchSuggestThreshold float64
	MatchStoreThreshold   float64
	MatchPhashCutoff      int
	ExtractTimeoutSeconds int
	HoldCodeLength        int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingProvider = getEnvOrDefault("BEARTRACKS_AI_EMBEDDING_PROVIDER", "local")
	p.EmbeddingModel = getEnvOrDefault("BEARTRACKS_AI_EMBEDDING_MODEL", "")
	p.EmbeddingAPIKey = getEnvOrDefault("BEARTRACKS_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("BEARTRACKS_AI_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingDim = getEnvOrDefaultInt("BEARTRACKS_EMBEDDING_DIM", 256)

	if p.EmbeddingProvider == "openai" && p.EmbeddingModel == "" {
		p.EmbeddingModel = "text-embedding-3-small"
	}
	if p.EmbeddingProvider == "openai" && p.EmbeddingAPIKey == "" {
		slog.Warn("openai embedding provider selected without API key, falling back to local provider")
		p.EmbeddingProvider = "local"
	}

	p.MatchTextWeight = getEnvOrDefaultFloat("BEARTRACKS_MATCH_TEXT_WEIGHT", 0.5)
	p.MatchImageWeight = getEnvOrDefaultFloat("BEARTRACKS_MATCH_IMAGE_WEIGHT", 0.2)
	p.MatchProximityWeight = getEnvOrDefaultFloat("BEARTRACKS_MATCH_PROXIMITY_WEIGHT", 0.3)
	p.MatchCategoryRequired = getEnvOrDefaultBool("BEARTRACKS_MATCH_CATEGORY_REQUIRED", true)
	p.MatchTimeWindowDays = getEnvOrDefaultInt("BEARTRACKS_MATCH_TIME_WINDOW_DAYS", 30)
	p.MatchProximityDecay = getEnvOrDefaultFloat("BEARTRACKS_MATCH_PROXIMITY_DECAY_DAYS", 3)
	p.MatchSuggestThreshold = getEnvOrDefaultFloat("BEARTRACKS_MATCH_SUGGEST_THRESHOLD", 0.55)
	p.MatchStoreThreshold = getEnvOrDefaultFloat("BEARTRACKS_MATCH_STORE_THRESHOLD", 0.30)
	p.MatchPhashCutoff = getEnvOrDefaultInt("BEARTRACKS_MATCH_PHASH_CUTOFF", 16)
	p.ExtractTimeoutSeconds = getEnvOrDefaultInt("BEARTRACKS_EXTRACT_TIMEOUT_SECONDS", 10)
	p.HoldCodeLength = getEnvOrDefaultInt("BEARTRACKS_HOLD_CODE_LENGTH", 6)

	p.NotifyWebhookURL = getEnvOrDefault("BEARTRACKS_NOTIFY_WEBHOOK_URL", "")
	p.NotifyTelegramToken = getEnvOrDefault("BEARTRACKS_NOTIFY_TELEGRAM_TOKEN", "")
	p.NotifyTelegramChatID = getEnvOrDefaultInt64("BEARTRACKS_NOTIFY_TELEGRAM_CHAT_ID", 0)

	if p.Secret == "" {
		p.Secret = getEnvOrDefault("BEARTRACKS_SECRET", "")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "beartracks")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/beartracks"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("beartracks_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.MatchSuggestThreshold < p.MatchStoreThreshold {
		return errors.Errorf("suggest threshold %.2f below store threshold %.2f",
			p.MatchSuggestThreshold, p.MatchStoreThreshold)
	}
	if p.EmbeddingDim <= 0 {
		return errors.Errorf("embedding dimension must be positive, got %d", p.EmbeddingDim)
	}
	if p.HoldCodeLength < 4 {
		return errors.Errorf("hold code length must be at least 4, got %d", p.HoldCodeLength)
	}

	return nil
}

// UploadsDir returns the directory photos are stored in.
func (p *Profile) UploadsDir() string {
	return filepath.Join(p.Data, "uploads")
}
