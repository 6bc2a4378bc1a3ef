// Package config - Service settings from the environment, .env files and flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models"
)

// Config holds the service settings read from the environment and flags.
type Config struct {
	Port           int
	ModelDir       string
	LabelsPath     string // "" selects the embedded COCO list
	Engine         string
	InputSize      int
	ScoreThreshold float64
	NMSThreshold   float64
	DefaultModel   string
	DefaultConf    float64
	ORTLibPath     string
	ORTProvider    string
	LogLevel       string
	LogFormat      string
	NATSURL        string
	NATSSubject    string
	CORSOrigins    []string
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Missing .env files are ignored and variables already set in
// the environment win over file values.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		ModelDir:       getEnv("MODEL_DIR", "./models"),
		LabelsPath:     getEnv("LABELS_PATH", ""),
		Engine:         getEnv("DETECT_ENGINE", string(inference.EngineOpenCV)),
		InputSize:      getEnvAsInt("INPUT_SIZE", inference.DefaultInputSize),
		ScoreThreshold: getEnvAsFloat("SCORE_THRESHOLD", 0.5),
		NMSThreshold:   getEnvAsFloat("NMS_THRESHOLD", 0.45),
		DefaultModel:   getEnv("DEFAULT_MODEL", string(models.SizeMedium)),
		DefaultConf:    getEnvAsFloat("DEFAULT_CONF", 0.5),
		ORTLibPath:     getEnv("ORT_LIB_PATH", providers.GetSharedLibPath()),
		ORTProvider:    getEnv("ORT_PROVIDER", string(providers.CPUExecutionProvider)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		NATSURL:        getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		NATSSubject:    getEnv("NATS_SUBJECT", "detect"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
	}
}

// RegisterFlags binds the settings the CLI exposes to fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ModelDir, "model-dir", c.ModelDir, "directory holding detect_<size>.onnx artifacts")
	fs.StringVar(&c.LabelsPath, "labels", c.LabelsPath, "class label file (empty for the embedded COCO list)")
	fs.StringVar(&c.Engine, "engine", c.Engine, "inference engine: opencv or onnxruntime")
	fs.IntVar(&c.InputSize, "input-size", c.InputSize, "square network input dimension")
	fs.Float64Var(&c.ScoreThreshold, "score-threshold", c.ScoreThreshold, "class score threshold")
	fs.Float64Var(&c.NMSThreshold, "nms-threshold", c.NMSThreshold, "NMS IoU threshold")
	fs.StringVar(&c.ORTLibPath, "ort-lib", c.ORTLibPath, "onnxruntime shared library path")
	fs.StringVar(&c.ORTProvider, "ort-provider", c.ORTProvider, "onnxruntime execution provider")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
}

// Validate checks the settings.
//
// Returns:
//   - error: The first invalid setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid PORT %d", c.Port)
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return errors.Errorf("INPUT_SIZE must be a positive multiple of 32, got %d", c.InputSize)
	}
	for name, v := range map[string]float64{
		"SCORE_THRESHOLD": c.ScoreThreshold,
		"NMS_THRESHOLD":   c.NMSThreshold,
		"DEFAULT_CONF":    c.DefaultConf,
	} {
		if v < 0 || v > 1 {
			return errors.Errorf("%s must be in [0, 1], got %v", name, v)
		}
	}
	if _, err := models.ParseSizeTag(c.DefaultModel); err != nil {
		return errors.Wrap(err, "DEFAULT_MODEL")
	}
	if _, err := inference.ParseEngineType(c.Engine); err != nil {
		return errors.Wrap(err, "DETECT_ENGINE")
	}
	if _, err := providers.Parse(c.ORTProvider); err != nil {
		return errors.Wrap(err, "ORT_PROVIDER")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
