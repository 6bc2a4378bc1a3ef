package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "MODEL_DIR", "LABELS_PATH", "DETECT_ENGINE", "INPUT_SIZE",
	"SCORE_THRESHOLD", "NMS_THRESHOLD", "DEFAULT_MODEL", "DEFAULT_CONF",
	"ORT_LIB_PATH", "ORT_PROVIDER", "LOG_LEVEL", "LOG_FORMAT",
	"NATS_URL", "NATS_SUBJECT", "CORS_ORIGINS",
}

// clearEnv unsets every setting for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load(missingEnvFile(t))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./models", cfg.ModelDir)
	assert.Equal(t, "", cfg.LabelsPath)
	assert.Equal(t, "opencv", cfg.Engine)
	assert.Equal(t, 640, cfg.InputSize)
	assert.Equal(t, 0.5, cfg.ScoreThreshold)
	assert.Equal(t, 0.45, cfg.NMSThreshold)
	assert.Equal(t, "m", cfg.DefaultModel)
	assert.Equal(t, 0.5, cfg.DefaultConf)
	assert.Equal(t, "cpu", cfg.ORTProvider)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
	assert.Equal(t, "detect", cfg.NATSSubject)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DETECT_ENGINE", "onnxruntime")
	t.Setenv("INPUT_SIZE", "320")
	t.Setenv("DEFAULT_CONF", "0.25")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCORE_THRESHOLD", "not-a-number")

	cfg := Load(missingEnvFile(t))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "onnxruntime", cfg.Engine)
	assert.Equal(t, 320, cfg.InputSize)
	assert.Equal(t, 0.25, cfg.DefaultConf)
	assert.Equal(t, 0.5, cfg.ScoreThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MODEL_DIR=/opt/models\nDEFAULT_MODEL=s\nPORT=7000\n"), 0o644))
	t.Setenv("PORT", "7100")

	cfg := Load(path)
	assert.Equal(t, "/opt/models", cfg.ModelDir)
	assert.Equal(t, "s", cfg.DefaultModel)
	assert.Equal(t, 7100, cfg.Port, "environment wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"input size zero", func(c *Config) { c.InputSize = 0 }},
		{"input size not multiple of 32", func(c *Config) { c.InputSize = 650 }},
		{"score threshold", func(c *Config) { c.ScoreThreshold = 1.5 }},
		{"nms threshold", func(c *Config) { c.NMSThreshold = -0.1 }},
		{"default conf", func(c *Config) { c.DefaultConf = 2 }},
		{"default model", func(c *Config) { c.DefaultModel = "xxl" }},
		{"engine", func(c *Config) { c.Engine = "tensorrt" }},
		{"provider", func(c *Config) { c.ORTProvider = "tpu" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load(missingEnvFile(t))
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRegisterFlags(t *testing.T) {
	clearEnv(t)
	cfg := Load(missingEnvFile(t))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-engine", "onnxruntime", "-model-dir", "/m", "-nms-threshold", "0.6"}))

	assert.Equal(t, "onnxruntime", cfg.Engine)
	assert.Equal(t, "/m", cfg.ModelDir)
	assert.Equal(t, 0.6, cfg.NMSThreshold)
	assert.Equal(t, 640, cfg.InputSize)
}
