// Package cfg loads and validates the service configuration from a YAML
// file and environment variables. Environment values override file values.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenPort      int
	ModelDir        string
	DataPath        string
	SamplesCSV      string
	LiveDataURL     string
	LiveDataTimeout time.Duration
	HistoryLimit    int
	ShutdownTimeout time.Duration
}

type ConfigFile struct {
	Server struct {
		ListenPort      int    `yaml:"listenPort"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Model struct {
		Dir string `yaml:"dir"`
	} `yaml:"model"`

	Data struct {
		Path         string `yaml:"path"`
		SamplesCSV   string `yaml:"samplesCSV"`
		HistoryLimit int    `yaml:"historyLimit"`
	} `yaml:"data"`

	LiveData struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"liveData"`
}

// Load reads a local .env if present, then the YAML file named by
// CONFIG_FILE (falling back to env-only config), and validates the result.
func Load() (Settings, error) {
	// Best effort, a missing .env is the normal case.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	shutdown, err := time.ParseDuration(config.Server.ShutdownTimeout)
	if err != nil {
		shutdown = 10 * time.Second
	}
	liveTimeout, err := time.ParseDuration(config.LiveData.Timeout)
	if err != nil {
		liveTimeout = 10 * time.Second
	}

	settings := Settings{
		ListenPort:      getIntOrDefault("LISTEN_PORT", config.Server.ListenPort),
		ModelDir:        getEnvOrDefault("MODEL_DIR", config.Model.Dir),
		DataPath:        getEnvOrDefault("DATA_PATH", config.Data.Path),
		SamplesCSV:      getEnvOrDefault("SAMPLES_CSV", config.Data.SamplesCSV),
		LiveDataURL:     getEnvOrDefault("LIVE_DATA_URL", config.LiveData.BaseURL),
		LiveDataTimeout: getDurationOrDefault("LIVE_DATA_TIMEOUT", liveTimeout),
		HistoryLimit:    getIntOrDefault("HISTORY_LIMIT", config.Data.HistoryLimit),
		ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", shutdown),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenPort:      getIntOrDefault("LISTEN_PORT", 5000),
		ModelDir:        getEnvOrDefault("MODEL_DIR", "model"),
		DataPath:        os.Getenv("DATA_PATH"), // optional
		SamplesCSV:      getEnvOrDefault("SAMPLES_CSV", "data/findata.csv"),
		LiveDataURL:     os.Getenv("LIVE_DATA_URL"), // optional, empty disables the capability
		LiveDataTimeout: getDurationOrDefault("LIVE_DATA_TIMEOUT", 10*time.Second),
		HistoryLimit:    getIntOrDefault("HISTORY_LIMIT", 50),
		ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.ListenPort == 0 {
		s.ListenPort = 5000
	}
	if s.ModelDir == "" {
		s.ModelDir = "model"
	}
	if s.SamplesCSV == "" {
		s.SamplesCSV = "data/findata.csv"
	}
	if s.HistoryLimit == 0 {
		s.HistoryLimit = 50
	}
}

func validateSettings(settings *Settings) error {
	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.ModelDir == "" {
		return fmt.Errorf("model directory cannot be empty")
	}
	if settings.SamplesCSV == "" {
		return fmt.Errorf("samples CSV path cannot be empty")
	}
	if settings.LiveDataTimeout < time.Second || settings.LiveDataTimeout > time.Minute {
		return fmt.Errorf("live data timeout must be between 1s and 1m, got %v", settings.LiveDataTimeout)
	}
	if settings.HistoryLimit <= 0 || settings.HistoryLimit > 10000 {
		return fmt.Errorf("history limit must be between 1 and 10000, got %d", settings.HistoryLimit)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 5m, got %v", settings.ShutdownTimeout)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
