package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

//go:embed periods.yaml
var periodsYAML []byte

type Config struct {
	Data        DataConfig
	Camera      CameraConfig
	Extractor   ExtractorConfig
	Recognition RecognitionConfig
	Database    DatabaseConfig
	MQTT        MQTTConfig
	Periods     PeriodsConfig
}

type DataConfig struct {
	Dir string // base directory for datasets and attendance records
}

// DatasetsDir returns the directory holding encoding datasets.
func (c *DataConfig) DatasetsDir() string {
	return c.Dir + "/datasets"
}

// RecordsDir returns the directory holding daily attendance records.
func (c *DataConfig) RecordsDir() string {
	return c.Dir + "/attendance_records"
}

type CameraConfig struct {
	URL     string        // snapshot URL of the IP camera (e.g., http://cam.local/shot.jpg)
	Timeout time.Duration // per-capture HTTP timeout
}

type ExtractorConfig struct {
	URL string // face embedding service URL (defaults to http://localhost:8000)
	Dim int    // embedding dimension (defaults to 128)
}

type RecognitionConfig struct {
	Threshold     float64       // max distance for a match, 0.0 to 1.0
	DedupWindow   time.Duration // minimum gap between repeat sightings
	FrameInterval time.Duration // pause between captures
	Downscale     float64       // frame scale factor before detection
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (empty = file storage)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MQTTConfig struct {
	Broker   string // broker URL (empty = notifier disabled)
	Topic    string // topic for sighting events
	ClientID string
}

type PeriodsConfig struct {
	Periods map[string]int `yaml:"periods"` // period name -> days back
}

// Days returns the number of days covered by a named period (week, month,
// semester). ok is false for unknown period names.
func (p *PeriodsConfig) Days(period string) (int, bool) {
	d, ok := p.Periods[period]
	return d, ok
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration
// ("30s", "1m"). Returns the default value if unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var periods PeriodsConfig
	if err := yaml.Unmarshal(periodsYAML, &periods); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded periods.yaml: " + err.Error())
	}

	return &Config{
		Data: DataConfig{
			Dir: envString("DATA_DIR", "data"),
		},
		Camera: CameraConfig{
			URL:     os.Getenv("CAMERA_URL"),
			Timeout: envDuration("CAMERA_TIMEOUT", 5*time.Second),
		},
		Extractor: ExtractorConfig{
			URL: os.Getenv("EXTRACTOR_URL"),
			Dim: envInt("EXTRACTOR_DIM", constants.EmbeddingDim),
		},
		Recognition: RecognitionConfig{
			Threshold:     envFloat("RECOGNITION_THRESHOLD", constants.DefaultMatchThreshold),
			DedupWindow:   envDuration("DEDUP_WINDOW", constants.DefaultDedupWindow),
			FrameInterval: envDuration("FRAME_INTERVAL", constants.DefaultFrameInterval),
			Downscale:     envFloat("RECOGNITION_DOWNSCALE", constants.FrameDownscale),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			Topic:    envString("MQTT_TOPIC", "attendance/sightings"),
			ClientID: envString("MQTT_CLIENT_ID", "face-attendance"),
		},
		Periods: periods,
	}
}
