package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClientConfig drives the rollcall terminal client. Values are resolved in
// order: defaults, the YAML profile named by ROLLCALL_CONFIG, then environment.
type ClientConfig struct {
	APIURL      string           `yaml:"api_url"`
	SessionFile string           `yaml:"session_file"`
	LogLevel    string           `yaml:"log_level"`
	Timeout     time.Duration    `yaml:"timeout"`
	Attendance  AttendanceConfig `yaml:"attendance"`
}

type AttendanceConfig struct {
	LocationGranted bool    `yaml:"location_granted"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	PhotoPath       string  `yaml:"photo_path"`
}

func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &ClientConfig{
		APIURL:      "http://localhost:8080/api",
		SessionFile: defaultSessionFile(),
		LogLevel:    "warn",
		Timeout:     30 * time.Second,
		Attendance: AttendanceConfig{
			LocationGranted: true,
		},
	}

	if path := getEnv("ROLLCALL_CONFIG", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
	}

	cfg.APIURL = getEnv("ROLLCALL_API_URL", cfg.APIURL)
	cfg.SessionFile = getEnv("ROLLCALL_SESSION_FILE", cfg.SessionFile)
	cfg.LogLevel = getEnv("ROLLCALL_LOG_LEVEL", cfg.LogLevel)
	cfg.Attendance.PhotoPath = getEnv("ROLLCALL_PHOTO_PATH", cfg.Attendance.PhotoPath)

	if v, ok := os.LookupEnv("ROLLCALL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ROLLCALL_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v, ok := os.LookupEnv("ROLLCALL_LOCATION_GRANTED"); ok {
		cfg.Attendance.LocationGranted = v == "true"
	}
	if err := floatEnv("ROLLCALL_LATITUDE", &cfg.Attendance.Latitude); err != nil {
		return nil, err
	}
	if err := floatEnv("ROLLCALL_LONGITUDE", &cfg.Attendance.Longitude); err != nil {
		return nil, err
	}

	return cfg, nil
}

func floatEnv(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".rollcall-session.json"
	}
	return filepath.Join(dir, "rollcall", "session.json")
}
