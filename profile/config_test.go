package profile

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadConfigFromReader(t *testing.T) {
	jsonConfig := `{
		"latitude": 56.9496,
		"longitude": 24.1052,
		"utc_offset_hours": 2,
		"surface_azimuth_degrees": 180,
		"api_timeout": "45s",
		"server_port": 8080
	}`

	config, err := LoadConfigFromReader(strings.NewReader(jsonConfig))
	if err != nil {
		t.Fatalf("LoadConfigFromReader failed: %v", err)
	}

	if config.Latitude != 56.9496 {
		t.Errorf("expected latitude 56.9496, got %f", config.Latitude)
	}
	if config.SurfaceAzimuthDegrees != 180 {
		t.Errorf("expected surface azimuth 180, got %f", config.SurfaceAzimuthDegrees)
	}
	if config.APITimeout != 45*time.Second {
		t.Errorf("expected api timeout 45s, got %s", config.APITimeout)
	}
	if config.ServerPort != 8080 {
		t.Errorf("expected server port 8080, got %d", config.ServerPort)
	}

	// Unset fields keep their defaults.
	if config.GCR != 0.35 {
		t.Errorf("expected default gcr 0.35, got %f", config.GCR)
	}
	if config.ModuleName == "" {
		t.Error("expected default module name to survive")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	if _, err := LoadConfigFromReader(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	if _, err := LoadConfigFromReader(strings.NewReader(`{"api_timeout": "soon"}`)); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad latitude", func(c *Config) { c.Latitude = 95 }},
		{"bad longitude", func(c *Config) { c.Longitude = -200 }},
		{"bad utc offset", func(c *Config) { c.UTCOffsetHours = 20 }},
		{"bad tilt", func(c *Config) { c.SurfaceTiltDegrees = 120 }},
		{"zero gcr", func(c *Config) { c.GCR = 0 }},
		{"bad albedo", func(c *Config) { c.Albedo = 1.5 }},
		{"empty module", func(c *Config) { c.ModuleName = "" }},
		{"empty inverter", func(c *Config) { c.InverterName = "" }},
		{"bad source", func(c *Config) { c.DataSource = "ftp" }},
		{"file source without input", func(c *Config) { c.DataSource = "file"; c.InputFile = "" }},
		{"file source without time format", func(c *Config) {
			c.DataSource = "file"
			c.InputFile = "tmy.csv"
			c.FileLayout.TimeFormat = ""
		}},
		{"file source with bad time index", func(c *Config) {
			c.DataSource = "file"
			c.InputFile = "tmy.csv"
			c.FileLayout.TimeIndex = -1
		}},
		{"bad clear sky year", func(c *Config) { c.ClearSkyYear = 1492 }},
		{"zero turbidity", func(c *Config) { c.LinkeTurbidity = 0 }},
		{"zero timeout", func(c *Config) { c.APITimeout = 0 }},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad server port", func(c *Config) { c.ServerPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.Latitude = 45.5
	config.APITimeout = 90 * time.Second
	config.DataSource = "file"
	config.InputFile = "tmy.csv"
	config.FileLocalTime = false
	config.FileLayout.GHIIndex = 2

	path := filepath.Join(t.TempDir(), "config.json")
	if err := config.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Latitude != config.Latitude {
		t.Errorf("latitude mismatch: %f != %f", loaded.Latitude, config.Latitude)
	}
	if loaded.APITimeout != config.APITimeout {
		t.Errorf("api timeout mismatch: %s != %s", loaded.APITimeout, config.APITimeout)
	}
	if loaded.InputFile != config.InputFile {
		t.Errorf("input file mismatch: %s != %s", loaded.InputFile, config.InputFile)
	}
	if loaded.FileLocalTime != config.FileLocalTime {
		t.Errorf("file local time mismatch: %v != %v", loaded.FileLocalTime, config.FileLocalTime)
	}
	if loaded.FileLayout != config.FileLayout {
		t.Errorf("file layout mismatch: %+v != %+v", loaded.FileLayout, config.FileLayout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
