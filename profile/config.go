// Package profile runs the production profiler: it drives the calendar
// correction, the PV model chain and the output side (CSV, JSON, plots,
// database and web server) for all twelve months of a typical year.
package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pvtools/pvprofiler/tmy"
)

// Config represents the configuration for a profiler run.
type Config struct {
	// Site settings
	Latitude       float64 `json:"latitude"`         // decimal degrees, north positive
	Longitude      float64 `json:"longitude"`        // decimal degrees, east positive
	AltitudeMeters float64 `json:"altitude_meters"`  // site elevation above sea level
	UTCOffsetHours int     `json:"utc_offset_hours"` // local standard time offset applied to the TMY

	// Array geometry
	SurfaceTiltDegrees    float64 `json:"surface_tilt_degrees"`    // 90 for vertical rows
	SurfaceAzimuthDegrees float64 `json:"surface_azimuth_degrees"` // 90 = east-facing front
	MaxAngleDegrees       float64 `json:"max_angle_degrees"`       // tracker rotation limit, 0 = fixed
	GCR                   float64 `json:"gcr"`                     // ground coverage ratio
	RowHeightMeters       float64 `json:"row_height_meters"`
	RowWidthMeters        float64 `json:"row_width_meters"`
	Albedo                float64 `json:"albedo"`

	// Equipment
	ModuleName   string `json:"module_name"`
	InverterName string `json:"inverter_name"`

	// Data source settings
	DataSource    string           `json:"data_source"`     // "pvgis" or "file"
	InputFile     string           `json:"input_file"`      // path for the "file" source
	FileLayout    tmy.ColumnLayout `json:"file_layout"`     // column layout for CSV input files
	FileLocalTime bool             `json:"file_local_time"` // file timestamps are already local wall time

	// Clear-sky mode
	ClearSkyYear   int     `json:"clear_sky_year"`  // calendar year for synthetic clear-sky runs
	LinkeTurbidity float64 `json:"linke_turbidity"` // atmospheric turbidity for the clear-sky model

	// API settings
	APITimeout time.Duration `json:"api_timeout"` // Timeout for PVGIS calls
	UserAgent  string        `json:"user_agent"`  // User agent for the PVGIS client

	// Output settings
	OutputDir string `json:"output_dir"` // root directory for run folders

	// Logging settings
	LogLevel string `json:"log_level"` // Log level: debug, info, warn, error

	// Web server
	ServerPort int `json:"server_port"` // Port for the status server (0 = disabled)

	// Persistence
	PostgresConnString string `json:"postgres_conn_string"` // empty = disabled

	// Live inverter comparison
	InverterModbusAddress string `json:"inverter_modbus_address"` // format IP:PORT, empty = disabled
}

// DefaultConfig returns a configuration with default values: a vertical
// east/west bifacial row near Turku, Finland.
func DefaultConfig() *Config {
	return &Config{
		Latitude:              60.455,
		Longitude:             22.286,
		AltitudeMeters:        10.0,
		UTCOffsetHours:        2, // EET
		SurfaceTiltDegrees:    90.0,
		SurfaceAzimuthDegrees: 90.0,
		MaxAngleDegrees:       0.0,
		GCR:                   0.35,
		RowHeightMeters:       1.0,
		RowWidthMeters:        4.0,
		Albedo:                0.25,
		ModuleName:            "Prism Solar Technologies Bi60-375BSTC",
		InverterName:          "ABB MICRO-0.25-I-OUTD-US-208",
		DataSource:            "pvgis",
		FileLayout:            tmy.DefaultLayout(),
		FileLocalTime:         true,
		ClearSkyYear:          2013,
		LinkeTurbidity:        3.0,
		APITimeout:            30 * time.Second,
		UserAgent:             "pvprofiler/1.0 (username@example.com)",
		OutputDir:             "output",
		LogLevel:              "info",
		ServerPort:            0,
		PostgresConnString:    "",
		InverterModbusAddress: "",
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves the configuration to an io.Writer
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", c.Longitude)
	}

	if c.UTCOffsetHours < -12 || c.UTCOffsetHours > 14 {
		return fmt.Errorf("utc_offset_hours must be between -12 and 14, got: %d", c.UTCOffsetHours)
	}

	if c.SurfaceTiltDegrees < 0 || c.SurfaceTiltDegrees > 90 {
		return fmt.Errorf("surface_tilt_degrees must be between 0 and 90, got: %f", c.SurfaceTiltDegrees)
	}

	if c.GCR <= 0 || c.GCR > 1 {
		return fmt.Errorf("gcr must be between 0 and 1, got: %f", c.GCR)
	}

	if c.Albedo < 0 || c.Albedo > 1 {
		return fmt.Errorf("albedo must be between 0 and 1, got: %f", c.Albedo)
	}

	if c.ModuleName == "" {
		return fmt.Errorf("module_name cannot be empty")
	}

	if c.InverterName == "" {
		return fmt.Errorf("inverter_name cannot be empty")
	}

	if c.DataSource != "pvgis" && c.DataSource != "file" {
		return fmt.Errorf("data_source must be \"pvgis\" or \"file\", got: %s", c.DataSource)
	}

	if c.DataSource == "file" {
		if c.InputFile == "" {
			return fmt.Errorf("input_file cannot be empty when data_source is \"file\"")
		}
		if c.FileLayout.TimeFormat == "" {
			return fmt.Errorf("file_layout.time_format cannot be empty when data_source is \"file\"")
		}
		if c.FileLayout.TimeIndex < 0 {
			return fmt.Errorf("file_layout.time_index must not be negative, got: %d", c.FileLayout.TimeIndex)
		}
	}

	if c.ClearSkyYear < 1900 || c.ClearSkyYear > 2200 {
		return fmt.Errorf("clear_sky_year out of range, got: %d", c.ClearSkyYear)
	}

	if c.LinkeTurbidity <= 0 {
		return fmt.Errorf("linke_turbidity must be greater than 0, got: %f", c.LinkeTurbidity)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be greater than 0, got: %s", c.APITimeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 0 and 65535, got: %d", c.ServerPort)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling to handle durations
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		APITimeout string `json:"api_timeout"`
	}{
		Alias:      (*Alias)(c),
		APITimeout: c.APITimeout.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		APITimeout string `json:"api_timeout"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.APITimeout != "" {
		timeout, err := time.ParseDuration(aux.APITimeout)
		if err != nil {
			return fmt.Errorf("invalid api_timeout: %w", err)
		}
		c.APITimeout = timeout
	}

	return nil
}
