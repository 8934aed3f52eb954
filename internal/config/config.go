package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StreamConfig holds capture parameters requested at device open.
type StreamConfig struct {
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
}

// CameraConfig remembers the last selected device.
type CameraConfig struct {
	DeviceName   string       `json:"device_name"`
	DeviceID     string       `json:"device_id"`
	StreamConfig StreamConfig `json:"stream_config"`
}

// PipelineConfig holds the pipeline settings applied at startup. The
// live snapshot lives in the capture loop; this is only the persisted
// starting point.
type PipelineConfig struct {
	Effect   string `json:"effect"`
	Mirror   bool   `json:"mirror"`
	Flip     bool   `json:"flip"`
	Rotation int    `json:"rotation"`
}

type AppConfig struct {
	ServerPort     string         `json:"server_port"`
	ServerIP       string         `json:"server_ip"`
	CameraConfig   CameraConfig   `json:"camera"`
	PipelineConfig PipelineConfig `json:"pipeline"`
}

// Default config
func defaultConfig() *AppConfig {
	return &AppConfig{
		CameraConfig: CameraConfig{
			DeviceName: "No Camera Configured",
			DeviceID:   "",
			StreamConfig: StreamConfig{
				Resolution: "640x480",
				FPS:        30,
			}},
		PipelineConfig: PipelineConfig{
			Effect:   "none",
			Rotation: 0,
		},
		ServerIP:   "localhost",
		ServerPort: "8080",
	}
}

// IsCameraConfigured reports whether a device selection was persisted.
func (c *AppConfig) IsCameraConfigured() bool {
	return c.CameraConfig.DeviceID != ""
}

// Size parses the persisted resolution string; malformed values fall
// back to the default.
func (s StreamConfig) Size() (width, height int) {
	if _, err := fmt.Sscanf(s.Resolution, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
		return 640, 480
	}
	return width, height
}

// getConfigPath ensures the config directory and file follow the Linux XDG convention
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "fluxcam")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the config file from ~/.config/fluxcam and returns a config object
func Load() (*AppConfig, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("error getting config path: %w", err)
	}

	// Missing file means first run; hand back the defaults.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal over the defaults so missing fields keep sane values.
	config := defaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file: %w", err)
	}

	return config, nil
}

// Save writes the config to the ~/.config/fluxcam directory
func Save(config *AppConfig) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("error getting config path: %w", err)
	}

	configBytes, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if err := os.WriteFile(configPath, configBytes, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
