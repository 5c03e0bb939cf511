package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigMessages holds the player-facing message templates of a config
type ConfigMessages struct {
	Welcome   string `json:"welcome"`
	Built     string `json:"built"`
	Blocked   string `json:"blocked"`
	Demolish  string `json:"demolish"`
	TrainOut  string `json:"train_out"`
	Delivered string `json:"delivered"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Seed            int64   `json:"seed,omitempty"`
	StartingBalance float64 `json:"starting_balance"`
	Level           int     `json:"level"`

	// TrainSpeed is in tiles per second of simulation time
	TrainSpeed float64 `json:"train_speed"`
	// NominalSpeedKPH feeds the revenue model's ideal transit time
	NominalSpeedKPH float64 `json:"nominal_speed_kph"`
	// DayLength is the number of simulated seconds in one game day
	DayLength     float64 `json:"day_length"`
	TrainCapacity int     `json:"train_capacity"`
	TrainCost     float64 `json:"train_cost"`
	TrackUpkeep   float64 `json:"track_upkeep"`
	KeepHeading   bool    `json:"keep_heading,omitempty"`

	Messages ConfigMessages `json:"messages"`
}

// DefaultGameConfig returns the built-in configuration used when none is supplied
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Balanced 48x48 world with a central city",
		Width:           48,
		Height:          48,
		StartingBalance: 2000,
		Level:           1,
		TrainSpeed:      2,
		NominalSpeedKPH: 100,
		DayLength:       10,
		TrainCapacity:   10,
		TrainCost:       100,
		TrackUpkeep:     0.1,
		Messages: ConfigMessages{
			Welcome:   "Welcome! Connect the industries to the city and start hauling.",
			Built:     "Built %s at (%d,%d)",
			Blocked:   "Can't build at (%d,%d)",
			Demolish:  "Demolished (%d,%d)",
			TrainOut:  "Train %s departed carrying %s",
			Delivered: "Delivered %s for $%.0f",
		},
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Width < MinMapSize || config.Width > MaxMapSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinMapSize, MaxMapSize, config.Width)
	}
	if config.Height < MinMapSize || config.Height > MaxMapSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinMapSize, MaxMapSize, config.Height)
	}

	if config.StartingBalance < 0 {
		return fmt.Errorf("config validation: starting_balance cannot be negative, got %.2f", config.StartingBalance)
	}
	if config.Level < 0 {
		return fmt.Errorf("config validation: level cannot be negative, got %d", config.Level)
	}
	if config.TrainSpeed <= 0 {
		return fmt.Errorf("config validation: train_speed must be positive, got %.2f", config.TrainSpeed)
	}
	if config.NominalSpeedKPH <= 0 {
		return fmt.Errorf("config validation: nominal_speed_kph must be positive, got %.2f", config.NominalSpeedKPH)
	}
	if config.DayLength <= 0 {
		return fmt.Errorf("config validation: day_length must be positive, got %.2f", config.DayLength)
	}
	if config.TrainCapacity < 1 {
		return fmt.Errorf("config validation: train_capacity must be at least 1, got %d", config.TrainCapacity)
	}
	if config.TrainCost < 0 || config.TrackUpkeep < 0 {
		return fmt.Errorf("config validation: train_cost and track_upkeep cannot be negative")
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if !strings.Contains(config.Messages.Delivered, "%s") || !strings.Contains(config.Messages.Delivered, "%") {
		return fmt.Errorf("config validation: messages.delivered must contain %%s for cargo and a number verb for revenue")
	}
	if config.Messages.Blocked != "" && strings.Count(config.Messages.Blocked, "%d") != 2 {
		return fmt.Errorf("config validation: messages.blocked must contain two %%d verbs for the coordinates")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// messageOr formats tmpl, or fallback when the config leaves tmpl empty
func messageOr(tmpl, fallback string, args ...any) string {
	if tmpl == "" {
		tmpl = fallback
	}
	return fmt.Sprintf(tmpl, args...)
}

// LoadConfigByName loads configs/<name>.json relative to the working directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configPath := filepath.Join("configs", configName)
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		configPath = filepath.Join(configDir, configName)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %v", configName, err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %v", configName, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %v", configName, err)
	}

	return &config, nil
}
