package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(DefaultGameConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestValidateGameConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *GameConfig)
		want   string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"width too small", func(c *GameConfig) { c.Width = MinMapSize - 1 }, "width must be between"},
		{"height too large", func(c *GameConfig) { c.Height = MaxMapSize + 1 }, "height must be between"},
		{"negative balance", func(c *GameConfig) { c.StartingBalance = -1 }, "starting_balance"},
		{"zero speed", func(c *GameConfig) { c.TrainSpeed = 0 }, "train_speed"},
		{"zero nominal speed", func(c *GameConfig) { c.NominalSpeedKPH = 0 }, "nominal_speed_kph"},
		{"zero day length", func(c *GameConfig) { c.DayLength = 0 }, "day_length"},
		{"zero capacity", func(c *GameConfig) { c.TrainCapacity = 0 }, "train_capacity"},
		{"negative upkeep", func(c *GameConfig) { c.TrackUpkeep = -1 }, "cannot be negative"},
		{"missing welcome", func(c *GameConfig) { c.Messages.Welcome = "" }, "messages.welcome"},
		{"delivered without verbs", func(c *GameConfig) { c.Messages.Delivered = "Delivered!" }, "messages.delivered"},
		{"blocked with one verb", func(c *GameConfig) { c.Messages.Blocked = "Blocked at %d" }, "messages.blocked"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultGameConfig()
			test.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("Expected error containing %q, got: %v", test.want, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

const testConfigJSON = `{
	"name": "Test Config",
	"description": "Test description",
	"width": 16,
	"height": 12,
	"seed": 7,
	"starting_balance": 500,
	"level": 2,
	"train_speed": 1.5,
	"nominal_speed_kph": 80,
	"day_length": 5,
	"train_capacity": 8,
	"train_cost": 60,
	"track_upkeep": 0.2,
	"messages": {
		"welcome": "Welcome!",
		"delivered": "Hauled %s for $%.2f"
	}
}`

func TestLoadConfigByName(t *testing.T) {
	tempDir := t.TempDir()

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	os.MkdirAll("configs", 0755)
	if err := os.WriteFile(filepath.Join("configs", "test.json"), []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadConfigByName("test")
	if err != nil {
		t.Fatalf("Failed to load config by name: %v", err)
	}
	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}

	config2, err := LoadConfigByName("test.json")
	if err != nil {
		t.Fatalf("Failed to load config by name with extension: %v", err)
	}
	if config2.Width != 16 || config2.Height != 12 {
		t.Errorf("Expected 16x12, got %dx%d", config2.Width, config2.Height)
	}

	_, err = LoadConfigByName("nonexistent")
	if err == nil {
		t.Fatal("Expected error for non-existent config")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(tempFile, []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Seed != 7 || config.TrainCapacity != 8 || config.NominalSpeedKPH != 80 {
		t.Errorf("Unexpected config values: %+v", config)
	}

	_, err = LoadGameConfig("nonexistent.json")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestConfigMessages_Fallbacks(t *testing.T) {
	config := createTestConfig()
	config.Messages.Built = ""
	config.Messages.Blocked = ""
	e, err := NewEngineWithWorld(config, NewEmptyWorldMap(config.Width, config.Height, 1))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	e.PlaceTrack(2, 2)
	if e.GetState().Message != "Built track at (2,2)" {
		t.Errorf("Expected fallback build message, got %q", e.GetState().Message)
	}
	e.PlaceTrack(2, 2)
	if e.GetState().Message != "Can't build at (2,2)" {
		t.Errorf("Expected fallback blocked message, got %q", e.GetState().Message)
	}
}
