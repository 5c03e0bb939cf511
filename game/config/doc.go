// Package config provides configuration management for the Rail Logistics Game.
//
// The config package handles:
//   - Loading world configurations from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration selection
//   - Configuration discovery, listing and saving
//
// Configuration Format:
//
// Configurations are JSON files in the configs directory. Each one sets the
// world size and seed, starting balance, station level, train speed and
// capacity, day length, track upkeep and the player-facing messages.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("islands")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic.json when present, otherwise the first valid file
// by name, otherwise a built-in configuration.
package config
