// Package engine provides the core simulation for the Rail Logistics Game.
//
// The engine package implements:
//   - The 8-neighbour track connectivity code and its incremental updates
//   - World generation, building, demolition and station production
//   - A* path planning for track previews
//   - Train movement along laid track, with optional cyclic routes
//   - The delivery revenue model, wallet, price board and track upkeep
//   - Snapshots for persistence
//
// Core Types:
//
// WorldMap owns the tile grid. GameEngine owns a world plus the trains,
// routes, wallet and clock, and implements the Engine interface. GameConfig
// holds the tunables loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.PlaceTrack(10, 12)
//	deliveries := gameEngine.Tick(0.2)
//
// Simulation:
//
// Each Tick advances the clock, walks market prices and charges upkeep once
// per elapsed day, runs station production, and then steps every train. A
// train that enters a station tile is paid for its cargo and removed.
package engine
