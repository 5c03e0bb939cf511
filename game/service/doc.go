// Package service provides the business logic layer for the Rail Logistics Game.
//
// The service package implements:
//   - Multi-session game management
//   - Building, train and route operations on a session's engine
//   - Manual and driver-invoked simulation ticks
//   - Configuration management and loading
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. A single service lock serialises every mutation, so the
// engine itself never needs to be safe for concurrent use.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.PlaceTrack(ctx, info.ID, 10, 12)
//	tick, err := gameService.Tick(ctx, info.ID, 0.2)
package service
