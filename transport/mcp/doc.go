// Package mcp exposes the rail logistics game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API and the JSON answer is rendered as plain text an agent
// can read, including an ASCII map of the world.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - world_state: balance, clock, stations, trains and the ASCII map
//   - describe_tile: terrain, track, station stock and trains on one tile
//   - place_track, place_station, demolish: single-tile building
//   - plan_path: cheapest buildable path between two tiles
//   - lay_track_path: plan a path and lay rail on its unbuilt tiles
//   - buy_train, create_route, list_routes, assign_route: trains and routes
//   - tick, pause, reset_game: simulation control
//   - list_configs, game_instructions: reference material
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
