// Package api provides the HTTP REST API for the rail logistics game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session with its state
//   - DELETE /api/sessions/{id} - Delete a session and its saved data
//
// Building:
//   - POST /api/sessions/{id}/track - Lay rail ({"x": 3, "y": 4})
//   - POST /api/sessions/{id}/station - Build a station
//   - POST /api/sessions/{id}/demolish - Clear a tile and refund half its cost
//
// A rejected build answers 200 with "success": false and a message.
//
// Trains and Routes:
//   - POST /api/sessions/{id}/trains - Buy a train ({"x", "y", "cargo", "route_id"})
//   - PUT /api/sessions/{id}/trains/{vehicleID}/route - Assign a route ({"route_id"})
//   - GET /api/sessions/{id}/routes - List routes
//   - POST /api/sessions/{id}/routes - Create a route ({"name", "color", "stops"})
//   - DELETE /api/sessions/{id}/routes/{routeID} - Delete a route
//
// Simulation:
//   - POST /api/sessions/{id}/tick - Advance the clock ({"dt": 0.5, "steps": 10})
//   - POST /api/sessions/{id}/pause - Pause or resume ({"paused": true})
//   - POST /api/sessions/{id}/reset - Regenerate the world from its config
//
// Queries:
//   - GET /api/sessions/{id}/state - Full game state
//   - GET /api/sessions/{id}/map - ASCII map as text/plain
//   - GET /api/sessions/{id}/tiles/{x}/{y} - Inspect one tile
//   - GET /api/sessions/{id}/path?from=x,y&to=x,y - Plan a track path
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs?id=name - Save a configuration
//
// Live updates are served on /ws?session={id}; see package websocket.
//
// Errors are JSON objects of the form {"error": "..."}. Missing sessions,
// routes, vehicles and configs answer 404, malformed requests 400, and
// purchases the game refuses (no stock, no money) 409.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
