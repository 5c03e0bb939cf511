package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/rail-logistics-game/game/engine"
	"github.com/wricardo/rail-logistics-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rail Logistics Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rail Logistics Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Lay rail between industries and the city, buy trains and route them so cargo
gets delivered fast. Every delivery pays; slow deliveries pay less.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage game sessions
- world_state: balance, clock, stations and an ASCII map
- place_track / place_station / demolish: build on a tile
- plan_path / lay_track_path: find a buildable route and optionally build it
- buy_train / create_route / list_routes / assign_route: run trains
- tick / pause / reset_game: drive the simulation
- describe_tile: inspect one tile (stock, connections, trains)
- list_configs / game_instructions: reference

Coordinates are 0-based, x is the column and y is the row (north is y-1).`),
	)

	c.registerTools()
}

func sessionProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperties() map[string]any {
	return map[string]any{
		"session_id": sessionProperty(),
		"x": map[string]any{
			"type":        "integer",
			"description": "X coordinate (column), 0-based",
		},
		"y": map[string]any{
			"type":        "integer",
			"description": "Y coordinate (row), 0-based",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "Config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Queries
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "world_state",
		Description: "Get balance, clock, trains, stations and an ASCII map of the world",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleWorldState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Get detailed information about one tile: terrain, track, station stock and trains on it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordinateProperties(),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "plan_path",
		Description: "Find the cheapest buildable path between two tiles without building it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: pathProperties(),
			Required:   []string{"session_id", "from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handlePlanPath)

	// Building
	for _, tool := range []struct {
		name, action, description string
	}{
		{"place_track", "track", "Lay one rail tile. Costs money; forest is cleared for an extra fee."},
		{"place_station", "station", "Build a station. Its industry kind is chosen by the terrain and level."},
		{"demolish", "demolish", "Clear the track or station on a tile and refund half its cost"},
	} {
		c.mcpServer.AddTool(mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: coordinateProperties(),
				Required:   []string{"session_id", "x", "y"},
			},
		}, c.handleBuild(tool.action))
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "lay_track_path",
		Description: "Plan a path between two tiles and lay rail on every unbuilt tile along it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: pathProperties(),
			Required:   []string{"session_id", "from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handleLayTrackPath)

	// Trains and routes
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "buy_train",
		Description: "Buy a train at a station, loaded with cargo from the station's stock",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"x":          map[string]any{"type": "integer", "description": "Station X coordinate"},
				"y":          map[string]any{"type": "integer", "description": "Station Y coordinate"},
				"cargo": map[string]any{
					"type":        "string",
					"description": "Cargo to load, e.g. coal, iron, wood, passengers",
				},
				"route_id": map[string]any{
					"type":        "string",
					"description": "Route to follow (optional)",
				},
			},
			Required: []string{"session_id", "x", "y", "cargo"},
		},
	}, c.handleBuyTrain)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_route",
		Description: "Create a cyclic route through a list of stops",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"name":       map[string]any{"type": "string", "description": "Route name"},
				"color":      map[string]any{"type": "string", "description": "Display color (optional)"},
				"stops": map[string]any{
					"type":        "array",
					"description": "Stops in visiting order",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"x": map[string]any{"type": "integer"},
							"y": map[string]any{"type": "integer"},
						},
					},
				},
			},
			Required: []string{"session_id", "stops"},
		},
	}, c.handleCreateRoute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_routes",
		Description: "List the session's routes and the trains following them",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleListRoutes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "assign_route",
		Description: "Put a train on a route, or take it off with an empty route_id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"vehicle_id": map[string]any{"type": "string", "description": "Train ID"},
				"route_id":   map[string]any{"type": "string", "description": "Route ID"},
			},
			Required: []string{"session_id", "vehicle_id"},
		},
	}, c.handleAssignRoute)

	// Simulation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance the simulation by dt seconds, repeated steps times",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"dt":         map[string]any{"type": "number", "description": "Seconds per step (default 0.5)"},
				"steps":      map[string]any{"type": "integer", "description": "Number of steps (default 1, max 1000)"},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause",
		Description: "Pause or resume the background simulation of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionProperty(),
				"paused":     map[string]any{"type": "boolean", "description": "true to pause"},
			},
			Required: []string{"session_id", "paused"},
		},
	}, c.handlePause)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Regenerate the world from the session's config",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Reference
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules, the map legend and strategy tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleGameInstructions)
}

func pathProperties() map[string]any {
	coord := func(desc string) map[string]any {
		return map[string]any{"type": "integer", "description": desc}
	}
	return map[string]any{
		"session_id": sessionProperty(),
		"from_x":     coord("Start column"),
		"from_y":     coord("Start row"),
		"to_x":       coord("End column"),
		"to_y":       coord("End row"),
	}
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Argument helpers. JSON numbers arrive as float64.

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func coordinates(args map[string]any, xKey, yKey string) (engine.Position, error) {
	x, okX := intArg(args, xKey)
	y, okY := intArg(args, yKey)
	if !okX || !okY {
		return engine.Position{}, fmt.Errorf("%s and %s must be integers", xKey, yKey)
	}
	return engine.Position{X: x, Y: y}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body any, result any) error {
	return c.apiCallContext(context.Background(), method, path, body, result)
}

func (c *Client) apiCallContext(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCallContext(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCallContext(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		balance := 0.0
		if s.GameState != nil && s.GameState.Wallet != nil {
			balance = s.GameState.Wallet.Balance
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Balance: $%.0f, Created: %s)\n",
			s.ID, s.ConfigName, balance, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCallContext(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleWorldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var state engine.GameState
	if err := c.apiCallContext(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	pos, err := coordinates(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.TileInfo
	path := sessionPath(stringArg(args, "session_id"), fmt.Sprintf("/tiles/%d/%d", pos.X, pos.Y))
	if err := c.apiCallContext(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileInfo(&info)), nil
}

func (c *Client) planPath(ctx context.Context, args map[string]any) (*service.PathResult, error) {
	from, err := coordinates(args, "from_x", "from_y")
	if err != nil {
		return nil, err
	}
	to, err := coordinates(args, "to_x", "to_y")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("from", fmt.Sprintf("%d,%d", from.X, from.Y))
	query.Set("to", fmt.Sprintf("%d,%d", to.X, to.Y))

	var result service.PathResult
	path := sessionPath(stringArg(args, "session_id"), "/path?"+query.Encode())
	if err := c.apiCallContext(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) handlePlanPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := c.planPath(ctx, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPathResult(result)), nil
}

func (c *Client) handleBuild(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		pos, err := coordinates(args, "x", "y")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var result service.BuildResult
		path := sessionPath(stringArg(args, "session_id"), "/"+action)
		if err := c.apiCallContext(ctx, "POST", path, pos, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatBuildResult(&result)), nil
	}
}

// handleLayTrackPath plans a path and lays rail on each tile that has nothing built yet
func (c *Client) handleLayTrackPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	plan, err := c.planPath(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !plan.Found {
		return mcp.NewToolResultText(formatPathResult(plan)), nil
	}

	var b strings.Builder
	laid, skipped := 0, 0
	var spent, balance float64
	for _, p := range plan.Path {
		var info service.TileInfo
		if err := c.apiCallContext(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", p.X, p.Y)), nil, &info); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if info.Tile.Track.IsTrack() {
			skipped++
			continue
		}

		var result service.BuildResult
		if err := c.apiCallContext(ctx, "POST", sessionPath(sessionID, "/track"), p, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		balance = result.Balance
		if !result.Success {
			fmt.Fprintf(&b, "✗ Stopped at (%d,%d): %s\n", p.X, p.Y, result.Message)
			break
		}
		laid++
		spent += result.Cost
	}

	fmt.Fprintf(&b, "Laid %d rail tiles for $%.0f (%d already built). Balance: $%.0f\n", laid, spent, skipped, balance)
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleBuyTrain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	pos, err := coordinates(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.BuyTrainRequest{
		X:       pos.X,
		Y:       pos.Y,
		Cargo:   stringArg(args, "cargo"),
		RouteID: stringArg(args, "route_id"),
	}

	var result service.TrainResult
	if err := c.apiCallContext(ctx, "POST", sessionPath(stringArg(args, "session_id"), "/trains"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	v := result.Vehicle
	text := fmt.Sprintf("✓ Bought train %s at (%d,%d) carrying %d %s\nBalance: $%.0f\n",
		v.ID, v.X, v.Y, v.Quantity, v.Cargo, result.Balance)
	if v.RouteID != "" {
		text += fmt.Sprintf("Following route %s\n", v.RouteID)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleCreateRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := service.RouteRequest{
		Name:  stringArg(args, "name"),
		Color: stringArg(args, "color"),
	}
	stopsRaw, _ := args["stops"].([]any)
	for i, raw := range stopsRaw {
		stop, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("stop %d must be an object with x and y", i)), nil
		}
		pos, err := coordinates(stop, "x", "y")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stop %d: %v", i, err)), nil
		}
		body.Stops = append(body.Stops, pos)
	}

	var route engine.Route
	if err := c.apiCallContext(ctx, "POST", sessionPath(stringArg(args, "session_id"), "/routes"), body, &route); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("✓ Created route\n" + formatRoute(&route)), nil
}

func (c *Client) handleListRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count  int             `json:"count"`
		Routes []*engine.Route `json:"routes"`
	}
	if err := c.apiCallContext(ctx, "GET", sessionPath(stringArg(request.GetArguments(), "session_id"), "/routes"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Routes (%d):\n", response.Count)
	for _, r := range response.Routes {
		b.WriteString(formatRoute(r))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleAssignRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	vehicleID := stringArg(args, "vehicle_id")
	routeID := stringArg(args, "route_id")

	path := sessionPath(stringArg(args, "session_id"), "/trains/"+url.PathEscape(vehicleID)+"/route")
	if err := c.apiCallContext(ctx, "PUT", path, map[string]string{"route_id": routeID}, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if routeID == "" {
		return mcp.NewToolResultText(fmt.Sprintf("✓ Train %s no longer follows a route", vehicleID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("✓ Train %s now follows route %s", vehicleID, routeID)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	body := map[string]any{"dt": floatArg(args, "dt", 0.5)}
	if steps, ok := intArg(args, "steps"); ok {
		body["steps"] = steps
	}

	var result service.TickResult
	if err := c.apiCallContext(ctx, "POST", sessionPath(stringArg(args, "session_id"), "/tick"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	paused, _ := args["paused"].(bool)

	var response struct {
		Paused bool         `json:"paused"`
		Clock  engine.Clock `json:"clock"`
	}
	if err := c.apiCallContext(ctx, "POST", sessionPath(stringArg(args, "session_id"), "/pause"), map[string]bool{"paused": paused}, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Paused {
		return mcp.NewToolResultText(fmt.Sprintf("⏸ Paused on day %d", response.Clock.Day)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("▶ Running from day %d", response.Clock.Day)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCallContext(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCallContext(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (id: %s)\n  %s\n  Map: %dx%d, Level: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height, cfg.Level)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🚂 Rail Logistics Game - Complete Instructions

GAME OBJECTIVE:
Build a rail network that moves cargo from producing industries to the
stations that accept it. Each delivery earns money; keep the balance positive
while track upkeep is charged every day.

MAP LEGEND:
• . grass   T forest (buildable, clearing costs extra)
• ~ water   ^ mountain (never buildable)
• : desert  * snow
• # rail    S station    v train

STATIONS:
• Mines, camps and wells produce cargo into their storage over time
• The city accepts passengers, tools, lumber, oil and gold
• Steel mills turn coal and iron into steel, tool factories turn steel into
  tools, sawmills turn wood into lumber
• describe_tile shows what a station produces, accepts and has in stock

BUILDING:
• place_track lays one rail tile; tracks connect to rail and stations around them
• place_station builds an industry picked from the terrain's pool
• demolish refunds half of the nominal cost
• plan_path finds the cheapest route over buildable terrain; lay_track_path builds it

TRAINS:
• buy_train loads cargo from a station's stock (up to the train capacity)
• A train moves one tile at a time and picks a direction at each tile center
• Without a route it greedily heads for the nearest station that accepts its cargo
• With a route it heads for the next stop, cycling through the list
• On arrival at a station that accepts the cargo it is paid and removed

REVENUE:
• revenue = price x quantity x distance factor, reduced when transit takes
  longer than the ideal time for the distance
• Prices drift day to day; world_state shows recent deliveries

SIMULATION:
• The server advances unpaused sessions in the background
• tick advances a session manually by dt seconds (repeat with steps)
• pause stops background ticking for a session

STRATEGY TIPS:
1. Start with a short line between a producer and an accepting station
2. Use plan_path before building to see the cost
3. Buy a train only once the line is connected end to end
4. Long deliveries pay more, as long as they arrive on time

Good luck building your railway!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID,
		session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	balance := 0.0
	if state.Wallet != nil {
		balance = state.Wallet.Balance
	}
	fmt.Fprintf(&b, "Balance: $%.0f\n", balance)
	fmt.Fprintf(&b, "Day: %d (%.1fs elapsed)\n", state.Clock.Day, state.Clock.Elapsed)
	if state.Paused {
		b.WriteString("Status: ⏸ PAUSED\n")
	}
	fmt.Fprintf(&b, "Trains: %d, Routes: %d, Deliveries: %d, Revenue: $%.0f\n",
		len(state.Vehicles), len(state.Routes), state.Stats.Deliveries, state.Stats.Revenue)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	if state.World == nil {
		return b.String()
	}

	stations := state.World.Stations()
	if len(stations) > 0 {
		b.WriteString("\nStations:\n")
		for _, p := range stations {
			t, _ := state.World.TileAt(p.X, p.Y)
			fmt.Fprintf(&b, "- (%d,%d) %s%s\n", p.X, p.Y, t.StationKind, formatStock(&t))
		}
	}

	if len(state.Vehicles) > 0 {
		b.WriteString("\nTrains:\n")
		for _, v := range state.Vehicles {
			fmt.Fprintf(&b, "- %s at (%d,%d) %d %s", v.ID, v.X, v.Y, v.Quantity, v.Cargo)
			if v.RouteID != "" {
				fmt.Fprintf(&b, " route=%s", v.RouteID)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nMap (%dx%d):\n", state.World.Width(), state.World.Height())
	b.WriteString(engine.RenderASCII(state.World, state.Vehicles))
	return b.String()
}

func formatStock(t *engine.Tile) string {
	var parts []string
	for _, c := range engine.AllCargoTypes() {
		if n := t.Storage.Get(c); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", c, n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func cargoNames(set engine.CargoSet) string {
	list := set.List()
	if len(list) == 0 {
		return "nothing"
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func formatTileInfo(info *service.TileInfo) string {
	t := &info.Tile
	var b strings.Builder
	fmt.Fprintf(&b, "Tile (%d,%d)\n", t.X, t.Y)
	fmt.Fprintf(&b, "Terrain: %s\n", t.Terrain)

	switch {
	case t.Track == engine.Station:
		fmt.Fprintf(&b, "Station: %s\n", t.StationKind)
		fmt.Fprintf(&b, "Produces: %s\n", cargoNames(t.Produces))
		fmt.Fprintf(&b, "Accepts: %s\n", cargoNames(t.Accepts))
		if stock := formatStock(t); stock != "" {
			fmt.Fprintf(&b, "Stock:%s\n", stock)
		}
	case t.Track.IsTrack():
		fmt.Fprintf(&b, "Track: %s\n", t.Track)
	default:
		b.WriteString("Nothing built\n")
	}

	if len(info.Directions) > 0 {
		dirs := make([]string, len(info.Directions))
		for i, d := range info.Directions {
			dirs[i] = d.String()
		}
		fmt.Fprintf(&b, "Connections: %s\n", strings.Join(dirs, ", "))
	}
	if len(info.Vehicles) > 0 {
		fmt.Fprintf(&b, "Trains here: %s\n", strings.Join(info.Vehicles, ", "))
	}
	return b.String()
}

func formatBuildResult(result *service.BuildResult) string {
	if !result.Success {
		return fmt.Sprintf("✗ %s failed at (%d,%d): %s\nBalance: $%.0f\n",
			result.Action, result.X, result.Y, result.Message, result.Balance)
	}

	text := fmt.Sprintf("✓ %s\n", result.Message)
	if result.Cost > 0 {
		text += fmt.Sprintf("Cost: $%.0f\n", result.Cost)
	}
	if result.Refund > 0 {
		text += fmt.Sprintf("Refund: $%.0f\n", result.Refund)
	}
	text += fmt.Sprintf("Balance: $%.0f\n", result.Balance)
	return text
}

func formatPathResult(result *service.PathResult) string {
	if !result.Found {
		return fmt.Sprintf("No buildable path from (%d,%d) to (%d,%d)\n",
			result.From.X, result.From.Y, result.To.X, result.To.Y)
	}

	steps := make([]string, len(result.Path))
	for i, p := range result.Path {
		steps[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return fmt.Sprintf("Path of %d tiles, terrain cost %d, estimated build cost $%.0f:\n%s\n",
		len(result.Path), result.Cost, result.BuildCost, strings.Join(steps, " → "))
}

func formatRoute(r *engine.Route) string {
	stops := make([]string, len(r.Stops))
	for i, p := range r.Stops {
		stops[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	name := r.Name
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("- %s [%s]: %s (trains: %d)\n", r.ID, name, strings.Join(stops, " → "), len(r.Vehicles))
}

func formatTickResult(result *service.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Day %d, %.1fs elapsed. Balance: $%.0f, Trains: %d\n",
		result.Day, result.Elapsed, result.Balance, result.Vehicles)
	if result.Paused {
		b.WriteString("Session is paused for background ticking\n")
	}
	if len(result.Deliveries) == 0 {
		b.WriteString("No deliveries\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Deliveries (%d):\n", len(result.Deliveries))
	for _, d := range result.Deliveries {
		fmt.Fprintf(&b, "- %d %s from (%d,%d) to (%d,%d) in %.1f days: $%.0f\n",
			d.Quantity, d.Cargo, d.From.X, d.From.Y, d.To.X, d.To.Y, d.TransitDays, d.Revenue)
	}
	return b.String()
}
