package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/rail-logistics-game/game/config"
	"github.com/wricardo/rail-logistics-game/game/engine"
	"github.com/wricardo/rail-logistics-game/game/service"
	"github.com/wricardo/rail-logistics-game/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case nothing is broadcast.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Queries
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/map", s.handleGetMap).Methods("GET")
	api.HandleFunc("/sessions/{id}/tiles/{x}/{y}", s.handleGetTile).Methods("GET")
	api.HandleFunc("/sessions/{id}/path", s.handlePlanPath).Methods("GET")

	// Building
	api.HandleFunc("/sessions/{id}/track", s.handleBuild("track")).Methods("POST")
	api.HandleFunc("/sessions/{id}/station", s.handleBuild("station")).Methods("POST")
	api.HandleFunc("/sessions/{id}/demolish", s.handleBuild("demolish")).Methods("POST")

	// Trains and routes
	api.HandleFunc("/sessions/{id}/trains", s.handleBuyTrain).Methods("POST")
	api.HandleFunc("/sessions/{id}/trains/{vehicleID}/route", s.handleAssignRoute).Methods("PUT")
	api.HandleFunc("/sessions/{id}/routes", s.handleListRoutes).Methods("GET")
	api.HandleFunc("/sessions/{id}/routes", s.handleCreateRoute).Methods("POST")
	api.HandleFunc("/sessions/{id}/routes/{routeID}", s.handleDeleteRoute).Methods("DELETE")

	// Simulation
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files (if needed)
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and engine errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, engine.ErrRouteNotFound),
		errors.Is(err, engine.ErrVehicleNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, engine.ErrNotAStation),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrCargoUnavailable),
		errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON body into v; an empty body leaves v untouched
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// broadcastState pushes the session's current state to its WebSocket clients
func (s *Server) broadcastState(ctx context.Context, sessionID string) {
	if s.hub == nil || s.hub.ClientCount(strings.ToLower(sessionID)) == 0 {
		return
	}
	state, err := s.service.GetGameState(ctx, sessionID)
	if err != nil {
		return
	}
	s.pushState(sessionID, state)
}

// Hub keys are lowercase session IDs
func (s *Server) pushState(sessionID string, state *engine.GameState) {
	if s.hub != nil {
		s.hub.BroadcastToSession(strings.ToLower(sessionID), state)
	}
}

func (s *Server) pushEvent(sessionID, event string, data any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(strings.ToLower(sessionID), event, data)
	}
}

// announce pushes a player-facing game event
func (s *Server) announce(sessionID, kind, message string, pos engine.Position) {
	s.pushEvent(sessionID, websocket.EventGame, service.GameEvent{
		Type:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Position:  pos,
	})
}

// parsePosition parses "x,y"
func parsePosition(value string) (engine.Position, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("position must be x,y, got %q", value)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return engine.Position{}, fmt.Errorf("position must be x,y, got %q", value)
	}
	return engine.Position{X: x, Y: y}, nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Query Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, engine.RenderASCII(state.World, state.Vehicles))
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	x, errX := strconv.Atoi(vars["x"])
	y, errY := strconv.Atoi(vars["y"])
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "Tile coordinates must be integers")
		return
	}

	info, err := s.service.GetTile(r.Context(), vars["id"], x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePlanPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parsePosition(query.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parsePosition(query.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.PlanPath(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Building Handlers

// handleBuild serves the track, station and demolish endpoints. A rejected
// build still answers 200 with success=false.
func (s *Server) handleBuild(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["id"]

		var req struct {
			X *int `json:"x"`
			Y *int `json:"y"`
		}
		if err := decodeBody(r, &req); err != nil || req.X == nil || req.Y == nil {
			respondError(w, http.StatusBadRequest, "Request body must contain x and y")
			return
		}

		var result *service.BuildResult
		var err error
		switch action {
		case "track":
			result, err = s.service.PlaceTrack(r.Context(), sessionID, *req.X, *req.Y)
		case "station":
			result, err = s.service.PlaceStation(r.Context(), sessionID, *req.X, *req.Y)
		default:
			result, err = s.service.Demolish(r.Context(), sessionID, *req.X, *req.Y)
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		if result.Success {
			s.announce(sessionID, action, result.Message, engine.Position{X: result.X, Y: result.Y})
			s.broadcastState(r.Context(), sessionID)
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// Train and Route Handlers

func (s *Server) handleBuyTrain(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.BuyTrainRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BuyTrain(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Vehicle != nil {
		s.announce(sessionID, "train", result.Message, result.Vehicle.Position())
	}
	s.broadcastState(r.Context(), sessionID)
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleAssignRoute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		RouteID string `json:"route_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.AssignRoute(r.Context(), vars["id"], vars["vehicleID"], req.RouteID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(r.Context(), vars["id"])
	respondJSON(w, http.StatusOK, map[string]string{
		"vehicle_id": vars["vehicleID"],
		"route_id":   req.RouteID,
	})
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.service.ListRoutes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(routes),
		"routes": routes,
	})
}

func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.RouteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	route, err := s.service.CreateRoute(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(r.Context(), sessionID)
	respondJSON(w, http.StatusCreated, route)
}

func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.DeleteRoute(r.Context(), vars["id"], vars["routeID"]); err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(r.Context(), vars["id"])
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Route %s deleted", vars["routeID"]),
	})
}

// Simulation Handlers

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		DT    float64 `json:"dt"`
		Steps int     `json:"steps,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Steps <= 0 {
		req.Steps = 1
	}
	if req.Steps > 1000 {
		respondError(w, http.StatusBadRequest, "steps must be at most 1000")
		return
	}

	var result *service.TickResult
	deliveries := []engine.Delivery{}
	for i := 0; i < req.Steps; i++ {
		var err error
		result, err = s.service.Tick(r.Context(), sessionID, req.DT)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		deliveries = append(deliveries, result.Deliveries...)
	}
	result.Deliveries = deliveries

	for _, d := range deliveries {
		s.pushEvent(sessionID, websocket.EventDelivery, d)
	}
	s.broadcastState(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Paused *bool `json:"paused"`
	}
	if err := decodeBody(r, &req); err != nil || req.Paused == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain paused")
		return
	}

	state, err := s.service.SetPaused(r.Context(), sessionID, *req.Paused)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.pushState(sessionID, state)
	respondJSON(w, http.StatusOK, map[string]any{
		"paused": state.Paused,
		"clock":  state.Clock,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.announce(sessionID, "reset", "Game reset successfully", engine.Position{})
	s.pushState(sessionID, state)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Game reset successfully",
		"state":   state,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// handleCreateConfig saves a config under ?id=, defaulting to its name
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := decodeBody(r, &gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if gameConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = gameConfig.Name
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	log.Printf("[WS] session=%s client connecting from %s", sessionID, r.RemoteAddr)
	s.hub.ServeWS(w, r, strings.ToLower(sessionID))
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
