// Command rail-logistics-game starts the rail logistics game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// In both modes a simulation driver advances every unpaused session in real
// time. Sessions are stored as JSON files, or in Postgres when RAIL_DB_DSN is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/rail-logistics-game/api"
	"github.com/wricardo/rail-logistics-game/game/config"
	"github.com/wricardo/rail-logistics-game/game/service"
	"github.com/wricardo/rail-logistics-game/game/session"
	"github.com/wricardo/rail-logistics-game/transport/mcp"
	"github.com/wricardo/rail-logistics-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rail Logistics Game Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing game configurations")
	sessionsDir  = flag.String("sessions-dir", "sessions", "Directory for session files when no database is configured")
	dbDSN        = flag.String("db-dsn", "", "Postgres DSN for session storage (or use RAIL_DB_DSN env var)")
	tickInterval = flag.Duration("tick", 200*time.Millisecond, "Simulation step interval, 0 disables background ticking")
	sessionTTL   = flag.Duration("session-ttl", 24*time.Hour, "Evict sessions from memory after this long without access")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default configuration directory.
// It first honors the CONFIG_DIR environment variable, then falls back to "configs".
func getConfigDirDefault() string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		return configDir
	}
	return "configs"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -tick 100ms        # Run the simulation twice as often\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db-dsn $DSN       # Store sessions in Postgres\n", os.Args[0])
	}
}

// app holds the wired services shared by both modes
type app struct {
	service  service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// An API server that is already running owns the sessions
		if externalAPIAvailable(externalURL) {
			log.Printf("External API server found at %s, using it for MCP", externalURL)
			serveStdio(externalURL)
			return
		}
		log.Printf("No external API server found, starting internal HTTP server")
		runWithServices(func(ctx context.Context, a *app) {
			runStdioMCPWithInternalServer(a)
		})

	case "server", "http":
		runWithServices(runHTTPServer)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// runWithServices initializes services, starts the background routines and
// calls run. Once run returns the driver is stopped and every session saved.
func runWithServices(run func(ctx context.Context, a *app)) {
	a, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	driverDone := a.startBackground(ctx)

	run(ctx, a)

	// Stop ticking before the final save so snapshots are consistent
	cancel()
	<-driverDone
	if err := a.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
// It returns after a shutdown signal.
func runHTTPServer(ctx context.Context, a *app) {
	apiServer := api.NewServer(a.service, a.hub)

	addr := fmt.Sprintf("%s:%d", *host, *port)

	// Create MCP client for /mcp endpoint
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tunnelCtx, cancelTunnel := context.WithCancel(ctx)
	defer cancelTunnel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(tunnelCtx, mainRouter)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancelTunnel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrokTunnel exposes handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}

	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	// Closing the tunnel unblocks http.Serve below
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// databaseDSN returns the -db-dsn flag, falling back to RAIL_DB_DSN
func databaseDSN() string {
	if *dbDSN != "" {
		return *dbDSN
	}
	return os.Getenv("RAIL_DB_DSN")
}

// newPersistence picks Postgres when a DSN is configured and session files otherwise
func newPersistence(configManager *config.Manager) (session.SessionPersistence, error) {
	if dsn := databaseDSN(); dsn != "" {
		db, err := session.OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		log.Println("Storing sessions in Postgres")
		return session.NewGormPersistence(db, configManager)
	}

	persistence, err := session.NewFilePersistence(*sessionsDir, configManager)
	if err != nil {
		return nil, err
	}
	log.Printf("Storing sessions in %s", *sessionsDir)
	return persistence, nil
}

// initializeServices wires session/config managers, the game service and the websocket hub.
func initializeServices() (*app, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := newPersistence(configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	return &app{
		service:  service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		hub:      hub,
	}, nil
}

// startBackground launches the simulation driver and housekeeping routines.
// The returned channel closes once the driver has stopped after ctx ends.
func (a *app) startBackground(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go sessionCleanupRoutine(ctx, a.service, *sessionTTL)
	go storageSyncRoutine(ctx, a.sessions)

	if *tickInterval <= 0 {
		log.Println("[TICK] background simulation disabled")
		close(done)
		return done
	}

	driver := newSimDriver(a.service, a.sessions, a.hub, *tickInterval)
	go func() {
		defer close(done)
		driver.Run(ctx)
	}()
	return done
}

// sessionCleanupRoutine periodically saves and unloads sessions that have not
// been accessed within the retention window. Evicted sessions stay in storage.
func sessionCleanupRoutine(ctx context.Context, gameService service.GameService, maxAge time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := gameService.EvictIdleSessions(ctx, maxAge)
			if err != nil {
				log.Printf("Session cleanup error: %v", err)
			}
			if evicted > 0 {
				log.Printf("Evicted %d idle sessions", evicted)
			}
		}
	}
}

// storageSyncRoutine drops in-memory sessions whose stored copy was deleted
// out of band, e.g. a session file removed by hand.
func storageSyncRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := manager.PruneDeleted(); pruned > 0 {
				log.Printf("Storage sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// externalURL is where stdio mode looks for an already running API server
const externalURL = "http://localhost:8080"

// externalAPIAvailable reports whether an API server answers its health check at baseURL
func externalAPIAvailable(baseURL string) bool {
	log.Printf("Checking for external API server at %s...", baseURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// serveStdio runs the MCP stdio server against the API at baseURL until stdin closes
func serveStdio(baseURL string) {
	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}

// runStdioMCPWithInternalServer starts an internal HTTP API bound to a random
// loopback port and runs the MCP stdio server against it.
func runStdioMCPWithInternalServer(a *app) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to get available port: %v", err)
	}

	internalAddr := listener.Addr().String()
	log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

	httpServer := &http.Server{
		Handler: api.NewServer(a.service, a.hub),
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	defer httpServer.Close()

	serveStdio(fmt.Sprintf("http://%s", internalAddr))
}
