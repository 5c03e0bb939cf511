package engine

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func createTestConfig() *GameConfig {
	config := DefaultGameConfig()
	config.Name = "Engine Test Config"
	config.Description = "Configuration for engine integration tests"
	config.Width = 12
	config.Height = 12
	config.Seed = 42
	return config
}

// createLineEngine builds a coal mine at (1,1), rail from (2,1) to (4,1)
// and a city at (5,1) on an empty world
func createLineEngine(t *testing.T) *GameEngine {
	t.Helper()
	config := createTestConfig()
	w := NewEmptyWorldMap(config.Width, config.Height, config.Seed)
	w.PlaceStationOfKind(1, 1, CoalMine, nil)
	for x := 2; x <= 4; x++ {
		w.PlaceTrack(x, 1, nil, nil, 0)
	}
	w.PlaceStationOfKind(5, 1, City, nil)

	e, err := NewEngineWithWorld(config, w)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state.World.Width() != 12 || state.World.Height() != 12 {
		t.Errorf("Expected 12x12 world, got %dx%d", state.World.Width(), state.World.Height())
	}
	if engine.Balance() != config.StartingBalance {
		t.Errorf("Expected balance %v, got %v", config.StartingBalance, engine.Balance())
	}
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if state.ConfigName != config.Name {
		t.Errorf("Expected config name %q, got %q", config.Name, state.ConfigName)
	}
	if len(state.Vehicles) != 0 || len(state.Routes) != 0 {
		t.Error("Expected no vehicles or routes at start")
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Width = 2
	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid config")
	}
	if _, err := NewEngineWithWorld(createTestConfig(), nil); err == nil {
		t.Error("Expected error for nil world")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	if engine.GetConfig().Name != "classic" {
		t.Errorf("Expected classic config, got %q", engine.GetConfig().Name)
	}
	if CountStations(engine.GetState().World, City) < 1 {
		t.Error("Expected a generated city")
	}
}

func TestEngine_Building(t *testing.T) {
	config := createTestConfig()
	e, _ := NewEngineWithWorld(config, NewEmptyWorldMap(12, 12, 1))

	if !e.PlaceTrack(3, 3) {
		t.Fatal("Expected track placement to succeed")
	}
	if e.Balance() != config.StartingBalance-TrackCost {
		t.Errorf("Expected balance %v, got %v", config.StartingBalance-TrackCost, e.Balance())
	}
	if !strings.HasPrefix(e.GetState().Message, "Built track") {
		t.Errorf("Expected build message, got %q", e.GetState().Message)
	}
	if e.PlaceTrack(3, 3) {
		t.Error("Expected repeated placement to fail")
	}
	if e.GetState().Message != "Can't build at (3,3)" {
		t.Errorf("Expected blocked message, got %q", e.GetState().Message)
	}

	if !e.PlaceStation(4, 3) {
		t.Fatal("Expected station placement to succeed")
	}
	stats := e.GetState().Stats
	if stats.TracksBuilt != 1 || stats.StationsBuilt != 1 {
		t.Errorf("Expected 1 track and 1 station built, got %+v", stats)
	}
	if stats.Spent != TrackCost+StationCost {
		t.Errorf("Expected spent %v, got %v", TrackCost+StationCost, stats.Spent)
	}
	if len(e.Maintenance().Records()) != 1 {
		t.Errorf("Expected one maintained rail tile, got %d", len(e.Maintenance().Records()))
	}

	if !e.Demolish(3, 3) {
		t.Fatal("Expected demolish to succeed")
	}
	if len(e.Maintenance().Records()) != 0 {
		t.Error("Expected demolished rail to leave the upkeep registry")
	}
	if e.Demolish(3, 3) {
		t.Error("Expected demolish of empty tile to fail")
	}
}

func TestEngine_DemolishUnderTrain(t *testing.T) {
	e := createLineEngine(t)
	v, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, "")
	if err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}

	if e.Demolish(1, 1) {
		t.Error("Expected demolish of the tile under a train to fail")
	}
	if !strings.Contains(e.GetState().Message, "Train in the way") {
		t.Errorf("Unexpected message %q", e.GetState().Message)
	}

	v.Facing = East
	if e.Demolish(2, 1) {
		t.Error("Expected demolish of the tile a train is entering to fail")
	}
	if e.GetState().World.TrackAt(2, 1) != Rail {
		t.Error("Expected the rail to survive")
	}
	if !e.Demolish(4, 1) {
		t.Error("Expected demolish of a free tile to succeed")
	}

	v.Facing = DirNone
	if !e.Demolish(2, 1) {
		t.Error("Expected demolish to succeed once the train is not heading there")
	}
}

func TestEngine_BuyTrain(t *testing.T) {
	e := createLineEngine(t)
	start := e.Balance()

	if _, err := e.BuyTrain(Position{X: 3, Y: 1}, Coal, ""); !errors.Is(err, ErrNotAStation) {
		t.Errorf("Expected ErrNotAStation on rail, got %v", err)
	}
	if _, err := e.BuyTrain(Position{X: 1, Y: 1}, Iron, ""); !errors.Is(err, ErrCargoUnavailable) {
		t.Errorf("Expected ErrCargoUnavailable for iron at a coal mine, got %v", err)
	}
	if _, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, "missing"); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}

	v, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, "")
	if err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}
	if v.Quantity != e.GetConfig().TrainCapacity {
		t.Errorf("Expected %d units loaded, got %d", e.GetConfig().TrainCapacity, v.Quantity)
	}
	if e.Balance() != start-e.GetConfig().TrainCost {
		t.Errorf("Expected balance %v, got %v", start-e.GetConfig().TrainCost, e.Balance())
	}
	mine, _ := e.GetState().World.TileAt(1, 1)
	if mine.Storage.Get(Coal) != 20-v.Quantity {
		t.Errorf("Expected mine stock to drop to %d, got %d", 20-v.Quantity, mine.Storage.Get(Coal))
	}

	e.GetState().Wallet.Balance = 0
	if _, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
}

func TestEngine_TickDelivers(t *testing.T) {
	e := createLineEngine(t)
	v, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, "")
	if err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}
	balance := e.Balance()

	// Speed 2 tiles/s: each 0.5s tick moves one tile
	var deliveries []Delivery
	for i := 0; i < 4; i++ {
		deliveries = append(deliveries, e.Tick(0.5)...)
	}

	if len(deliveries) != 1 {
		t.Fatalf("Expected one delivery, got %d", len(deliveries))
	}
	d := deliveries[0]
	if d.VehicleID != v.ID || d.To != (Position{X: 5, Y: 1}) || d.Distance != 4 {
		t.Errorf("Unexpected delivery %+v", d)
	}
	// 4 tiles at 100 kph: ideal 1 day; 2s of a 10s day is 0.2 days
	expected := 100 / (1 + 0.2*0.2)
	if math.Abs(d.Revenue-expected) > 0.01 {
		t.Errorf("Expected revenue %.2f, got %.2f", expected, d.Revenue)
	}
	if math.Abs(e.Balance()-(balance+expected)) > 0.01 {
		t.Errorf("Expected balance %.2f, got %.2f", balance+expected, e.Balance())
	}
	if len(e.GetState().Vehicles) != 0 {
		t.Error("Expected delivered train to be removed")
	}
	if len(e.GetState().RecentDeliveries) != 1 || e.GetState().Stats.Deliveries != 1 {
		t.Error("Expected the delivery to be recorded")
	}
	if !strings.HasPrefix(e.GetState().Message, "Delivered COAL") {
		t.Errorf("Expected delivery message, got %q", e.GetState().Message)
	}
}

func TestEngine_TickPaused(t *testing.T) {
	e := createLineEngine(t)
	e.BuyTrain(Position{X: 1, Y: 1}, Coal, "")
	e.SetPaused(true)

	if got := e.Tick(10); got != nil {
		t.Errorf("Expected no deliveries while paused, got %v", got)
	}
	if e.GetState().Clock.Elapsed != 0 {
		t.Errorf("Expected clock to stand still, got %v", e.GetState().Clock.Elapsed)
	}
	if !e.IsPaused() {
		t.Error("Expected engine to report paused")
	}

	e.SetPaused(false)
	e.Tick(0.5)
	if e.GetState().Clock.Elapsed != 0.5 {
		t.Errorf("Expected clock 0.5, got %v", e.GetState().Clock.Elapsed)
	}
}

func TestEngine_TickUpkeepAndDays(t *testing.T) {
	e := createLineEngine(t)
	balance := e.Balance()

	// Three rail tiles at 0.1 per day over two days
	e.Tick(e.GetConfig().DayLength * 2)
	if e.GetState().Clock.Day != 2 {
		t.Errorf("Expected day 2, got %d", e.GetState().Clock.Day)
	}
	if math.Abs(e.Balance()-(balance-0.6)) > 1e-9 {
		t.Errorf("Expected balance %.2f, got %.4f", balance-0.6, e.Balance())
	}
}

func TestEngine_Routes(t *testing.T) {
	e := createLineEngine(t)

	if _, err := e.CreateRoute("empty", "", nil); !errors.Is(err, ErrEmptyRoute) {
		t.Errorf("Expected ErrEmptyRoute, got %v", err)
	}

	route, err := e.CreateRoute("coal run", "#333333", []Position{{X: 5, Y: 1}})
	if err != nil {
		t.Fatalf("Failed to create route: %v", err)
	}
	v, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, route.ID)
	if err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}
	if v.RouteID != route.ID || len(route.Vehicles) != 1 {
		t.Errorf("Expected train on route, got route %q members %v", v.RouteID, route.Vehicles)
	}

	if err := e.AssignRoute("nope", route.ID); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("Expected ErrVehicleNotFound, got %v", err)
	}
	if err := e.AssignRoute(v.ID, "nope"); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}
	if err := e.AssignRoute(v.ID, ""); err != nil {
		t.Errorf("Unexpected error unassigning: %v", err)
	}
	if v.RouteID != "" || len(route.Vehicles) != 0 {
		t.Error("Expected train to leave the route")
	}

	e.AssignRoute(v.ID, route.ID)
	if err := e.DeleteRoute(route.ID); err != nil {
		t.Fatalf("Failed to delete route: %v", err)
	}
	if v.RouteID != "" {
		t.Error("Expected deleting a route to clear the train's reference")
	}
	if err := e.DeleteRoute(route.ID); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound on second delete, got %v", err)
	}

	// Train still completes its delivery without a route
	var deliveries []Delivery
	for i := 0; i < 4; i++ {
		deliveries = append(deliveries, e.Tick(0.5)...)
	}
	if len(deliveries) != 1 {
		t.Errorf("Expected delivery after route removal, got %d", len(deliveries))
	}
}

func TestEngine_RecentDeliveriesBounded(t *testing.T) {
	e := createLineEngine(t)
	for i := 0; i < RecentDeliveryLimit+5; i++ {
		e.GetState().World.tile(1, 1).Storage.Add(Coal, 10)
		if _, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, ""); err != nil {
			t.Fatalf("Failed to buy train %d: %v", i, err)
		}
		for j := 0; j < 4; j++ {
			e.Tick(0.5)
		}
	}
	if got := len(e.GetState().RecentDeliveries); got != RecentDeliveryLimit {
		t.Errorf("Expected %d recent deliveries, got %d", RecentDeliveryLimit, got)
	}
	if e.GetState().Stats.Deliveries != RecentDeliveryLimit+5 {
		t.Errorf("Expected %d total deliveries, got %d", RecentDeliveryLimit+5, e.GetState().Stats.Deliveries)
	}
}

func TestEngine_Reset(t *testing.T) {
	config := createTestConfig()
	e, _ := NewEngine(config)
	e.PlaceTrack(0, 0)
	e.Tick(1)

	state := e.Reset()
	if state.Clock.Elapsed != 0 {
		t.Errorf("Expected clock reset, got %v", state.Clock.Elapsed)
	}
	if e.Balance() != config.StartingBalance {
		t.Errorf("Expected balance reset to %v, got %v", config.StartingBalance, e.Balance())
	}
	if state.World.TrackAt(0, 0) == Rail {
		t.Error("Expected world to be regenerated")
	}
}

func TestEngine_PlanPath(t *testing.T) {
	e := createLineEngine(t)
	path := e.PlanPath(Position{X: 0, Y: 5}, Position{X: 6, Y: 5})
	if len(path) != 7 {
		t.Errorf("Expected 7 tiles, got %d", len(path))
	}
}

func TestGameState_Clone(t *testing.T) {
	e := createLineEngine(t)
	route, _ := e.CreateRoute("line", "#ff0000", []Position{{X: 5, Y: 1}})
	if _, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, route.ID); err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}

	cp := e.GetState().Clone()
	e.Tick(0.5)
	e.Demolish(3, 1)
	e.DeleteRoute(route.ID)

	if cp.Clock.Elapsed != 0 {
		t.Errorf("Expected cloned clock to stay at 0, got %v", cp.Clock.Elapsed)
	}
	if cp.World.TrackAt(3, 1) != Rail {
		t.Error("Expected cloned world to keep the demolished rail")
	}
	if len(cp.Routes) != 1 || len(cp.Routes[0].Vehicles) != 1 {
		t.Error("Expected cloned route to keep its vehicle")
	}
	if cp.Vehicles[0].Position() != (Position{X: 1, Y: 1}) {
		t.Errorf("Expected cloned vehicle to stay at the mine, got %+v", cp.Vehicles[0].Position())
	}
	if cp.Wallet.Balance == e.Balance() {
		t.Error("Expected cloned wallet to be independent")
	}
}
