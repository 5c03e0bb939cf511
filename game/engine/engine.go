package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotAStation       = errors.New("tile is not a station")
	ErrCargoUnavailable  = errors.New("station has no stock of that cargo")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// RecentDeliveryLimit bounds the delivery log kept in the game state
const RecentDeliveryLimit = 20

// Clock tracks simulated time
type Clock struct {
	Elapsed float64 `json:"elapsed"`
	Day     int     `json:"day"`
}

// Stats are plain counters for progression and achievement bookkeeping
type Stats struct {
	TracksBuilt   int     `json:"tracks_built"`
	StationsBuilt int     `json:"stations_built"`
	Demolished    int     `json:"demolished"`
	TrainsBought  int     `json:"trains_bought"`
	Deliveries    int     `json:"deliveries"`
	Revenue       float64 `json:"revenue"`
	Spent         float64 `json:"spent"`
}

// Delivery records one train arriving at a station
type Delivery struct {
	VehicleID   string    `json:"vehicle_id"`
	Cargo       CargoType `json:"cargo"`
	Quantity    int       `json:"quantity"`
	From        Position  `json:"from"`
	To          Position  `json:"to"`
	Distance    int       `json:"distance"`
	TransitDays float64   `json:"transit_days"`
	Price       float64   `json:"price"`
	Revenue     float64   `json:"revenue"`
	Day         int       `json:"day"`
}

// GameState represents the complete game state
type GameState struct {
	World            *WorldMap  `json:"world"`
	Vehicles         []*Vehicle `json:"vehicles"`
	Routes           []*Route   `json:"routes"`
	Wallet           *Wallet    `json:"wallet"`
	Clock            Clock      `json:"clock"`
	Stats            Stats      `json:"stats"`
	RecentDeliveries []Delivery `json:"recent_deliveries"`
	Message          string     `json:"message"`
	ConfigName       string     `json:"config_name"`
	Paused           bool       `json:"paused"`
}

// Clone returns a deep copy that stays valid while the engine keeps running
func (s *GameState) Clone() *GameState {
	cp := *s
	cp.World = s.World.Clone()
	cp.Wallet = &Wallet{Balance: s.Wallet.Balance}
	cp.Vehicles = make([]*Vehicle, len(s.Vehicles))
	for i, v := range s.Vehicles {
		vc := *v
		if v.Prev != nil {
			prev := *v.Prev
			vc.Prev = &prev
		}
		cp.Vehicles[i] = &vc
	}
	cp.Routes = make([]*Route, len(s.Routes))
	for i, r := range s.Routes {
		cp.Routes[i] = r.Clone()
	}
	cp.RecentDeliveries = append([]Delivery{}, s.RecentDeliveries...)
	return &cp
}

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	GetConfig() *GameConfig
	Balance() float64

	// Building
	PlaceTrack(x, y int) bool
	PlaceStation(x, y int) bool
	Demolish(x, y int) bool

	// Trains and routes
	BuyTrain(at Position, cargo CargoType, routeID string) (*Vehicle, error)
	CreateRoute(name, color string, stops []Position) (*Route, error)
	DeleteRoute(id string) error
	AssignRoute(vehicleID, routeID string) error

	// Simulation
	Tick(dt float64) []Delivery
	SetPaused(paused bool)
	IsPaused() bool

	// Queries
	PlanPath(from, to Position) []Position
	Snapshot() *Snapshot
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state       *GameState
	config      *GameConfig
	maintenance *TrackMaintenance
	market      *PriceBoard
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	e.init(NewWorldMap(config.Width, config.Height, config.Seed))
	return e, nil
}

// NewEngineWithWorld creates an engine around a prepared world, used by scenarios and tests
func NewEngineWithWorld(config *GameConfig, world *WorldMap) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if world == nil {
		return nil, fmt.Errorf("world cannot be nil")
	}
	e := &GameEngine{config: config}
	e.init(world)
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults() *GameEngine {
	config := DefaultGameConfig()
	e := &GameEngine{config: config}
	e.init(NewWorldMap(config.Width, config.Height, config.Seed))
	return e
}

func (e *GameEngine) init(world *WorldMap) {
	e.maintenance = NewTrackMaintenance(e.config.TrackUpkeep)
	e.market = NewPriceBoard(world.Seed())
	e.state = &GameState{
		World:            world,
		Vehicles:         []*Vehicle{},
		Routes:           []*Route{},
		Wallet:           NewWallet(e.config.StartingBalance),
		RecentDeliveries: []Delivery{},
		Message:          e.config.Messages.Welcome,
		ConfigName:       e.config.Name,
	}
	for _, p := range world.Tracks() {
		e.maintenance.RegisterTrack(p.X, p.Y, 0)
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Market returns the price source used for deliveries
func (e *GameEngine) Market() Market {
	return e.market
}

// Maintenance returns the rail upkeep registry
func (e *GameEngine) Maintenance() *TrackMaintenance {
	return e.maintenance
}

// Balance returns the wallet balance
func (e *GameEngine) Balance() float64 {
	return e.state.Wallet.Balance
}

// Reset regenerates the world from the config, keeping cumulative stats
func (e *GameEngine) Reset() *GameState {
	prevStats := e.state.Stats
	e.init(NewWorldMap(e.config.Width, e.config.Height, e.config.Seed))
	e.state.Stats = prevStats
	return e.state
}

// PlaceTrack lays rail at (x,y), paying from the wallet
func (e *GameEngine) PlaceTrack(x, y int) bool {
	before := e.Balance()
	ok := e.state.World.PlaceTrack(x, y, e.state.Wallet, e.maintenance, e.state.Clock.Day)
	e.recordBuild(ok, "track", x, y, before)
	if ok {
		e.state.Stats.TracksBuilt++
	}
	return ok
}

// PlaceStation builds a station at (x,y), paying from the wallet
func (e *GameEngine) PlaceStation(x, y int) bool {
	before := e.Balance()
	ok := e.state.World.PlaceStation(x, y, e.state.Wallet, e.config.Level)
	kind := "station"
	if t, found := e.state.World.TileAt(x, y); ok && found {
		kind = string(t.StationKind)
	}
	e.recordBuild(ok, kind, x, y, before)
	if ok {
		e.state.Stats.StationsBuilt++
	}
	return ok
}

func (e *GameEngine) recordBuild(ok bool, what string, x, y int, before float64) {
	if !ok {
		e.state.Message = messageOr(e.config.Messages.Blocked, "Can't build at (%d,%d)", x, y)
		return
	}
	e.state.Stats.Spent += before - e.Balance()
	e.state.Message = messageOr(e.config.Messages.Built, "Built %s at (%d,%d)", what, x, y)
}

// Demolish clears (x,y) and refunds half its nominal cost. Tiles a train
// stands on or is moving into are refused.
func (e *GameEngine) Demolish(x, y int) bool {
	if e.trainAt(Position{X: x, Y: y}) {
		e.state.Message = fmt.Sprintf("Train in the way at (%d,%d)", x, y)
		return false
	}
	ok := e.state.World.DemolishTile(x, y, e.state.Wallet)
	if !ok {
		e.state.Message = messageOr(e.config.Messages.Blocked, "Can't build at (%d,%d)", x, y)
		return false
	}
	e.maintenance.Forget(x, y)
	e.state.Stats.Demolished++
	e.state.Message = messageOr(e.config.Messages.Demolish, "Demolished (%d,%d)", x, y)
	return true
}

// trainAt reports whether a vehicle occupies pos or is heading into it
func (e *GameEngine) trainAt(pos Position) bool {
	for _, v := range e.state.Vehicles {
		if v.Position() == pos {
			return true
		}
		if !v.Deciding() && v.Position().Step(v.Facing) == pos {
			return true
		}
	}
	return false
}

// BuyTrain buys a train at a station, loading as much of cargo as the
// station has in stock up to the train capacity
func (e *GameEngine) BuyTrain(at Position, cargo CargoType, routeID string) (*Vehicle, error) {
	t, ok := e.state.World.TileAt(at.X, at.Y)
	if !ok || t.Track != Station {
		return nil, ErrNotAStation
	}
	if !cargo.Valid() || !t.Produces.Has(cargo) || t.Storage.Get(cargo) == 0 {
		return nil, fmt.Errorf("%w: %s at %s", ErrCargoUnavailable, cargo, t.StationKind)
	}
	var route *Route
	if routeID != "" {
		route = e.findRoute(routeID)
		if route == nil {
			return nil, ErrRouteNotFound
		}
	}
	if !e.state.Wallet.Deduct(e.config.TrainCost) {
		return nil, ErrInsufficientFunds
	}

	v := NewVehicle(at, cargo, e.config.TrainSpeed)
	v.KeepHeading = e.config.KeepHeading
	v.StartTime = e.state.Clock.Elapsed
	v.Quantity = e.state.World.WithdrawCargo(at.X, at.Y, cargo, e.config.TrainCapacity)
	if route != nil {
		v.RouteID = route.ID
		route.attach(v.ID)
	}
	e.state.Vehicles = append(e.state.Vehicles, v)
	e.state.Stats.TrainsBought++
	e.state.Stats.Spent += e.config.TrainCost
	e.state.Message = messageOr(e.config.Messages.TrainOut, "Train %s departed carrying %s", shortID(v.ID), cargo)
	return v, nil
}

// CreateRoute registers a new cyclic route
func (e *GameEngine) CreateRoute(name, color string, stops []Position) (*Route, error) {
	r, err := NewRoute(name, color, stops)
	if err != nil {
		return nil, err
	}
	e.state.Routes = append(e.state.Routes, r)
	return r, nil
}

// DeleteRoute removes a route. Vehicles following it drop the reference and
// fall back to unrouted direction selection.
func (e *GameEngine) DeleteRoute(id string) error {
	for i, r := range e.state.Routes {
		if r.ID != id {
			continue
		}
		e.state.Routes = append(e.state.Routes[:i], e.state.Routes[i+1:]...)
		for _, v := range e.state.Vehicles {
			if v.RouteID == id {
				v.RouteID = ""
				v.RouteIndex = 0
			}
		}
		return nil
	}
	return ErrRouteNotFound
}

// AssignRoute points a vehicle at a route; an empty routeID unassigns it
func (e *GameEngine) AssignRoute(vehicleID, routeID string) error {
	v := e.findVehicle(vehicleID)
	if v == nil {
		return ErrVehicleNotFound
	}
	var route *Route
	if routeID != "" {
		route = e.findRoute(routeID)
		if route == nil {
			return ErrRouteNotFound
		}
	}
	if old := e.findRoute(v.RouteID); old != nil {
		old.detach(v.ID)
	}
	v.RouteID = routeID
	v.RouteIndex = 0
	if route != nil {
		route.attach(v.ID)
	}
	return nil
}

// FindRoute returns the route with the given ID, or nil
func (e *GameEngine) FindRoute(id string) *Route {
	return e.findRoute(id)
}

func (e *GameEngine) findRoute(id string) *Route {
	if id == "" {
		return nil
	}
	for _, r := range e.state.Routes {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (e *GameEngine) findVehicle(id string) *Vehicle {
	for _, v := range e.state.Vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// SetPaused stops or resumes the simulation clock
func (e *GameEngine) SetPaused(paused bool) {
	e.state.Paused = paused
}

// IsPaused reports whether Tick is currently ignored
func (e *GameEngine) IsPaused() bool {
	return e.state.Paused
}

// Tick advances the simulation by dt seconds: clock, market and upkeep,
// production, then every vehicle in reverse order so arrivals can be removed
// in place. It returns the deliveries completed during the step.
func (e *GameEngine) Tick(dt float64) []Delivery {
	if e.state.Paused || dt <= 0 {
		return nil
	}

	e.state.Clock.Elapsed += dt
	e.state.Clock.Day = int(e.state.Clock.Elapsed / e.config.DayLength)
	e.market.Update(e.state.Clock.Day)
	e.maintenance.Update(e.state.Clock.Day, e.state.Wallet)

	e.state.World.UpdateProduction(dt)

	var delivered []Delivery
	for i := len(e.state.Vehicles) - 1; i >= 0; i-- {
		v := e.state.Vehicles[i]
		route := e.findRoute(v.RouteID)
		if route == nil && v.RouteID != "" {
			v.RouteID = ""
			v.RouteIndex = 0
		}
		if !v.Step(e.state.World, route, dt) {
			continue
		}
		if e.state.World.TrackAt(v.X, v.Y) != Station {
			continue
		}
		d := e.deliver(v)
		if route != nil {
			route.detach(v.ID)
		}
		e.state.Vehicles = append(e.state.Vehicles[:i], e.state.Vehicles[i+1:]...)
		delivered = append(delivered, d)
	}
	return delivered
}

// deliver scores a vehicle's arrival and credits the wallet
func (e *GameEngine) deliver(v *Vehicle) Delivery {
	to := v.Position()
	distance := ManhattanDistance(v.Origin, to)
	days := (e.state.Clock.Elapsed - v.StartTime) / e.config.DayLength
	price := e.market.CurrentPrice(v.Cargo)
	revenue := CalculateRevenue(price, float64(distance), days, e.config.NominalSpeedKPH)

	e.state.Wallet.Add(revenue)
	e.state.World.DepositCargo(to.X, to.Y, v.Cargo, v.Quantity)

	d := Delivery{
		VehicleID:   v.ID,
		Cargo:       v.Cargo,
		Quantity:    v.Quantity,
		From:        v.Origin,
		To:          to,
		Distance:    distance,
		TransitDays: days,
		Price:       price,
		Revenue:     revenue,
		Day:         e.state.Clock.Day,
	}
	e.state.Stats.Deliveries++
	e.state.Stats.Revenue += revenue
	e.state.RecentDeliveries = append(e.state.RecentDeliveries, d)
	if n := len(e.state.RecentDeliveries); n > RecentDeliveryLimit {
		e.state.RecentDeliveries = e.state.RecentDeliveries[n-RecentDeliveryLimit:]
	}
	e.state.Message = messageOr(e.config.Messages.Delivered, "Delivered %s for $%.0f", v.Cargo, revenue)
	return d
}

// PlanPath previews the cheapest buildable route between two tiles
func (e *GameEngine) PlanPath(from, to Position) []Position {
	return e.state.World.GetTrackPath(from, to)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
