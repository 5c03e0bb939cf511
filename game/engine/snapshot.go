package engine

import (
	"errors"
	"fmt"
)

// ErrSnapshotMismatch is returned when a restored tile's stored connectivity
// disagrees with the code recomputed from its neighbours
var ErrSnapshotMismatch = errors.New("snapshot connectivity mismatch")

// SnapshotVersion is bumped whenever the snapshot layout changes
const SnapshotVersion = 1

// TileRecord is a non-default tile in a snapshot
type TileRecord struct {
	X               int         `json:"x"`
	Y               int         `json:"y"`
	Terrain         TerrainType `json:"terrain"`
	Track           TrackType   `json:"track"`
	Connectivity    uint8       `json:"connectivity"`
	StationKind     StationKind `json:"station_kind,omitempty"`
	Storage         Storage     `json:"storage,omitempty"`
	ProductionTimer float64     `json:"production_timer,omitempty"`
}

// VehicleRecord is a vehicle in a snapshot
type VehicleRecord struct {
	ID         string     `json:"id"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Prev       *Position  `json:"prev,omitempty"`
	Progress   float64    `json:"progress"`
	Facing     Direction  `json:"facing"`
	LastFacing Direction  `json:"last_facing"`
	Speed      float64    `json:"speed"`
	Cargo      CargoType  `json:"cargo"`
	Quantity   int        `json:"quantity"`
	Origin     Position   `json:"origin"`
	StartTime  float64    `json:"start_time"`
	RouteID    string     `json:"route_id,omitempty"`
	RouteIndex int        `json:"route_index"`
	Trail      []Position `json:"trail,omitempty"`
}

// Snapshot is the persisted form of a running game
type Snapshot struct {
	Version     int                    `json:"version"`
	ConfigName  string                 `json:"config_name"`
	Width       int                    `json:"width"`
	Height      int                    `json:"height"`
	Seed        int64                  `json:"seed"`
	Balance     float64                `json:"balance"`
	Clock       Clock                  `json:"clock"`
	Paused      bool                   `json:"paused"`
	Stats       Stats                  `json:"stats"`
	Multipliers [NumCargoTypes]float64 `json:"multipliers"`
	Tiles       []TileRecord           `json:"tiles"`
	Tracks      []TrackRecord          `json:"tracks"`
	Vehicles    []VehicleRecord        `json:"vehicles"`
	Routes      []Route                `json:"routes"`
	Deliveries  []Delivery             `json:"deliveries"`
}

// Snapshot captures the game so it can be restored with RestoreEngine.
// Only non-default tiles are recorded.
func (e *GameEngine) Snapshot() *Snapshot {
	w := e.state.World
	snap := &Snapshot{
		Version:     SnapshotVersion,
		ConfigName:  e.config.Name,
		Width:       w.Width(),
		Height:      w.Height(),
		Seed:        w.Seed(),
		Balance:     e.state.Wallet.Balance,
		Clock:       e.state.Clock,
		Paused:      e.state.Paused,
		Stats:       e.state.Stats,
		Multipliers: e.market.Multipliers,
		Tiles:       []TileRecord{},
		Tracks:      e.maintenance.Records(),
		Vehicles:    make([]VehicleRecord, 0, len(e.state.Vehicles)),
		Routes:      make([]Route, 0, len(e.state.Routes)),
		Deliveries:  append([]Delivery{}, e.state.RecentDeliveries...),
	}

	for i := range w.tiles {
		t := &w.tiles[i]
		if t.IsDefault() {
			continue
		}
		snap.Tiles = append(snap.Tiles, TileRecord{
			X:               t.X,
			Y:               t.Y,
			Terrain:         t.Terrain,
			Track:           t.Track,
			Connectivity:    t.Connectivity,
			StationKind:     t.StationKind,
			Storage:         t.Storage,
			ProductionTimer: t.ProductionTimer,
		})
	}

	for _, v := range e.state.Vehicles {
		snap.Vehicles = append(snap.Vehicles, VehicleRecord{
			ID:         v.ID,
			X:          v.X,
			Y:          v.Y,
			Prev:       v.Prev,
			Progress:   v.Progress,
			Facing:     v.Facing,
			LastFacing: v.LastFacing,
			Speed:      v.Speed,
			Cargo:      v.Cargo,
			Quantity:   v.Quantity,
			Origin:     v.Origin,
			StartTime:  v.StartTime,
			RouteID:    v.RouteID,
			RouteIndex: v.RouteIndex,
			Trail:      v.Trail.Positions(),
		})
	}

	for _, r := range e.state.Routes {
		snap.Routes = append(snap.Routes, *r.Clone())
	}
	return snap
}

// RestoreEngine rebuilds a game from a snapshot. Connectivity is recomputed
// for every track tile and compared with the stored code.
func RestoreEngine(config *GameConfig, snap *Snapshot) (*GameEngine, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Width < MinMapSize || snap.Height < MinMapSize || snap.Width > MaxMapSize || snap.Height > MaxMapSize {
		return nil, fmt.Errorf("snapshot has invalid dimensions %dx%d", snap.Width, snap.Height)
	}

	world := NewEmptyWorldMap(snap.Width, snap.Height, snap.Seed)
	for _, rec := range snap.Tiles {
		t := world.tile(rec.X, rec.Y)
		if t == nil {
			return nil, fmt.Errorf("snapshot tile (%d,%d) out of bounds", rec.X, rec.Y)
		}
		t.Terrain = rec.Terrain
		t.Track = rec.Track
		if rec.Track == Station {
			if !rec.StationKind.Valid() {
				return nil, fmt.Errorf("snapshot tile (%d,%d) has unknown station kind %q", rec.X, rec.Y, rec.StationKind)
			}
			configureStation(t, rec.StationKind)
			t.Storage = rec.Storage
			t.ProductionTimer = rec.ProductionTimer
		}
	}
	for _, rec := range snap.Tiles {
		if !rec.Track.IsTrack() {
			continue
		}
		world.UpdateConnectivity(rec.X, rec.Y)
		if got := world.ConnectivityAt(rec.X, rec.Y); uint8(got) != rec.Connectivity {
			return nil, fmt.Errorf("%w at (%d,%d): stored %d, computed %d", ErrSnapshotMismatch, rec.X, rec.Y, rec.Connectivity, got)
		}
	}

	e, err := NewEngineWithWorld(config, world)
	if err != nil {
		return nil, err
	}

	e.state.Wallet.Balance = snap.Balance
	e.state.Clock = snap.Clock
	e.state.Paused = snap.Paused
	e.state.Stats = snap.Stats
	e.state.ConfigName = snap.ConfigName
	e.state.RecentDeliveries = append([]Delivery{}, snap.Deliveries...)
	e.market.Resume(snap.Clock.Day, snap.Multipliers)

	if len(snap.Tracks) > 0 {
		e.maintenance = NewTrackMaintenance(config.TrackUpkeep)
		for _, r := range snap.Tracks {
			e.maintenance.RegisterTrack(r.X, r.Y, r.PlacedDay)
		}
	}
	e.maintenance.Resume(snap.Clock.Day)

	for i := range snap.Routes {
		e.state.Routes = append(e.state.Routes, snap.Routes[i].Clone())
	}

	for _, rec := range snap.Vehicles {
		v := &Vehicle{
			ID:          rec.ID,
			X:           rec.X,
			Y:           rec.Y,
			Prev:        rec.Prev,
			Progress:    rec.Progress,
			Facing:      rec.Facing,
			LastFacing:  rec.LastFacing,
			Speed:       rec.Speed,
			Cargo:       rec.Cargo,
			Quantity:    rec.Quantity,
			Origin:      rec.Origin,
			StartTime:   rec.StartTime,
			RouteID:     rec.RouteID,
			RouteIndex:  rec.RouteIndex,
			KeepHeading: config.KeepHeading,
		}
		for i := len(rec.Trail) - 1; i >= 0; i-- {
			v.Trail.Push(rec.Trail[i])
		}
		e.state.Vehicles = append(e.state.Vehicles, v)
	}

	return e, nil
}
