package engine

import (
	"encoding/json"
	"math/rand"
	"time"
)

// WorldMap owns the tile grid. Tiles are only created by the constructors
// and Restore; everything else mutates them through the build operations.
type WorldMap struct {
	width  int
	height int
	seed   int64
	tiles  []Tile
	rng    *rand.Rand
}

// NewWorldMap creates a generated world. A zero seed derives one from the clock;
// the effective seed is available through Seed. Sizes are clamped like
// NewEmptyWorldMap.
func NewWorldMap(width, height int, seed int64) *WorldMap {
	w := NewEmptyWorldMap(width, height, seed)
	w.generate()
	return w
}

func clampSize(n int) int {
	return min(max(n, MinMapSize), MaxMapSize)
}

// NewEmptyWorldMap creates an all-grass world with nothing built. Sizes
// outside MinMapSize..MaxMapSize are clamped into range.
func NewEmptyWorldMap(width, height int, seed int64) *WorldMap {
	width, height = clampSize(width), clampSize(height)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &WorldMap{
		width:  width,
		height: height,
		seed:   seed,
		tiles:  make([]Tile, width*height),
		rng:    rand.New(rand.NewSource(seed)),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w.tiles[y*width+x] = Tile{X: x, Y: y, Terrain: Grass, Track: NoTrack}
		}
	}
	return w
}

// Clone returns an independent copy of the world
func (w *WorldMap) Clone() *WorldMap {
	cp := *w
	cp.tiles = append([]Tile(nil), w.tiles...)
	cp.rng = rand.New(rand.NewSource(w.seed))
	return &cp
}

// Width returns the number of columns
func (w *WorldMap) Width() int { return w.width }

// Height returns the number of rows
func (w *WorldMap) Height() int { return w.height }

// Seed returns the seed the world was generated with
func (w *WorldMap) Seed() int64 { return w.seed }

// InBounds reports whether (x,y) is on the map
func (w *WorldMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.width && y < w.height
}

func (w *WorldMap) tile(x, y int) *Tile {
	if !w.InBounds(x, y) {
		return nil
	}
	return &w.tiles[y*w.width+x]
}

// TileAt returns a copy of the tile at (x,y)
func (w *WorldMap) TileAt(x, y int) (Tile, bool) {
	t := w.tile(x, y)
	if t == nil {
		return Tile{}, false
	}
	return *t, true
}

// TrackAt returns the track type at (x,y); out of bounds is NoTrack
func (w *WorldMap) TrackAt(x, y int) TrackType {
	if t := w.tile(x, y); t != nil {
		return t.Track
	}
	return NoTrack
}

// ConnectivityAt returns the connectivity code of the tile at (x,y)
func (w *WorldMap) ConnectivityAt(x, y int) Connectivity {
	if t := w.tile(x, y); t != nil {
		return Connectivity(t.Connectivity)
	}
	return 0
}

// SetTerrain changes the terrain of a tile with nothing built on it
func (w *WorldMap) SetTerrain(x, y int, terrain TerrainType) bool {
	t := w.tile(x, y)
	if t == nil || t.Track != NoTrack {
		return false
	}
	t.Terrain = terrain
	return true
}

// buildable reports whether track or a station may go on t
func buildable(t *Tile) bool {
	return t != nil && t.Track == NoTrack && t.Terrain.Walkable()
}

// BuildCost returns what placing base-cost infrastructure on (x,y) would cost
func (w *WorldMap) BuildCost(x, y int, base float64) float64 {
	t := w.tile(x, y)
	if t != nil && t.Terrain == Forest {
		return base + ForestClearCost
	}
	return base
}

// charge deducts cost from ledger; a nil ledger is free build mode
func charge(ledger Ledger, cost float64) bool {
	if ledger == nil {
		return true
	}
	return ledger.Deduct(cost)
}

// PlaceTrack lays rail on (x,y). It returns false without side effects when the
// tile is out of bounds, already built, blocked by terrain, or unaffordable.
func (w *WorldMap) PlaceTrack(x, y int, ledger Ledger, maintenance MaintenanceRegistry, day int) bool {
	t := w.tile(x, y)
	if !buildable(t) {
		return false
	}
	if !charge(ledger, w.BuildCost(x, y, TrackCost)) {
		return false
	}
	if t.Terrain == Forest {
		t.Terrain = Grass
	}
	t.clearBuild()
	t.Track = Rail
	w.UpdateConnectivity(x, y)
	w.UpdateNeighbors(x, y)
	if maintenance != nil {
		maintenance.RegisterTrack(x, y, day)
	}
	return true
}

// PlaceStation builds a station of a randomly chosen kind on (x,y). Oil wells
// are only offered on desert, gold mines on snow, and the processing
// industries once level reaches AdvancedStationLevel.
func (w *WorldMap) PlaceStation(x, y int, ledger Ledger, level int) bool {
	t := w.tile(x, y)
	if !buildable(t) {
		return false
	}
	pool := stationPool(t.Terrain, level)
	kind := pool[w.rng.Intn(len(pool))]
	return w.placeStation(x, y, kind, ledger)
}

// PlaceStationOfKind builds a station of a fixed kind, used by editors and scenarios
func (w *WorldMap) PlaceStationOfKind(x, y int, kind StationKind, ledger Ledger) bool {
	if !kind.Valid() || !buildable(w.tile(x, y)) {
		return false
	}
	return w.placeStation(x, y, kind, ledger)
}

func (w *WorldMap) placeStation(x, y int, kind StationKind, ledger Ledger) bool {
	t := w.tile(x, y)
	if !charge(ledger, w.BuildCost(x, y, StationCost)) {
		return false
	}
	if t.Terrain == Forest {
		t.Terrain = Grass
	}
	t.clearBuild()
	t.Track = Station
	configureStation(t, kind)
	w.UpdateConnectivity(x, y)
	w.UpdateNeighbors(x, y)
	return true
}

// DemolishTile clears whatever is built on (x,y) and refunds half of its
// nominal cost. Tiles with nothing built are left alone.
func (w *WorldMap) DemolishTile(x, y int, ledger Ledger) bool {
	t := w.tile(x, y)
	if t == nil || t.Track == NoTrack {
		return false
	}
	refund := TrackCost * RefundFraction
	if t.Track == Station {
		refund = StationCost * RefundFraction
	}
	t.clearBuild()
	w.UpdateNeighbors(x, y)
	if ledger != nil {
		ledger.Add(refund)
	}
	return true
}

// UpdateConnectivity recomputes the code of the tile at (x,y) from its neighbours
func (w *WorldMap) UpdateConnectivity(x, y int) {
	t := w.tile(x, y)
	if t == nil {
		return
	}
	if !t.Track.IsTrack() {
		t.Connectivity = 0
		return
	}
	t.Connectivity = w.neighbourCode(x, y)
}

func (w *WorldMap) neighbourCode(x, y int) uint8 {
	var flags [8]bool
	for i, off := range neighbourOffsets {
		flags[i] = w.TrackAt(x+off.dx, y+off.dy).IsTrack()
	}
	return EncodeConnectivity(flags)
}

// UpdateNeighbors recomputes the codes of the 8 tiles surrounding (x,y)
func (w *WorldMap) UpdateNeighbors(x, y int) {
	for _, off := range neighbourOffsets {
		w.UpdateConnectivity(x+off.dx, y+off.dy)
	}
}

// UpdateProduction advances every station's production timer by dt seconds
// and runs its rule once the timer reaches the production interval. It
// returns the number of stations that produced this call.
func (w *WorldMap) UpdateProduction(dt float64) int {
	produced := 0
	for i := range w.tiles {
		t := &w.tiles[i]
		if t.Track != Station {
			continue
		}
		t.ProductionTimer += dt
		if t.ProductionTimer < ProductionSeconds {
			continue
		}
		t.ProductionTimer = 0
		if runProduction(t) {
			produced++
		}
	}
	return produced
}

// GetTrackPath returns the cheapest walkable route between two tiles
func (w *WorldMap) GetTrackPath(start, end Position) []Position {
	return FindPath(w, start, end)
}

// Stations returns the positions of all station tiles in row-major order
func (w *WorldMap) Stations() []Position {
	var out []Position
	for i := range w.tiles {
		if w.tiles[i].Track == Station {
			out = append(out, Position{X: w.tiles[i].X, Y: w.tiles[i].Y})
		}
	}
	return out
}

// Tracks returns the positions of all plain rail tiles in row-major order
func (w *WorldMap) Tracks() []Position {
	var out []Position
	for i := range w.tiles {
		if w.tiles[i].Track == Rail {
			out = append(out, Position{X: w.tiles[i].X, Y: w.tiles[i].Y})
		}
	}
	return out
}

// DepositCargo unloads n units of c at a station that accepts it
func (w *WorldMap) DepositCargo(x, y int, c CargoType, n int) int {
	t := w.tile(x, y)
	if t == nil || t.Track != Station || !t.Accepts.Has(c) {
		return 0
	}
	return t.Storage.Add(c, n)
}

// WithdrawCargo loads up to n units of c from a station that produces it
func (w *WorldMap) WithdrawCargo(x, y int, c CargoType, n int) int {
	t := w.tile(x, y)
	if t == nil || t.Track != Station || !t.Produces.Has(c) {
		return 0
	}
	return t.Storage.Take(c, n)
}

type worldJSON struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Seed   int64    `json:"seed"`
	Grid   [][]Tile `json:"grid"`
}

// MarshalJSON renders the world as rows of tiles
func (w *WorldMap) MarshalJSON() ([]byte, error) {
	grid := make([][]Tile, w.height)
	for y := 0; y < w.height; y++ {
		grid[y] = w.tiles[y*w.width : (y+1)*w.width]
	}
	return json.Marshal(worldJSON{Width: w.width, Height: w.height, Seed: w.seed, Grid: grid})
}

// UnmarshalJSON rebuilds a world from rows of tiles
func (w *WorldMap) UnmarshalJSON(data []byte) error {
	var raw worldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored := NewEmptyWorldMap(raw.Width, raw.Height, raw.Seed)
	for _, row := range raw.Grid {
		for _, t := range row {
			if dst := restored.tile(t.X, t.Y); dst != nil {
				*dst = t
			}
		}
	}
	*w = *restored
	return nil
}
