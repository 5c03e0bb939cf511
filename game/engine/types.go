package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TerrainType represents the ground a tile sits on
type TerrainType string

const (
	Grass    TerrainType = "grass"
	Water    TerrainType = "water"
	Forest   TerrainType = "forest"
	Mountain TerrainType = "mountain"
	Desert   TerrainType = "desert"
	Snow     TerrainType = "snow"
)

// Walkable reports whether track can be laid and paths can pass over the terrain
func (t TerrainType) Walkable() bool {
	return t != Water && t != Mountain
}

// TrackType represents what has been built on a tile
type TrackType string

const (
	NoTrack TrackType = "none"
	Rail    TrackType = "rail"
	Station TrackType = "station"
)

// IsTrack reports whether trains can stand on the tile
func (t TrackType) IsTrack() bool {
	return t == Rail || t == Station
}

// StationKind determines the production rules of a station tile
type StationKind string

const (
	NoStation   StationKind = ""
	CoalMine    StationKind = "COAL_MINE"
	IronMine    StationKind = "IRON_MINE"
	SteelMill   StationKind = "STEEL_MILL"
	ToolFactory StationKind = "TOOL_FACTORY"
	City        StationKind = "CITY"
	LumberCamp  StationKind = "LUMBER_CAMP"
	Sawmill     StationKind = "SAWMILL"
	OilWell     StationKind = "OIL_WELL"
	GoldMine    StationKind = "GOLD_MINE"
)

// Game constants
const (
	MinMapSize = 8
	MaxMapSize = 256

	TrackCost         = 10.0
	StationCost       = 50.0
	ForestClearCost   = 5.0
	RefundFraction    = 0.5
	StorageCap        = 100
	ProductionSeconds = 5.0

	// TrailLength bounds the position history kept per vehicle for wagon drawing
	TrailLength = 4

	WebSocketBufferSize = 256
)

// CargoType is a closed enumeration of transportable goods
type CargoType int

const (
	Coal CargoType = iota
	Iron
	Steel
	Tools
	Passengers
	Wood
	Lumber
	Oil
	Gold

	NumCargoTypes
)

var cargoNames = [NumCargoTypes]string{
	Coal:       "COAL",
	Iron:       "IRON",
	Steel:      "STEEL",
	Tools:      "TOOLS",
	Passengers: "PASSENGERS",
	Wood:       "WOOD",
	Lumber:     "LUMBER",
	Oil:        "OIL",
	Gold:       "GOLD",
}

var cargoBaseValues = [NumCargoTypes]float64{
	Coal:       100,
	Iron:       120,
	Steel:      300,
	Tools:      500,
	Passengers: 80,
	Wood:       90,
	Lumber:     200,
	Oil:        250,
	Gold:       800,
}

// AllCargoTypes returns every cargo tag in declaration order
func AllCargoTypes() []CargoType {
	out := make([]CargoType, 0, NumCargoTypes)
	for c := CargoType(0); c < NumCargoTypes; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a known cargo tag
func (c CargoType) Valid() bool {
	return c >= 0 && c < NumCargoTypes
}

func (c CargoType) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CargoType(%d)", int(c))
	}
	return cargoNames[c]
}

// BaseValue returns the unscaled revenue value of one delivery of c
func (c CargoType) BaseValue() float64 {
	if !c.Valid() {
		return 0
	}
	return cargoBaseValues[c]
}

// ParseCargoType converts a tag such as "COAL" into a CargoType
func ParseCargoType(s string) (CargoType, error) {
	for c := CargoType(0); c < NumCargoTypes; c++ {
		if cargoNames[c] == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown cargo type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (c CargoType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid cargo type %d", int(c))
	}
	return []byte(cargoNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CargoType) UnmarshalText(text []byte) error {
	parsed, err := ParseCargoType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CargoSet is a bitset of cargo tags
type CargoSet uint16

// NewCargoSet builds a set from the given tags
func NewCargoSet(cargo ...CargoType) CargoSet {
	var s CargoSet
	for _, c := range cargo {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set
func (s CargoSet) Has(c CargoType) bool {
	return c.Valid() && s&(1<<uint(c)) != 0
}

// With returns a copy of the set including c
func (s CargoSet) With(c CargoType) CargoSet {
	if !c.Valid() {
		return s
	}
	return s | 1<<uint(c)
}

// List returns the members in declaration order
func (s CargoSet) List() []CargoType {
	var out []CargoType
	for c := CargoType(0); c < NumCargoTypes; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CargoSet) MarshalJSON() ([]byte, error) {
	list := s.List()
	if list == nil {
		list = []CargoType{}
	}
	return json.Marshal(list)
}

func (s *CargoSet) UnmarshalJSON(data []byte) error {
	var list []CargoType
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewCargoSet(list...)
	return nil
}

// Storage holds a quantity per cargo tag
type Storage [NumCargoTypes]int

// Get returns the stored quantity of c
func (s *Storage) Get(c CargoType) int {
	if !c.Valid() {
		return 0
	}
	return s[c]
}

// Add adds n units of c, clamped to [0, StorageCap], and returns the amount actually applied
func (s *Storage) Add(c CargoType, n int) int {
	if !c.Valid() {
		return 0
	}
	before := s[c]
	after := before + n
	if after > StorageCap {
		after = StorageCap
	}
	if after < 0 {
		after = 0
	}
	s[c] = after
	return after - before
}

// Take removes up to n units of c and returns how many were removed
func (s *Storage) Take(c CargoType, n int) int {
	if !c.Valid() || n <= 0 {
		return 0
	}
	if s[c] < n {
		n = s[c]
	}
	s[c] -= n
	return n
}

// IsEmpty reports whether nothing is stored
func (s *Storage) IsEmpty() bool {
	for _, n := range s {
		if n != 0 {
			return false
		}
	}
	return true
}

func (s Storage) MarshalJSON() ([]byte, error) {
	m := make(map[string]int)
	for c := CargoType(0); c < NumCargoTypes; c++ {
		if s[c] != 0 {
			m[cargoNames[c]] = s[c]
		}
	}
	return json.Marshal(m)
}

func (s *Storage) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Storage
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, err := ParseCargoType(k)
		if err != nil {
			return err
		}
		out[c] = m[k]
	}
	*s = out
	return nil
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is one of the four cardinal headings, or DirNone while a vehicle is deciding
type Direction int

const (
	DirNone Direction = iota - 1
	North
	East
	South
	West
)

// cardinalOrder is the fixed scan order used for direction selection
var cardinalOrder = [4]Direction{North, East, South, West}

var directionNames = map[Direction]string{
	DirNone: "",
	North:   "north",
	East:    "east",
	South:   "south",
	West:    "west",
}

func (d Direction) String() string {
	return directionNames[d]
}

// Delta returns the grid offset of one step in direction d. North is y-1.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	}
	return 0, 0
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	}
	return DirNone
}

// ParseDirection accepts north/east/south/west (and up/right/down/left)
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "none":
		return DirNone, nil
	case "north", "up":
		return North, nil
	case "east", "right":
		return East, nil
	case "south", "down":
		return South, nil
	case "west", "left":
		return West, nil
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Step returns the position one tile away in direction d
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Tile represents a single grid cell
type Tile struct {
	X               int         `json:"x"`
	Y               int         `json:"y"`
	Terrain         TerrainType `json:"terrain"`
	Track           TrackType   `json:"track"`
	Connectivity    uint8       `json:"connectivity"`
	StationKind     StationKind `json:"station_kind,omitempty"`
	Produces        CargoSet    `json:"produces"`
	Accepts         CargoSet    `json:"accepts"`
	Storage         Storage     `json:"storage"`
	ProductionTimer float64     `json:"production_timer,omitempty"`
}

// IsDefault reports whether the tile is untouched grass with nothing built
func (t *Tile) IsDefault() bool {
	return t.Terrain == Grass && t.Track == NoTrack
}

// clearBuild resets track, station and cargo state
func (t *Tile) clearBuild() {
	t.Track = NoTrack
	t.Connectivity = 0
	t.StationKind = NoStation
	t.Produces = 0
	t.Accepts = 0
	t.Storage = Storage{}
	t.ProductionTimer = 0
}
