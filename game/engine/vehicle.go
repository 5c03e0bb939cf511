package engine

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Trail is a fixed-size ring of recently left tiles. It only feeds wagon
// drawing and plays no part in movement.
type Trail struct {
	buf  [TrailLength]Position
	head int
	size int
}

// Push records p, evicting the oldest entry once full
func (t *Trail) Push(p Position) {
	t.buf[t.head] = p
	t.head = (t.head + 1) % TrailLength
	if t.size < TrailLength {
		t.size++
	}
}

// Positions returns the recorded tiles, most recent first
func (t *Trail) Positions() []Position {
	out := make([]Position, 0, t.size)
	for i := 1; i <= t.size; i++ {
		out = append(out, t.buf[(t.head-i+TrailLength)%TrailLength])
	}
	return out
}

func (t Trail) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Positions())
}

func (t *Trail) UnmarshalJSON(data []byte) error {
	var list []Position
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = Trail{}
	for i := len(list) - 1; i >= 0; i-- {
		t.Push(list[i])
	}
	return nil
}

// Vehicle is a single-delivery train. While Facing is DirNone it is deciding
// where to go; otherwise Progress runs from 0 to 1 across the current tile.
type Vehicle struct {
	ID         string    `json:"id"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Prev       *Position `json:"prev,omitempty"`
	Progress   float64   `json:"progress"`
	Facing     Direction `json:"facing"`
	LastFacing Direction `json:"last_facing"`
	Speed      float64   `json:"speed"`
	Cargo      CargoType `json:"cargo"`
	Quantity   int       `json:"quantity"`
	Origin     Position  `json:"origin"`
	StartTime  float64   `json:"start_time"`
	RouteID    string    `json:"route_id,omitempty"`
	RouteIndex int       `json:"route_index"`

	// KeepHeading prefers continuing straight at junctions when no route is assigned
	KeepHeading bool  `json:"keep_heading,omitempty"`
	Trail       Trail `json:"trail"`
}

// NewVehicle creates a deciding vehicle standing on pos
func NewVehicle(pos Position, cargo CargoType, speed float64) *Vehicle {
	return &Vehicle{
		ID:         uuid.New().String(),
		X:          pos.X,
		Y:          pos.Y,
		Facing:     DirNone,
		LastFacing: DirNone,
		Speed:      speed,
		Cargo:      cargo,
		Origin:     pos,
	}
}

// Position returns the tile the vehicle occupies
func (v *Vehicle) Position() Position {
	return Position{X: v.X, Y: v.Y}
}

// Deciding reports whether the vehicle has no heading yet
func (v *Vehicle) Deciding() bool {
	return v.Facing == DirNone
}

// Step advances the vehicle by dt seconds and reports whether it moved onto a
// new tile. route may be nil.
func (v *Vehicle) Step(w *WorldMap, route *Route, dt float64) bool {
	if v.Deciding() {
		v.Facing = v.chooseDirection(w, route)
		if v.Deciding() {
			return false
		}
	}

	v.Progress += v.Speed * dt
	if v.Progress < 1 {
		return false
	}

	from := v.Position()
	to := from.Step(v.Facing)
	v.Prev = &from
	v.Trail.Push(from)
	v.X, v.Y = to.X, to.Y
	v.Progress = 0
	v.LastFacing = v.Facing
	v.Facing = DirNone
	return true
}

// chooseDirection picks the next heading from the current tile's connectivity.
// Reversal is only allowed at dead ends. With a route, the exit closest to the
// current stop wins; otherwise the first exit in N, E, S, W order.
func (v *Vehicle) chooseDirection(w *WorldMap, route *Route) Direction {
	pos := v.Position()
	code := w.ConnectivityAt(v.X, v.Y)

	var target *Position
	if route != nil && len(route.Stops) > 0 {
		v.RouteIndex = normalizeIndex(v.RouteIndex, len(route.Stops))
		if route.Stops[v.RouteIndex] == pos {
			v.RouteIndex = (v.RouteIndex + 1) % len(route.Stops)
		}
		stop := route.Stops[v.RouteIndex]
		target = &stop
	}

	candidates := code.Directions()
	if len(candidates) > 1 && v.Prev != nil {
		kept := candidates[:0:0]
		for _, d := range candidates {
			if pos.Step(d) != *v.Prev {
				kept = append(kept, d)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return DirNone
	}

	if target != nil {
		sort.SliceStable(candidates, func(i, j int) bool {
			return ManhattanDistance(pos.Step(candidates[i]), *target) <
				ManhattanDistance(pos.Step(candidates[j]), *target)
		})
		return candidates[0]
	}

	if v.KeepHeading && v.LastFacing != DirNone {
		for _, d := range candidates {
			if d == v.LastFacing {
				return d
			}
		}
	}
	return candidates[0]
}

func normalizeIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
