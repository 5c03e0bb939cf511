package engine

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRouteNotFound   = errors.New("route not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrEmptyRoute      = errors.New("route needs at least one stop")
)

// Route is a cyclic list of stops. Vehicles refer to it by ID only.
type Route struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Color    string     `json:"color"`
	Stops    []Position `json:"stops"`
	Vehicles []string   `json:"vehicles"`
}

// NewRoute creates a route with a fresh identifier. Stops are not checked
// against the track network.
func NewRoute(name, color string, stops []Position) (*Route, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyRoute
	}
	return &Route{
		ID:       uuid.New().String(),
		Name:     name,
		Color:    color,
		Stops:    append([]Position(nil), stops...),
		Vehicles: []string{},
	}, nil
}

// attach records vehicleID as following the route
func (r *Route) attach(vehicleID string) {
	for _, id := range r.Vehicles {
		if id == vehicleID {
			return
		}
	}
	r.Vehicles = append(r.Vehicles, vehicleID)
}

// detach forgets vehicleID
func (r *Route) detach(vehicleID string) {
	for i, id := range r.Vehicles {
		if id == vehicleID {
			r.Vehicles = append(r.Vehicles[:i], r.Vehicles[i+1:]...)
			return
		}
	}
}

// Clone returns a copy that shares no slices with r
func (r *Route) Clone() *Route {
	cp := *r
	cp.Stops = append([]Position{}, r.Stops...)
	cp.Vehicles = append([]string{}, r.Vehicles...)
	return &cp
}
