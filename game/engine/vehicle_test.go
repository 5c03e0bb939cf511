package engine

import (
	"encoding/json"
	"testing"
)

// lineWorld lays rail from (x0,y) to (x1,y)
func lineWorld(x0, x1, y int) *WorldMap {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	for x := x0; x <= x1; x++ {
		w.PlaceTrack(x, y, nil, nil, 0)
	}
	return w
}

// plusWorld lays a cross of rail centred on (3,3) with arms of length 2
func plusWorld() *WorldMap {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	for i := 1; i <= 5; i++ {
		w.PlaceTrack(i, 3, nil, nil, 0)
		w.PlaceTrack(3, i, nil, nil, 0)
	}
	return w
}

func TestVehicleStep_CarriesProgress(t *testing.T) {
	w := lineWorld(0, 2, 0)
	v := NewVehicle(Position{X: 0, Y: 0}, Coal, 1)
	v.Progress = 0.5

	if !v.Step(w, nil, 0.5) {
		t.Fatal("Expected a tile change after 0.5 more progress")
	}
	if v.Position() != (Position{X: 1, Y: 0}) {
		t.Fatalf("Expected (1,0), got %v", v.Position())
	}

	if !v.Step(w, nil, 1.0) {
		t.Fatal("Expected a tile change after a full step")
	}
	if v.Position() != (Position{X: 2, Y: 0}) {
		t.Errorf("Expected (2,0), got %v", v.Position())
	}
}

func TestVehicleStep_AlongLine(t *testing.T) {
	w := lineWorld(0, 2, 1)
	v := NewVehicle(Position{X: 0, Y: 1}, Coal, 1)

	if v.Step(w, nil, 0.5) {
		t.Fatal("Expected no tile change at progress 0.5")
	}
	if v.Facing != East {
		t.Errorf("Expected to face east, got %s", v.Facing)
	}
	if v.Progress != 0.5 {
		t.Errorf("Expected progress 0.5, got %v", v.Progress)
	}

	if !v.Step(w, nil, 0.5) {
		t.Fatal("Expected tile change at progress 1")
	}
	if v.Position() != (Position{X: 1, Y: 1}) {
		t.Errorf("Expected (1,1), got %v", v.Position())
	}
	if !v.Deciding() || v.Progress != 0 {
		t.Errorf("Expected to be deciding with progress 0, got facing %s progress %v", v.Facing, v.Progress)
	}
	if v.Prev == nil || *v.Prev != (Position{X: 0, Y: 1}) {
		t.Errorf("Expected previous tile (0,1), got %v", v.Prev)
	}

	// Middle tile: back is excluded, so east again
	v.Step(w, nil, 1)
	if v.Position() != (Position{X: 2, Y: 1}) {
		t.Fatalf("Expected (2,1), got %v", v.Position())
	}

	// Dead end: the only exit is back where it came from
	v.Step(w, nil, 1)
	if v.Position() != (Position{X: 1, Y: 1}) {
		t.Errorf("Expected reversal to (1,1), got %v", v.Position())
	}
	if v.LastFacing != West {
		t.Errorf("Expected last facing west, got %s", v.LastFacing)
	}

	trail := v.Trail.Positions()
	if len(trail) != 3 || trail[0] != (Position{X: 2, Y: 1}) {
		t.Errorf("Expected trail most-recent-first starting at (2,1), got %v", trail)
	}
}

func TestVehicleStep_JunctionScanOrder(t *testing.T) {
	w := plusWorld()

	v := NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.Step(w, nil, 0.1)
	if v.Facing != North {
		t.Errorf("Expected north first in scan order, got %s", v.Facing)
	}

	// Arriving from the north excludes it; east is next
	v = NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.Prev = &Position{X: 3, Y: 2}
	v.Step(w, nil, 0.1)
	if v.Facing != East {
		t.Errorf("Expected east after excluding north, got %s", v.Facing)
	}
}

func TestVehicleStep_KeepHeading(t *testing.T) {
	w := plusWorld()
	v := NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.Prev = &Position{X: 2, Y: 3}
	v.LastFacing = East

	v.Step(w, nil, 0.1)
	if v.Facing != North {
		t.Errorf("Expected scan order north without keep-heading, got %s", v.Facing)
	}

	v = NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.Prev = &Position{X: 2, Y: 3}
	v.LastFacing = East
	v.KeepHeading = true
	v.Step(w, nil, 0.1)
	if v.Facing != East {
		t.Errorf("Expected to keep heading east, got %s", v.Facing)
	}
}

func TestVehicleStep_RouteGreedy(t *testing.T) {
	w := plusWorld()
	route, err := NewRoute("south", "#ff0000", []Position{{X: 3, Y: 5}, {X: 5, Y: 3}})
	if err != nil {
		t.Fatalf("Failed to create route: %v", err)
	}

	v := NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.Step(w, route, 0.1)
	if v.Facing != South {
		t.Errorf("Expected south toward the first stop, got %s", v.Facing)
	}

	// Standing on the current stop advances the index before choosing
	v = NewVehicle(Position{X: 3, Y: 5}, Coal, 1)
	v.Step(w, route, 0.1)
	if v.RouteIndex != 1 {
		t.Errorf("Expected route index 1, got %d", v.RouteIndex)
	}
	if v.Facing != North {
		t.Errorf("Expected north out of the dead end, got %s", v.Facing)
	}

	// Out of range indices are normalised
	v = NewVehicle(Position{X: 3, Y: 3}, Coal, 1)
	v.RouteIndex = 5
	v.Step(w, route, 0.1)
	if v.RouteIndex != 1 || v.Facing != East {
		t.Errorf("Expected index 1 heading east, got %d heading %s", v.RouteIndex, v.Facing)
	}
}

func TestVehicleStep_Stranded(t *testing.T) {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	w.PlaceTrack(4, 4, nil, nil, 0)
	v := NewVehicle(Position{X: 4, Y: 4}, Coal, 1)

	for i := 0; i < 5; i++ {
		if v.Step(w, nil, 1) {
			t.Fatal("Expected an isolated vehicle never to move")
		}
	}
	if !v.Deciding() || v.Progress != 0 {
		t.Errorf("Expected vehicle to stay deciding, got facing %s progress %v", v.Facing, v.Progress)
	}
}

func TestVehicle_NewIDs(t *testing.T) {
	a := NewVehicle(Position{}, Coal, 1)
	b := NewVehicle(Position{}, Coal, 1)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
}

func TestTrail(t *testing.T) {
	var tr Trail
	for i := 0; i < TrailLength+2; i++ {
		tr.Push(Position{X: i})
	}
	got := tr.Positions()
	if len(got) != TrailLength {
		t.Fatalf("Expected %d entries, got %d", TrailLength, len(got))
	}
	if got[0].X != TrailLength+1 || got[TrailLength-1].X != 2 {
		t.Errorf("Expected most recent first, got %v", got)
	}

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Failed to marshal trail: %v", err)
	}
	var decoded Trail
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal trail: %v", err)
	}
	if decoded.Positions()[0] != got[0] {
		t.Errorf("Expected trail order to survive, got %v", decoded.Positions())
	}
}

func TestNewRoute_Empty(t *testing.T) {
	if _, err := NewRoute("empty", "", nil); err != ErrEmptyRoute {
		t.Errorf("Expected ErrEmptyRoute, got %v", err)
	}
}
