package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	e := createLineEngine(t)
	route, _ := e.CreateRoute("loop", "#00ff00", []Position{{X: 5, Y: 1}, {X: 1, Y: 1}})
	v, err := e.BuyTrain(Position{X: 1, Y: 1}, Coal, route.ID)
	if err != nil {
		t.Fatalf("Failed to buy train: %v", err)
	}
	e.Tick(0.5)
	e.Tick(0.25)

	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}

	restored, err := RestoreEngine(e.GetConfig(), &snap)
	if err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}

	if restored.Balance() != e.Balance() {
		t.Errorf("Expected balance %v, got %v", e.Balance(), restored.Balance())
	}
	if restored.GetState().Clock != e.GetState().Clock {
		t.Errorf("Expected clock %+v, got %+v", e.GetState().Clock, restored.GetState().Clock)
	}
	if len(restored.GetState().Routes) != 1 || restored.GetState().Routes[0].ID != route.ID {
		t.Error("Expected route to be restored")
	}
	if len(restored.GetState().Vehicles) != 1 {
		t.Fatalf("Expected one vehicle, got %d", len(restored.GetState().Vehicles))
	}
	rv := restored.GetState().Vehicles[0]
	if rv.ID != v.ID || rv.Position() != v.Position() || rv.Facing != v.Facing || rv.Progress != v.Progress {
		t.Errorf("Expected vehicle %+v, got %+v", v, rv)
	}
	if len(restored.Maintenance().Records()) != 3 {
		t.Errorf("Expected 3 maintained rail tiles, got %d", len(restored.Maintenance().Records()))
	}

	for y := 0; y < e.GetState().World.Height(); y++ {
		for x := 0; x < e.GetState().World.Width(); x++ {
			a, _ := e.GetState().World.TileAt(x, y)
			b, _ := restored.GetState().World.TileAt(x, y)
			if a != b {
				t.Fatalf("Tile (%d,%d) differs: %+v vs %+v", x, y, a, b)
			}
		}
	}

	// Both engines continue identically
	da := e.Tick(1)
	db := restored.Tick(1)
	if len(da) != len(db) {
		t.Errorf("Expected identical deliveries, got %d and %d", len(da), len(db))
	}
}

func TestSnapshot_OnlyNonDefaultTiles(t *testing.T) {
	e := createLineEngine(t)
	snap := e.Snapshot()
	if len(snap.Tiles) != 5 {
		t.Errorf("Expected 5 recorded tiles, got %d", len(snap.Tiles))
	}
}

func TestRestoreEngine_Mismatch(t *testing.T) {
	e := createLineEngine(t)
	snap := e.Snapshot()
	for i := range snap.Tiles {
		if snap.Tiles[i].X == 3 && snap.Tiles[i].Y == 1 {
			snap.Tiles[i].Connectivity = 0
		}
	}

	if _, err := RestoreEngine(e.GetConfig(), snap); !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("Expected ErrSnapshotMismatch, got %v", err)
	}
}

func TestRestoreEngine_Invalid(t *testing.T) {
	config := createTestConfig()
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"wrong version", &Snapshot{Version: 99, Width: 12, Height: 12}},
		{"bad size", &Snapshot{Version: SnapshotVersion, Width: 2, Height: 2}},
		{"tile out of bounds", &Snapshot{Version: SnapshotVersion, Width: 12, Height: 12, Tiles: []TileRecord{{X: 20, Y: 0, Terrain: Water}}}},
		{"unknown station", &Snapshot{Version: SnapshotVersion, Width: 12, Height: 12, Tiles: []TileRecord{{X: 1, Y: 1, Terrain: Grass, Track: Station, StationKind: "CASINO"}}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := RestoreEngine(config, test.snap); err == nil {
				t.Error("Expected restore to fail")
			}
		})
	}
}
