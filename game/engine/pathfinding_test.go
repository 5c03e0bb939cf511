package engine

import "testing"

func TestFindPath_StraightLine(t *testing.T) {
	w := NewEmptyWorldMap(12, 12, 1)
	start, end := Position{X: 1, Y: 5}, Position{X: 9, Y: 5}

	path := FindPath(w, start, end)
	if len(path) != 9 {
		t.Fatalf("Expected 9 tiles, got %d: %v", len(path), path)
	}
	if path[0] != start || path[len(path)-1] != end {
		t.Errorf("Expected path from %v to %v, got %v..%v", start, end, path[0], path[len(path)-1])
	}
	if cost := PathCost(w, path); cost != 8 {
		t.Errorf("Expected cost 8, got %d", cost)
	}
	for i := 1; i < len(path); i++ {
		if ManhattanDistance(path[i-1], path[i]) != 1 {
			t.Fatalf("Expected 4-connected steps, got %v -> %v", path[i-1], path[i])
		}
	}
}

func TestFindPath_SameTile(t *testing.T) {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	p := Position{X: 3, Y: 3}
	path := FindPath(w, p, p)
	if len(path) != 1 || path[0] != p {
		t.Errorf("Expected single-tile path, got %v", path)
	}
}

func TestFindPath_AvoidsForestWhenCheaper(t *testing.T) {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	// A one-tile forest in the middle of a straight run costs 1 extra;
	// going around costs 2 extra, so the forest is crossed.
	w.SetTerrain(3, 2, Forest)
	path := FindPath(w, Position{X: 1, Y: 2}, Position{X: 5, Y: 2})
	if cost := PathCost(w, path); cost != 5 {
		t.Errorf("Expected cost 5 through the forest, got %d: %v", cost, path)
	}

	// A forest wall two tiles thick is cheaper to walk around
	w2 := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	for x := 2; x <= 4; x++ {
		w2.SetTerrain(x, 2, Forest)
	}
	path = FindPath(w2, Position{X: 1, Y: 2}, Position{X: 5, Y: 2})
	if cost := PathCost(w2, path); cost != 6 {
		t.Errorf("Expected detour cost 6, got %d: %v", cost, path)
	}
}

func TestFindPath_Blocked(t *testing.T) {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	for y := 0; y < MinMapSize; y++ {
		w.SetTerrain(4, y, Water)
	}

	tests := []struct {
		name       string
		start, end Position
	}{
		{"unreachable", Position{X: 1, Y: 1}, Position{X: 6, Y: 1}},
		{"goal on water", Position{X: 1, Y: 1}, Position{X: 4, Y: 1}},
		{"start out of bounds", Position{X: -1, Y: 1}, Position{X: 2, Y: 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := FindPath(w, test.start, test.end)
			if path == nil || len(path) != 0 {
				t.Errorf("Expected empty non-nil path, got %v", path)
			}
		})
	}
}

func TestFindPath_IgnoresTrack(t *testing.T) {
	w := NewEmptyWorldMap(MinMapSize, MinMapSize, 1)
	w.PlaceTrack(3, 3, nil, nil, 0)
	path := w.GetTrackPath(Position{X: 1, Y: 3}, Position{X: 5, Y: 3})
	if len(path) != 5 {
		t.Errorf("Expected existing track to be walkable terrain, got %v", path)
	}
}

func TestStepCost(t *testing.T) {
	tests := []struct {
		terrain  TerrainType
		cost     int
		walkable bool
	}{
		{Grass, 1, true},
		{Desert, 1, true},
		{Snow, 1, true},
		{Forest, 2, true},
		{Water, 0, false},
		{Mountain, 0, false},
	}

	for _, test := range tests {
		cost, ok := StepCost(test.terrain)
		if cost != test.cost || ok != test.walkable {
			t.Errorf("%s: expected (%d,%v), got (%d,%v)", test.terrain, test.cost, test.walkable, cost, ok)
		}
		if test.terrain.Walkable() != test.walkable {
			t.Errorf("%s: Walkable disagrees with StepCost", test.terrain)
		}
	}
}
