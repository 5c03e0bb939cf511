package engine

import "math"

// World generation tuning
const (
	SafeZoneRadius     = 3
	IndustryMinRadius  = 8
	IndustryRetryLimit = 50
)

type clusterSpec struct {
	terrain  TerrainType
	perTiles int     // one cluster per this many tiles
	steps    int     // hard budget of tiles painted per cluster
	grow     float64 // chance of spreading to each neighbour
}

var clusterSpecs = []clusterSpec{
	{terrain: Forest, perTiles: 150, steps: 40, grow: 0.55},
	{terrain: Water, perTiles: 300, steps: 30, grow: 0.5},
	{terrain: Mountain, perTiles: 400, steps: 25, grow: 0.45},
}

// generate runs the full terrain and settlement pass on an empty world
func (w *WorldMap) generate() {
	w.generateBiomes()
	for _, spec := range clusterSpecs {
		count := len(w.tiles) / spec.perTiles
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			w.growCluster(spec)
		}
	}

	cx, cy := w.width/2, w.height/2
	w.clearSafeZone(cx, cy, SafeZoneRadius)
	w.placeStation(cx, cy, City, nil)
	w.scatterIndustries(cx, cy)
}

// generateBiomes assigns snow, desert and grass bands from low-frequency waves plus jitter
func (w *WorldMap) generateBiomes() {
	phaseA := w.rng.Float64() * 2 * math.Pi
	phaseB := w.rng.Float64() * 2 * math.Pi
	phaseC := w.rng.Float64() * 2 * math.Pi
	for i := range w.tiles {
		t := &w.tiles[i]
		fx, fy := float64(t.X), float64(t.Y)
		n := math.Sin(fx*0.08+phaseA)*math.Cos(fy*0.06+phaseB) +
			0.5*math.Sin((fx+fy)*0.03+phaseC) +
			(w.rng.Float64()-0.5)*0.3
		switch {
		case n > 0.8:
			t.Terrain = Snow
		case n < -0.8:
			t.Terrain = Desert
		default:
			t.Terrain = Grass
		}
	}
}

// growCluster paints a randomized flood-fill blob of spec.terrain
func (w *WorldMap) growCluster(spec clusterSpec) {
	start := Position{X: w.rng.Intn(w.width), Y: w.rng.Intn(w.height)}
	frontier := []Position{start}
	painted := 0
	for len(frontier) > 0 && painted < spec.steps {
		i := w.rng.Intn(len(frontier))
		p := frontier[i]
		frontier[i] = frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		t := w.tile(p.X, p.Y)
		if t == nil || t.Terrain == spec.terrain {
			continue
		}
		t.Terrain = spec.terrain
		painted++
		for _, d := range cardinalOrder {
			if w.rng.Float64() < spec.grow {
				frontier = append(frontier, p.Step(d))
			}
		}
	}
}

// clearSafeZone turns blocking or wooded terrain around the city back into grass
func (w *WorldMap) clearSafeZone(cx, cy, radius int) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			t := w.tile(x, y)
			if t == nil {
				continue
			}
			switch t.Terrain {
			case Forest, Water, Mountain:
				t.Terrain = Grass
			}
		}
	}
}

// scatterIndustries drops one station of each industry kind at a random
// bearing from the city. A kind that finds no free spot is skipped.
func (w *WorldMap) scatterIndustries(cx, cy int) {
	spread := w.width
	if w.height < spread {
		spread = w.height
	}
	spread /= 3
	if spread < 4 {
		spread = 4
	}
	for _, kind := range industryKinds {
		for attempt := 0; attempt < IndustryRetryLimit; attempt++ {
			angle := w.rng.Float64() * 2 * math.Pi
			dist := IndustryMinRadius + w.rng.Float64()*float64(spread)
			x := cx + int(math.Round(math.Cos(angle)*dist))
			y := cy + int(math.Round(math.Sin(angle)*dist))
			if !buildable(w.tile(x, y)) {
				continue
			}
			w.placeStation(x, y, kind, nil)
			break
		}
	}
}
