package engine

import "strings"

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CountStations counts stations of the given kind; NoStation counts all of them
func CountStations(w *WorldMap, kind StationKind) int {
	count := 0
	for i := range w.tiles {
		t := &w.tiles[i]
		if t.Track == Station && (kind == NoStation || t.StationKind == kind) {
			count++
		}
	}
	return count
}

// CountTerrain counts tiles of a terrain type
func CountTerrain(w *WorldMap, terrain TerrainType) int {
	count := 0
	for i := range w.tiles {
		if w.tiles[i].Terrain == terrain {
			count++
		}
	}
	return count
}

// terrainGlyphs and trackGlyphs are the RenderASCII legend
var terrainGlyphs = map[TerrainType]byte{
	Grass:    '.',
	Water:    '~',
	Forest:   'T',
	Mountain: '^',
	Desert:   ':',
	Snow:     '*',
}

var trackGlyphs = map[TrackType]byte{
	Rail:    '#',
	Station: 'S',
}

// RenderASCII draws the world one character per tile. Vehicles, when given,
// are drawn as 'v' over the tile they occupy.
func RenderASCII(w *WorldMap, vehicles []*Vehicle) string {
	occupied := make(map[Position]bool, len(vehicles))
	for _, v := range vehicles {
		occupied[v.Position()] = true
	}

	var b strings.Builder
	b.Grow((w.width + 1) * w.height)
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			t := &w.tiles[y*w.width+x]
			switch {
			case occupied[Position{X: x, Y: y}]:
				b.WriteByte('v')
			case t.Track.IsTrack():
				b.WriteByte(trackGlyphs[t.Track])
			default:
				g, ok := terrainGlyphs[t.Terrain]
				if !ok {
					g = '?'
				}
				b.WriteByte(g)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
