package engine

import (
	"errors"
	"fmt"
)

// ErrConnectivityArity is returned when the neighbour flag list is not exactly 8 long
var ErrConnectivityArity = errors.New("connectivity requires exactly 8 neighbour flags")

// Neighbour order used by the connectivity code: N, E, S, W, NE, SE, SW, NW.
// Bit i of the code corresponds to neighbourOffsets[i].
var neighbourOffsets = [8]struct{ dx, dy int }{
	{0, -1},  // North
	{1, 0},   // East
	{0, 1},   // South
	{-1, 0},  // West
	{1, -1},  // North-East
	{1, 1},   // South-East
	{-1, 1},  // South-West
	{-1, -1}, // North-West
}

// Connectivity is the 8-bit neighbour-track mask of a tile
type Connectivity uint8

// Has reports whether the cardinal neighbour in direction d bears track
func (c Connectivity) Has(d Direction) bool {
	if d < North || d > West {
		return false
	}
	return c&(1<<uint(d)) != 0
}

// Directions returns the connected cardinal directions in scan order
func (c Connectivity) Directions() []Direction {
	var out []Direction
	for _, d := range cardinalOrder {
		if c.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// EncodeConnectivity packs the 8 neighbour flags into a code
func EncodeConnectivity(flags [8]bool) uint8 {
	var code uint8
	for i, set := range flags {
		if set {
			code |= 1 << uint(i)
		}
	}
	return code
}

// ConnectivityCode packs neighbour flags given as a slice. Any length other
// than 8 is a programming error and is reported as ErrConnectivityArity.
func ConnectivityCode(flags []bool) (uint8, error) {
	if len(flags) != 8 {
		return 0, fmt.Errorf("%w: got %d", ErrConnectivityArity, len(flags))
	}
	var fixed [8]bool
	copy(fixed[:], flags)
	return EncodeConnectivity(fixed), nil
}
