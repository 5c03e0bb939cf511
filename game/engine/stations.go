package engine

// stationProfile is the fixed configuration of a station kind
type stationProfile struct {
	Produces CargoSet
	Accepts  CargoSet
	Initial  map[CargoType]int
	Rule     productionRule
}

// productionRule is a per-cycle transform. Extraction rules have no inputs.
type productionRule struct {
	Inputs map[CargoType]int
	Output CargoType
	Amount int
}

var stationProfiles = map[StationKind]stationProfile{
	CoalMine: {
		Produces: NewCargoSet(Coal),
		Initial:  map[CargoType]int{Coal: 20},
		Rule:     productionRule{Output: Coal, Amount: 10},
	},
	IronMine: {
		Produces: NewCargoSet(Iron),
		Initial:  map[CargoType]int{Iron: 20},
		Rule:     productionRule{Output: Iron, Amount: 10},
	},
	SteelMill: {
		Produces: NewCargoSet(Steel),
		Accepts:  NewCargoSet(Coal, Iron),
		Rule:     productionRule{Inputs: map[CargoType]int{Coal: 10, Iron: 10}, Output: Steel, Amount: 5},
	},
	ToolFactory: {
		Produces: NewCargoSet(Tools),
		Accepts:  NewCargoSet(Steel),
		Rule:     productionRule{Inputs: map[CargoType]int{Steel: 5}, Output: Tools, Amount: 5},
	},
	City: {
		Produces: NewCargoSet(Passengers),
		Accepts:  NewCargoSet(Tools, Lumber, Oil, Gold, Passengers),
		Initial:  map[CargoType]int{Passengers: 10},
		Rule:     productionRule{Output: Passengers, Amount: 5},
	},
	LumberCamp: {
		Produces: NewCargoSet(Wood),
		Initial:  map[CargoType]int{Wood: 20},
		Rule:     productionRule{Output: Wood, Amount: 10},
	},
	Sawmill: {
		Produces: NewCargoSet(Lumber),
		Accepts:  NewCargoSet(Wood),
		Rule:     productionRule{Inputs: map[CargoType]int{Wood: 10}, Output: Lumber, Amount: 5},
	},
	OilWell: {
		Produces: NewCargoSet(Oil),
		Initial:  map[CargoType]int{Oil: 10},
		Rule:     productionRule{Output: Oil, Amount: 5},
	},
	GoldMine: {
		Produces: NewCargoSet(Gold),
		Initial:  map[CargoType]int{Gold: 5},
		Rule:     productionRule{Output: Gold, Amount: 2},
	},
}

// StationKinds lists every known station kind
func StationKinds() []StationKind {
	return []StationKind{CoalMine, IronMine, SteelMill, ToolFactory, City, LumberCamp, Sawmill, OilWell, GoldMine}
}

// Valid reports whether k names a configured station kind
func (k StationKind) Valid() bool {
	_, ok := stationProfiles[k]
	return ok
}

// industryKinds are scattered around the city during world generation
var industryKinds = []StationKind{CoalMine, IronMine, LumberCamp, Sawmill, SteelMill, ToolFactory}

// AdvancedStationLevel gates the processing industries offered by PlaceStation
const AdvancedStationLevel = 4

// stationPool returns the kinds PlaceStation may pick on the given terrain
func stationPool(terrain TerrainType, level int) []StationKind {
	pool := []StationKind{CoalMine, IronMine, LumberCamp, Sawmill, City}
	switch terrain {
	case Desert:
		pool = append(pool, OilWell)
	case Snow:
		pool = append(pool, GoldMine)
	}
	if level >= AdvancedStationLevel {
		pool = append(pool, SteelMill, ToolFactory)
	}
	return pool
}

// configureStation applies the kind's cargo sets and initial storage to t
func configureStation(t *Tile, kind StationKind) {
	profile := stationProfiles[kind]
	t.StationKind = kind
	t.Produces = profile.Produces
	t.Accepts = profile.Accepts
	t.Storage = Storage{}
	for c, n := range profile.Initial {
		t.Storage.Add(c, n)
	}
	t.ProductionTimer = 0
}

// runProduction applies one production cycle to a station tile. Processing
// rules only run when every input is fully stocked and the output has room.
func runProduction(t *Tile) bool {
	profile, ok := stationProfiles[t.StationKind]
	if !ok {
		return false
	}
	rule := profile.Rule
	if t.Storage.Get(rule.Output) >= StorageCap {
		return false
	}
	for c, need := range rule.Inputs {
		if t.Storage.Get(c) < need {
			return false
		}
	}
	for c, need := range rule.Inputs {
		t.Storage.Take(c, need)
	}
	t.Storage.Add(rule.Output, rule.Amount)
	return true
}
