package engine

import "math/rand"

// Ledger is the player's bank account
type Ledger interface {
	CanAfford(amount float64) bool
	// Deduct removes amount and returns false, leaving the balance alone, when funds are short
	Deduct(amount float64) bool
	Add(amount float64)
}

// MaintenanceRegistry is notified of every newly laid rail tile
type MaintenanceRegistry interface {
	RegisterTrack(x, y, day int)
}

// Market quotes the current delivery value of a cargo tag
type Market interface {
	CurrentPrice(cargo CargoType) float64
}

// Wallet is the in-memory Ledger used by the game engine
type Wallet struct {
	Balance float64 `json:"balance"`
}

// NewWallet creates a wallet holding balance
func NewWallet(balance float64) *Wallet {
	return &Wallet{Balance: balance}
}

func (w *Wallet) CanAfford(amount float64) bool {
	return w.Balance >= amount
}

func (w *Wallet) Deduct(amount float64) bool {
	if !w.CanAfford(amount) {
		return false
	}
	w.Balance -= amount
	return true
}

func (w *Wallet) Add(amount float64) {
	w.Balance += amount
}

// TrackRecord is what the maintenance ledger remembers about one rail tile
type TrackRecord struct {
	Position
	PlacedDay int `json:"placed_day"`
}

// TrackMaintenance charges a daily upkeep for every registered rail tile
type TrackMaintenance struct {
	UpkeepPerDay float64                  `json:"upkeep_per_day"`
	Tracks       map[Position]TrackRecord `json:"-"`
	lastDay      int
}

// NewTrackMaintenance creates an empty registry
func NewTrackMaintenance(upkeepPerDay float64) *TrackMaintenance {
	return &TrackMaintenance{
		UpkeepPerDay: upkeepPerDay,
		Tracks:       make(map[Position]TrackRecord),
	}
}

func (m *TrackMaintenance) RegisterTrack(x, y, day int) {
	p := Position{X: x, Y: y}
	m.Tracks[p] = TrackRecord{Position: p, PlacedDay: day}
}

// Forget drops a demolished tile from the registry
func (m *TrackMaintenance) Forget(x, y int) {
	delete(m.Tracks, Position{X: x, Y: y})
}

// Records returns every registered rail tile
func (m *TrackMaintenance) Records() []TrackRecord {
	out := make([]TrackRecord, 0, len(m.Tracks))
	for _, r := range m.Tracks {
		out = append(out, r)
	}
	return out
}

// Update charges upkeep for each day elapsed since the previous call and
// returns the amount charged. Upkeep is taken even if it drives the balance
// negative.
func (m *TrackMaintenance) Update(day int, wallet *Wallet) float64 {
	if day <= m.lastDay {
		return 0
	}
	days := day - m.lastDay
	m.lastDay = day
	cost := float64(days*len(m.Tracks)) * m.UpkeepPerDay
	if wallet != nil && cost > 0 {
		wallet.Balance -= cost
	}
	return cost
}

// Resume sets the last charged day, used when restoring a saved game
func (m *TrackMaintenance) Resume(day int) {
	m.lastDay = day
}

// Price multiplier bounds for the price board random walk
const (
	MinPriceMultiplier = 0.5
	MaxPriceMultiplier = 1.5
	priceWalkStep      = 0.05
)

// PriceBoard is a Market whose multipliers drift by a bounded random walk, one step per day
type PriceBoard struct {
	Multipliers [NumCargoTypes]float64 `json:"multipliers"`
	lastDay     int
	rng         *rand.Rand
}

// NewPriceBoard creates a board with every multiplier at 1
func NewPriceBoard(seed int64) *PriceBoard {
	b := &PriceBoard{rng: rand.New(rand.NewSource(seed))}
	for i := range b.Multipliers {
		b.Multipliers[i] = 1
	}
	return b
}

// CurrentPrice returns base value times the current multiplier
func (b *PriceBoard) CurrentPrice(cargo CargoType) float64 {
	if !cargo.Valid() {
		return 0
	}
	return cargo.BaseValue() * b.Multipliers[cargo]
}

// Update walks every multiplier once for each day elapsed since the previous call
func (b *PriceBoard) Update(day int) {
	for ; b.lastDay < day; b.lastDay++ {
		for i := range b.Multipliers {
			m := b.Multipliers[i] + (b.rng.Float64()*2-1)*priceWalkStep
			if m < MinPriceMultiplier {
				m = MinPriceMultiplier
			}
			if m > MaxPriceMultiplier {
				m = MaxPriceMultiplier
			}
			b.Multipliers[i] = m
		}
	}
}

// Resume restores saved multipliers as of day so that Update only walks forward from there
func (b *PriceBoard) Resume(day int, multipliers [NumCargoTypes]float64) {
	b.lastDay = day
	b.Multipliers = multipliers
}
