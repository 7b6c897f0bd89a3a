package domain

// Tick windows. One tick is one logical time unit; the wall-clock adapter
// maps it to roughly 5 seconds.
const (
	TicksIn12Hours uint64 = 8640
	TicksIn24Hours uint64 = 17280
	TicksIn3Days   uint64 = 51840
	TicksIn1Week   uint64 = 120960
	TicksIn1Month  uint64 = 483840
)

// MicroUnitsPerUnit converts whole currency units into the micro-units used
// by the payment rail.
const MicroUnitsPerUnit int64 = 10_000_000

// MaxUnitAmount is the largest whole-unit amount whose micro-unit conversion
// still fits in an int64. Amounts above it would wrap on conversion.
const MaxUnitAmount int64 = (1<<63 - 1) / MicroUnitsPerUnit

// MinimumUserBalance is the reserve (in micro-units) a user must retain
// after any purchase or bid.
const MinimumUserBalance int64 = 15_000_000

type Breed string

const (
	BreedJersey    Breed = "jersey"
	BreedLimousin  Breed = "limousin"
	BreedHallikar  Breed = "hallikar"
	BreedHereford  Breed = "hereford"
	BreedHolstein  Breed = "holstein"
	BreedSimmental Breed = "simmental"
)

func (b Breed) Valid() bool {
	switch b {
	case BreedJersey, BreedLimousin, BreedHallikar, BreedHereford, BreedHolstein, BreedSimmental:
		return true
	}
	return false
}

type FeedingStats struct {
	OnTime uint32 `json:"on_time"`
	Late   uint32 `json:"late"`
	Forget uint32 `json:"forget"`
}

// Cow is the asset record. There is no alive flag: a cow whose store record
// has lapsed is dead.
type Cow struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Breed        Breed        `json:"breed"`
	BornTick     uint64       `json:"born_tick"`
	LastFedTick  uint64       `json:"last_fed_tick"`
	FeedingStats FeedingStats `json:"feeding_stats"`
	AuctionID    string       `json:"auction_id,omitempty"`
}

func (c Cow) Age(now uint64) uint64 {
	return now - c.BornTick
}

// OnAuction reports whether the cow is locked by an unfinalized auction.
func (c Cow) OnAuction() bool {
	return c.AuctionID != ""
}

// Underage reports whether the cow is too young to be sold or appraised.
func (c Cow) Underage(now uint64) bool {
	return c.Age(now) < TicksIn3Days
}
