package domain

// Fixed-point feeding multipliers, two decimal digits of precision.
// 10000 is 100%.
const (
	OnTimeReward  int64 = 50  // +0.5% per on-time feed
	LateReward    int64 = 25  // +0.25% per late feed
	ForgetFine    int64 = 100 // -1% per forgotten feed
	FullPrecision int64 = 10_000
)

// Base prices per breed, in whole units.
const (
	jerseyPrice    int64 = 1000
	limousinPrice  int64 = 1000
	hallikarPrice  int64 = 1000
	herefordPrice  int64 = 5000
	holsteinPrice  int64 = 15000
	simmentalPrice int64 = 15000
)

// BasePrice returns the breed's fixed price in micro-units.
func BasePrice(b Breed) int64 {
	var price int64
	switch b {
	case BreedJersey:
		price = jerseyPrice
	case BreedLimousin:
		price = limousinPrice
	case BreedHallikar:
		price = hallikarPrice
	case BreedHereford:
		price = herefordPrice
	case BreedHolstein:
		price = holsteinPrice
	case BreedSimmental:
		price = simmentalPrice
	}
	return price * MicroUnitsPerUnit
}

// Appraise computes the market value of a cow from its feeding history.
// The multiplier is floored at -10000, so the worst possible price is zero.
// Integer division truncates toward zero; callers depend on these exact
// semantics for cross-system compatibility.
func Appraise(stats FeedingStats, basePrice int64) int64 {
	multiplier := int64(stats.OnTime)*OnTimeReward +
		int64(stats.Late)*LateReward -
		int64(stats.Forget)*ForgetFine
	if multiplier < -FullPrecision {
		multiplier = -FullPrecision
	}
	adjustment := basePrice * multiplier / FullPrecision
	return basePrice + adjustment
}
