package domain

// Feeding distance limits in ticks. A day splits into four equal zones:
// full, on time, late, forget.
const (
	WellFedLimit    uint64 = 4320
	OnTimeFeedLimit uint64 = 8640
	LateFeedLimit   uint64 = 12960
)

type FeedOutcome int

const (
	FeedFull FeedOutcome = iota
	FeedOnTime
	FeedLate
	FeedForget
)

// ClassifyFeeding buckets the distance since the last feed.
func ClassifyFeeding(distance uint64) FeedOutcome {
	switch {
	case distance <= WellFedLimit:
		return FeedFull
	case distance <= OnTimeFeedLimit:
		return FeedOnTime
	case distance <= LateFeedLimit:
		return FeedLate
	default:
		return FeedForget
	}
}

// Record increments the counter for a single feed outcome. FeedFull leaves
// the stats untouched.
func (s *FeedingStats) Record(outcome FeedOutcome) {
	switch outcome {
	case FeedOnTime:
		s.OnTime++
	case FeedLate:
		s.Late++
	case FeedForget:
		s.Forget++
	}
}
