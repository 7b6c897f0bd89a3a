package clock

import "time"

// WallClock derives the current logical tick from wall time: one tick per
// interval since a fixed genesis instant.
type WallClock struct {
	genesis      time.Time
	tickInterval time.Duration
}

func NewWallClock(genesis time.Time, tickInterval time.Duration) *WallClock {
	return &WallClock{genesis: genesis, tickInterval: tickInterval}
}

func (c *WallClock) Now() uint64 {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.tickInterval)
}
