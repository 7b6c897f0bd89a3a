package port

// Clock supplies the current logical tick. Injected everywhere so tests
// can drive time directly; there is no ambient time source in the core.
type Clock interface {
	Now() uint64
}
