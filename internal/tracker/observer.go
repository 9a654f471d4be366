package tracker

// Observer receives counts from service operations. The web server feeds
// them into Prometheus; the CLI leaves the default no-op observer in place.
type Observer interface {
	ChainsBuilt(chains int)
	EventsAppended(n int)
	DuplicatesFound(parts int)
}

type nopObserver struct{}

func (nopObserver) ChainsBuilt(int)     {}
func (nopObserver) EventsAppended(int)  {}
func (nopObserver) DuplicatesFound(int) {}
