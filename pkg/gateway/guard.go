package gateway

import "strings"

// Guard filters which provider identifiers may be dispatched to the network.
// When FreeOnly is set, any provider whose identifier lacks the Marker is
// skipped before a network call is issued. The marker is injected
// configuration: the roster naming convention changes independently of the
// orchestration logic.
type Guard struct {
	FreeOnly bool
	Marker   string
}

// NewGuard builds a Guard. An empty marker defaults to ":free".
func NewGuard(freeOnly bool, marker string) Guard {
	if marker == "" {
		marker = ":free"
	}
	return Guard{FreeOnly: freeOnly, Marker: marker}
}

// Eligible reports whether the provider may be dispatched. A cache hit never
// consults the guard; it applies only to network attempts.
func (g Guard) Eligible(provider string) bool {
	if !g.FreeOnly {
		return true
	}
	return strings.Contains(provider, g.Marker)
}
