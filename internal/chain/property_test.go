package chain

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/testutil"
)

const (
	propParts   = 6
	propTargets = propParts + 1 // last value means "no target"
)

// decodeLog turns generated integers into a small event log over a fixed
// part alphabet so collisions, cycles, and duplicates are common.
func decodeLog(codes []int) []event.ConnectionEvent {
	events := make([]event.ConnectionEvent, 0, len(codes))
	for i, n := range codes {
		part := fmt.Sprintf("P%d", n%propParts)
		target := ""
		if t := (n / propParts) % propTargets; t < propParts {
			target = fmt.Sprintf("P%d", t)
		}
		tick := int64(n / (propParts * propTargets * 4))
		id := int64(i + 1)
		if (n/(propParts*propTargets))%4 == 0 {
			events = append(events, testutil.Disconnect(id, part, target, tick))
		} else {
			events = append(events, testutil.Connect(id, part, target, tick))
		}
	}
	return events
}

// TestProperty_ResolverInvariants validates resolver invariants over random logs.
func TestProperty_ResolverInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	logGen := gen.SliceOf(gen.IntRange(0, propParts*propTargets*4*8))

	properties.Property("no part appears twice across or within chains", prop.ForAll(
		func(codes []int) bool {
			seen := make(map[string]bool)
			for _, c := range Resolve(decodeLog(codes)).Chains {
				for _, p := range c {
					if seen[p] {
						return false
					}
					seen[p] = true
				}
			}
			return true
		},
		logGen,
	))

	properties.Property("resolution is idempotent", prop.ForAll(
		func(codes []int) bool {
			return Verify(decodeLog(codes))
		},
		logGen,
	))

	properties.Property("every scanned part lands in some chain", prop.ForAll(
		func(codes []int) bool {
			r := Resolve(decodeLog(codes))
			placed := make(map[string]bool)
			for _, c := range r.Chains {
				for _, p := range c {
					placed[p] = true
				}
			}
			for part := range r.Effective {
				if !placed[part] {
					return false
				}
			}
			return true
		},
		logGen,
	))

	properties.Property("consecutive chain parts follow effective edges", prop.ForAll(
		func(codes []int) bool {
			r := Resolve(decodeLog(codes))
			for _, c := range r.Chains {
				for i := 0; i+1 < len(c); i++ {
					if r.Effective[c[i]].ConnectedTo != c[i+1] {
						return false
					}
				}
			}
			return true
		},
		logGen,
	))

	properties.Property("a part whose last event is a disconnect ends its chain", prop.ForAll(
		func(codes []int) bool {
			r := Resolve(decodeLog(codes))
			for _, rec := range r.Effective {
				if rec.Status == event.StatusDisconnected && rec.ConnectedTo != "" {
					return false
				}
			}
			return true
		},
		logGen,
	))

	properties.TestingRun(t)
}
