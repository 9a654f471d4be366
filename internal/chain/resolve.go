package chain

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/roach88/parttrack/internal/event"
)

// Result is the outcome of one resolver pass over the event log.
type Result struct {
	// Chains are linear part sequences from a root to a leaf.
	Chains [][]string `json:"chains"`

	// Effective maps each scanned part to its current connection record.
	Effective map[string]event.Record `json:"effective"`

	// Duplicates holds every raw record for parts scanned more than once.
	Duplicates map[string][]event.Record `json:"duplicates"`

	// Roots are the parts no other part connects to, or every part when
	// each is some part's target. Parts left unvisited after walking the
	// roots (closed loops) start chains of their own and are not listed
	// here.
	Roots []string `json:"roots"`

	// Loops lists chains that closed back on one of their own parts.
	Loops []Loop `json:"loops"`

	// LastUpdate is the latest scan or connected-scan time, nil for an empty log.
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// Loop records the repeating section of a chain that re-entered itself,
// starting at the re-entered part. Symmetric rows (A->B, B->A) show up as
// two-part loops.
type Loop struct {
	Parts []string `json:"parts"`
}

// Resolve runs all resolution steps over events. The input slice is not
// modified. An empty log yields an empty, non-nil result.
func Resolve(events []event.ConnectionEvent) Result {
	ordered := replayOrder(events)
	effective := reduce(ordered)
	roots := RootParts(effective)
	chains, loops := traverse(effective, roots)

	return Result{
		Chains:     chains,
		Effective:  effective,
		Duplicates: duplicates(ordered),
		Roots:      roots,
		Loops:      loops,
		LastUpdate: lastUpdate(ordered),
	}
}

// Filter returns the chains containing part. A chain matches when any of
// its elements contains part as a substring, so exact membership always
// matches. An empty part returns every chain.
func (r Result) Filter(part string) [][]string {
	if part == "" {
		return r.Chains
	}
	out := [][]string{}
	for _, c := range r.Chains {
		for _, p := range c {
			if strings.Contains(p, part) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Effective returns only the effective-state map for events.
func Effective(events []event.ConnectionEvent) map[string]event.Record {
	return reduce(replayOrder(events))
}

// Duplicates returns only the duplicate report for events.
func Duplicates(events []event.ConnectionEvent) map[string][]event.Record {
	return duplicates(replayOrder(events))
}

// LastUpdate returns the max of all scan and connected-scan times.
func LastUpdate(events []event.ConnectionEvent) *time.Time {
	return lastUpdate(events)
}

// Verify resolves events twice and reports whether both passes agree.
func Verify(events []event.ConnectionEvent) bool {
	return reflect.DeepEqual(Resolve(events), Resolve(events))
}

// RootParts returns the parts of effective that no effective edge points
// into, in ascending order. When that set is empty but effective is not
// (every part is someone's target), all parts are returned.
func RootParts(effective map[string]event.Record) []string {
	targets := make(map[string]bool, len(effective))
	for _, rec := range effective {
		if rec.ConnectedTo != "" {
			targets[rec.ConnectedTo] = true
		}
	}

	roots := []string{}
	for part := range effective {
		if !targets[part] {
			roots = append(roots, part)
		}
	}
	if len(roots) == 0 {
		roots = sortedKeys(effective)
	}
	sort.Strings(roots)
	return roots
}

// replayOrder returns a copy of events sorted by scan_time, then id.
func replayOrder(events []event.ConnectionEvent) []event.ConnectionEvent {
	ordered := make([]event.ConnectionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Before(ordered[j])
	})
	return ordered
}

// reduce keeps the last-seen record per part. Disconnects are recorded with
// no target rather than dropped, so an older connect cannot resurface.
func reduce(ordered []event.ConnectionEvent) map[string]event.Record {
	effective := make(map[string]event.Record, len(ordered))
	for _, ev := range ordered {
		rec := ev.Record()
		if rec.Status == event.StatusDisconnected {
			rec.ConnectedTo = ""
		}
		effective[ev.PartNumber] = rec
	}
	return effective
}

func duplicates(ordered []event.ConnectionEvent) map[string][]event.Record {
	all := make(map[string][]event.Record)
	for _, ev := range ordered {
		all[ev.PartNumber] = append(all[ev.PartNumber], ev.Record())
	}
	dups := make(map[string][]event.Record)
	for part, recs := range all {
		if len(recs) > 1 {
			dups[part] = recs
		}
	}
	return dups
}

// traverse walks each root along effective edges. The visited set is shared
// across chains: a chain stops at a part with no target or at a part some
// earlier walk already claimed. Parts still unvisited after the roots (those
// only reachable around a detached cycle) are walked in ascending order.
func traverse(effective map[string]event.Record, roots []string) ([][]string, []Loop) {
	chains := [][]string{}
	loops := []Loop{}
	visited := make(map[string]bool, len(effective))

	walk := func(start string) {
		if visited[start] {
			return
		}
		var chain []string
		position := make(map[string]int)
		current := start
		for {
			visited[current] = true
			position[current] = len(chain)
			chain = append(chain, current)

			next := effective[current].ConnectedTo
			if next == "" {
				break
			}
			if visited[next] {
				if at, ok := position[next]; ok {
					loop := make([]string, len(chain)-at)
					copy(loop, chain[at:])
					loops = append(loops, Loop{Parts: loop})
				}
				break
			}
			current = next
		}
		chains = append(chains, chain)
	}

	for _, root := range roots {
		walk(root)
	}
	for _, part := range sortedKeys(effective) {
		walk(part)
	}
	return chains, loops
}

func lastUpdate(events []event.ConnectionEvent) *time.Time {
	var latest *time.Time
	for _, ev := range events {
		t := ev.Record().Latest()
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}

func sortedKeys(m map[string]event.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
