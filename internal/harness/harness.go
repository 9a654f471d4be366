package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/store"
	"github.com/roach88/parttrack/internal/testutil"
	"github.com/roach88/parttrack/internal/tracker"
)

// pruneReason is written to the audit log for prune steps.
const pruneReason = "scenario prune"

// Harness applies scenario steps to a tracker service.
type Harness struct {
	svc    *tracker.Service
	result *Result
}

// Run executes a scenario against a fresh in-memory database and returns
// the result. Step failures and expectation mismatches are reported in the
// result; the error is reserved for infrastructure failures.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	policy := config.DefaultConfig().Tracker
	if scenario.Policy != nil {
		policy = *scenario.Policy
	}

	clock := testutil.NewDeterministicClock()
	h := &Harness{
		svc:    tracker.New(st, parts.DefaultCatalog(), policy, tracker.WithClock(clock.Now)),
		result: NewResult(scenario.Name),
	}

	for i, step := range scenario.Steps {
		if err := h.apply(ctx, i, step); err != nil {
			return nil, err
		}
	}

	if err := h.capture(ctx, scenario.Filter); err != nil {
		return nil, err
	}
	checkExpectations(h.result, scenario.Expect)
	return h.result, nil
}

// apply runs one step and records whether it failed the way it declared.
func (h *Harness) apply(ctx context.Context, index int, step Step) error {
	var err error
	switch {
	case step.Connect != nil:
		err = h.connect(ctx, step.Connect)
	case step.Disconnect != nil:
		err = h.disconnect(ctx, step.Disconnect)
	case step.Prune:
		err = h.prune(ctx)
	}

	if tracker.IsStorage(err) {
		return fmt.Errorf("step %d: %w", index, err)
	}

	code := tracker.CodeOf(err)
	switch {
	case step.ExpectError == "" && err != nil:
		h.result.AddError("steps[%d]: unexpected error: %v", index, err)
	case step.ExpectError != "" && err == nil:
		h.result.AddError("steps[%d]: expected error %s, step succeeded", index, step.ExpectError)
	case step.ExpectError != "" && code != step.ExpectError:
		h.result.AddError("steps[%d]: expected error %s, got %v", index, step.ExpectError, err)
	case err != nil:
		h.result.Snapshot.Rejected = append(h.result.Snapshot.Rejected, code)
	}
	return nil
}

func (h *Harness) connect(ctx context.Context, c *ConnectStep) error {
	scanTime := testutil.At(c.At)
	req := tracker.ConnectRequest{
		Part:               c.Part,
		Polarization:       c.Polarization,
		Target:             c.Target,
		TargetPolarization: c.TargetPolarization,
		ScanTime:           &scanTime,
	}
	if c.TargetAt != nil {
		targetTime := testutil.At(*c.TargetAt)
		req.TargetScanTime = &targetTime
	}
	_, err := h.svc.RecordConnection(ctx, req)
	return err
}

func (h *Harness) disconnect(ctx context.Context, d *DisconnectStep) error {
	scanTime := testutil.At(d.At)
	_, err := h.svc.RecordDisconnection(ctx, tracker.DisconnectRequest{
		Part:     d.Part,
		Target:   d.Target,
		ScanTime: &scanTime,
	})
	return err
}

func (h *Harness) prune(ctx context.Context) error {
	plan, err := h.svc.PlanPrune(ctx)
	if err != nil {
		return err
	}
	report, err := h.svc.ExecutePrune(ctx, plan.Token, pruneReason)
	if err != nil {
		return err
	}
	h.result.Snapshot.Pruned += report.Count()
	return nil
}

// capture fills the snapshot from the service's current view of the log.
func (h *Harness) capture(ctx context.Context, filter string) error {
	set, err := h.svc.BuildChains(ctx, filter)
	if err != nil {
		return fmt.Errorf("build chains: %w", err)
	}
	snap := &h.result.Snapshot
	snap.Chains = append(snap.Chains, set.Chains...)
	snap.Roots = append(snap.Roots, set.Roots...)
	for _, l := range set.Loops {
		snap.Loops = append(snap.Loops, l.Parts)
	}

	dups, err := h.svc.DuplicateReport(ctx)
	if err != nil {
		return fmt.Errorf("duplicate report: %w", err)
	}
	for part, records := range dups {
		snap.Duplicates[part] = len(records)
	}

	ts, err := h.svc.LastUpdateTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("last update: %w", err)
	}
	if ts != nil {
		snap.LastUpdate = ts.UTC().Format(time.RFC3339)
	}
	return nil
}
