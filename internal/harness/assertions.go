package harness

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// checkExpectations compares every set field of want against the captured
// snapshot and records a diff for each mismatch.
func checkExpectations(r *Result, want Expect) {
	got := r.Snapshot
	emptyEqual := cmpopts.EquateEmpty()

	if want.Chains != nil {
		if diff := cmp.Diff(want.Chains, got.Chains, emptyEqual); diff != "" {
			r.AddError("chains mismatch (-want +got):\n%s", diff)
		}
	}
	if want.Roots != nil {
		if diff := cmp.Diff(want.Roots, got.Roots, emptyEqual); diff != "" {
			r.AddError("roots mismatch (-want +got):\n%s", diff)
		}
	}
	if want.Loops != nil {
		if diff := cmp.Diff(want.Loops, got.Loops, emptyEqual); diff != "" {
			r.AddError("loops mismatch (-want +got):\n%s", diff)
		}
	}
	if want.Duplicates != nil {
		if diff := cmp.Diff(want.Duplicates, got.Duplicates, emptyEqual); diff != "" {
			r.AddError("duplicates mismatch (-want +got):\n%s", diff)
		}
	}
	if want.Rejected != nil {
		if diff := cmp.Diff(want.Rejected, got.Rejected, emptyEqual); diff != "" {
			r.AddError("rejected mismatch (-want +got):\n%s", diff)
		}
	}
	if want.Pruned != nil && *want.Pruned != got.Pruned {
		r.AddError("pruned mismatch: want %d, got %d", *want.Pruned, got.Pruned)
	}
}
