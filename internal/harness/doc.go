// Package harness runs connection-log scenarios end to end.
//
// A scenario is a YAML file listing scans to record through the tracker
// service, followed by the chains, roots, loops and duplicates the resolver
// should report afterwards:
//
//	name: rescan_last_write_wins
//	description: "A later scan of the same part replaces its earlier target"
//	policy:
//	  enforce_order: true
//	steps:
//	  - connect: { part: ANT00001, target: LNA00001, at: 1 }
//	  - connect: { part: ANT00001, target: LNA00002, at: 2 }
//	  - connect: { part: ANT00001, target: SNAP00001, at: 3 }
//	    expect_error: ILLEGAL_ORDER
//	  - disconnect: { part: LNA00002, at: 4 }
//	  - prune: true
//	expect:
//	  chains: [[ANT00001, LNA00002]]
//	  duplicates: { ANT00001: 2 }
//
// # Step Types
//
//   - connect: records a connection; at is seconds after testutil.Epoch
//   - disconnect: records a disconnection
//   - prune: plans and executes a superseded-row prune
//
// A step may name the tracker error code it must fail with in expect_error.
// Any other step error fails the scenario.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite database with scan
// times derived from testutil.At, so the snapshot written by RunWithGolden
// is identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/linear_chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(context.Background(), scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
