// Package harness loads protocol test scenarios from YAML and compiles
// them into event sequences for the engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario exercises"
//	namespace: extra_messages.cue   # optional, extends the peer namespace
//	steps:
//	  - connect: { privkey: "03" }
//	  - expect_msg: { type: init }
//	  - msg:
//	      type: init
//	      fields: { globalfeatures: "", features: "" }
//	  - try_all:
//	      - name: low_feerate
//	        steps:
//	          - fund_channel: { amount_sats: 100000, feerate_per_kw: 253 }
//	      - name: high_feerate
//	        steps:
//	          - fund_channel: { amount_sats: 100000, feerate_per_kw: 40000 }
//	  - disconnect: {}
//
// Each step is a single-key map naming the event kind. Field values are
// plain strings; the prefix "rcvd:" makes a value resolve against the
// stash at execution time, so a step can reference a field captured by
// an earlier expect_msg:
//
//	- msg:
//	    type: funding_created
//	    fields: { temporary_channel_id: "rcvd:temporary_channel_id" }
//
// # Deterministic Testing
//
// Compiled scenarios enumerate to a fixed, ordered set of paths. Golden
// snapshots of the enumeration (see AssertPathsGolden) pin that ordering
// so branch-point changes show up as a reviewed diff rather than a silent
// reordering.
package harness
