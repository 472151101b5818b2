// Package harness runs YAML scenarios against the item store and compares
// the resulting trace with golden files.
//
// A scenario is a list of store operations, each with the outcome it should
// produce, plus assertions on the final table contents:
//
//	name: item_lifecycle
//	description: create, rename and remove one item
//	steps:
//	  - op: create
//	    item: {id: a1, name: Sword}
//	    expect: true
//	  - op: read
//	    id: a1
//	    expect_item: {id: a1, name: Sword}
//	assertions:
//	  - type: final_count
//	    count: 1
//
// Each scenario runs on a fresh in-memory database, so the trace depends
// only on the steps. Golden traces live in testdata/golden; regenerate them
// with:
//
//	go test ./internal/harness -update
package harness
