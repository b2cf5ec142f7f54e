// Package decision implements the access decision engine: the code
// path between a credential scan arriving and a verdict leaving.
//
// The engine runs a fixed evaluation order for every scan:
//
//  1. Credential resolution and auth mode matching
//  2. Grant resolution (which rule authorizes this person here, now)
//  3. Threshold comparison (held levels vs door minimums)
//  4. Antipassback (movement state consistency)
//  5. Interlock (mantrap mutual exclusion)
//
// The first failing check denies with its reason and later checks never
// run. Every decision reads a single immutable configuration Snapshot,
// so a config write landing mid-evaluation can never produce a verdict
// assembled from two different configuration states.
//
// Decisions are subject to a hard latency budget. A decision that
// cannot complete inside the budget denies with reason TIMEOUT and
// commits no state: the platform fails closed, never open.
package decision
