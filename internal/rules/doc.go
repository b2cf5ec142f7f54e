// Package rules maps people to the doors and time windows they may use.
//
// An AccessRule bundles Where x When items: each item targets either a
// single access point or an access group (never both) and names the
// time schedule under which the target is usable. AccessGrants attach
// rules to personnel many-to-many.
//
// Resolution is a union: a person is authorized at a point if ANY item
// of ANY granted rule covers the point at the evaluated instant. There
// is no priority or ordering among rules; adding a grant never removes
// authorization another grant provides. Group membership is a set test,
// so overlapping groups are harmless.
//
// The package also owns interlock (mantrap) membership: named sets of
// access points of which at most one may be open at a time. Runtime
// open-state lives in the decision package; this package persists the
// membership configuration.
package rules
