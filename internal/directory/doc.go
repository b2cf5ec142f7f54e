// Package directory manages the people side of access control: personnel
// records, the credentials they carry, and the physical areas they move
// between.
//
// Personnel hold an operator level triple (access, antipassback, arming)
// compared against door thresholds during decisions. Credentials are
// authentication factors (card, PIN, face, fingerprint) owned by exactly
// one person; only ACTIVE credentials participate in decisions.
//
// Personnel are soft-deleted via the active flag so that audit records
// referencing them stay resolvable.
package directory
