package decision

import "errors"

var (
	// ErrSnapshotLoad indicates the configuration snapshot could not be
	// built from the store.
	ErrSnapshotLoad = errors.New("decision: snapshot load failed")

	// ErrNoSnapshot indicates the engine has no snapshot yet; decisions
	// fail closed until the first load succeeds.
	ErrNoSnapshot = errors.New("decision: no configuration snapshot available")
)
