package directory

import "errors"

var (
	// ErrPersonnelNotFound is returned when a personnel ID does not exist.
	ErrPersonnelNotFound = errors.New("directory: personnel not found")

	// ErrCredentialNotFound is returned when a credential lookup finds nothing.
	ErrCredentialNotFound = errors.New("directory: credential not found")

	// ErrAreaNotFound is returned when an area ID does not exist.
	ErrAreaNotFound = errors.New("directory: area not found")

	// ErrDuplicateCredential is returned when a (factor kind, identifier)
	// pair is already enrolled.
	ErrDuplicateCredential = errors.New("directory: credential already enrolled")

	// ErrInvalidName is returned for empty or oversized names.
	ErrInvalidName = errors.New("directory: invalid name")

	// ErrInvalidLevel is returned for negative operator levels.
	ErrInvalidLevel = errors.New("directory: invalid level")

	// ErrInvalidFactorKind is returned for an unrecognized factor kind.
	ErrInvalidFactorKind = errors.New("directory: invalid factor kind")

	// ErrInvalidStatus is returned for an unrecognized credential status.
	ErrInvalidStatus = errors.New("directory: invalid credential status")
)
