package directory

import (
	"fmt"
	"strings"
)

const maxNameLength = 100

// ValidFactorKind reports whether s is a recognized factor kind.
func ValidFactorKind(s string) bool {
	switch FactorKind(s) {
	case FactorCard, FactorPIN, FactorFace, FactorFingerprint:
		return true
	}
	return false
}

// ValidCredentialStatus reports whether s is a recognized status.
func ValidCredentialStatus(s string) bool {
	switch CredentialStatus(s) {
	case StatusActive, StatusLost, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidatePersonnel validates a Personnel before persistence.
func ValidatePersonnel(p *Personnel) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if p.Levels.Access < 0 || p.Levels.Antipassback < 0 || p.Levels.Arming < 0 {
		return fmt.Errorf("%w: levels must be non-negative", ErrInvalidLevel)
	}
	return nil
}

// ValidateCredential validates a Credential before persistence.
func ValidateCredential(c *Credential) error {
	if c.PersonnelID == "" {
		return fmt.Errorf("%w: credential requires an owner", ErrInvalidName)
	}
	if !ValidFactorKind(string(c.Kind)) {
		return fmt.Errorf("%w: %q", ErrInvalidFactorKind, c.Kind)
	}
	if !ValidCredentialStatus(string(c.Status)) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	if strings.TrimSpace(c.Identifier) == "" {
		return fmt.Errorf("%w: identifier cannot be empty", ErrInvalidName)
	}
	return nil
}

// ValidateArea validates an Area before persistence.
func ValidateArea(a *Area) error {
	return ValidateName(a.Name)
}
