package accesspoint

import (
	"fmt"
	"strings"

	"github.com/ostiary/ostiary-core/internal/directory"
)

// AuthExpr is a parsed auth mode: a conjunction of disjunction groups
// over factor kinds. "_AND_" binds looser than "_OR_", so
// "CARD_OR_FACE_AND_PIN" means (CARD or FACE) and PIN.
//
// Parse once at configuration load and reuse; parsing at decision time
// would put string handling on the door-unlock hot path.
type AuthExpr struct {
	groups [][]directory.FactorKind
}

// factorTokens maps auth mode tokens to factor kinds. "CARD" is the
// legacy token for RFID card factors.
var factorTokens = map[string]directory.FactorKind{
	"CARD":        directory.FactorCard,
	"PIN":         directory.FactorPIN,
	"FACE":        directory.FactorFace,
	"FINGERPRINT": directory.FactorFingerprint,
}

// ParseAuthMode parses an auth mode string like "CARD_AND_PIN" or
// "CARD_OR_FACE" into an AuthExpr. Returns ErrInvalidAuthMode for
// empty input or unknown factor tokens.
func ParseAuthMode(mode string) (*AuthExpr, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return nil, fmt.Errorf("%w: empty mode", ErrInvalidAuthMode)
	}

	var groups [][]directory.FactorKind
	for _, conj := range strings.Split(mode, "_AND_") {
		var group []directory.FactorKind
		for _, token := range strings.Split(conj, "_OR_") {
			kind, ok := factorTokens[token]
			if !ok {
				return nil, fmt.Errorf("%w: unknown factor %q in %q", ErrInvalidAuthMode, token, mode)
			}
			group = append(group, kind)
		}
		groups = append(groups, group)
	}
	return &AuthExpr{groups: groups}, nil
}

// Satisfied reports whether the presented factor kinds satisfy the
// expression: every AND group must contain at least one presented kind.
func (e *AuthExpr) Satisfied(presented map[directory.FactorKind]bool) bool {
	for _, group := range e.groups {
		matched := false
		for _, kind := range group {
			if presented[kind] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Factors returns every factor kind the expression references, deduplicated.
func (e *AuthExpr) Factors() []directory.FactorKind {
	seen := make(map[directory.FactorKind]bool)
	var kinds []directory.FactorKind
	for _, group := range e.groups {
		for _, kind := range group {
			if !seen[kind] {
				seen[kind] = true
				kinds = append(kinds, kind)
			}
		}
	}
	return kinds
}

// String reconstructs the canonical auth mode string.
func (e *AuthExpr) String() string {
	conjs := make([]string, 0, len(e.groups))
	for _, group := range e.groups {
		tokens := make([]string, 0, len(group))
		for _, kind := range group {
			tokens = append(tokens, tokenFor(kind))
		}
		conjs = append(conjs, strings.Join(tokens, "_OR_"))
	}
	return strings.Join(conjs, "_AND_")
}

func tokenFor(kind directory.FactorKind) string {
	for token, k := range factorTokens {
		if k == kind {
			return token
		}
	}
	return string(kind)
}
