package accesspoint

import (
	"errors"
	"testing"

	"github.com/ostiary/ostiary-core/internal/directory"
)

func presented(kinds ...directory.FactorKind) map[directory.FactorKind]bool {
	m := make(map[directory.FactorKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

func TestParseAuthMode_Satisfied(t *testing.T) {
	tests := []struct {
		mode      string
		presented []directory.FactorKind
		want      bool
	}{
		{"CARD", []directory.FactorKind{directory.FactorCard}, true},
		{"CARD", []directory.FactorKind{directory.FactorPIN}, false},
		{"CARD_AND_PIN", []directory.FactorKind{directory.FactorCard, directory.FactorPIN}, true},
		{"CARD_AND_PIN", []directory.FactorKind{directory.FactorCard}, false},
		{"CARD_OR_FACE", []directory.FactorKind{directory.FactorFace}, true},
		{"CARD_OR_FACE", []directory.FactorKind{directory.FactorCard}, true},
		{"CARD_OR_FACE", []directory.FactorKind{directory.FactorPIN}, false},
		// _AND_ binds looser than _OR_: (CARD or FACE) and PIN.
		{"CARD_OR_FACE_AND_PIN", []directory.FactorKind{directory.FactorFace, directory.FactorPIN}, true},
		{"CARD_OR_FACE_AND_PIN", []directory.FactorKind{directory.FactorCard}, false},
		{"FINGERPRINT_AND_PIN", []directory.FactorKind{directory.FactorFingerprint, directory.FactorPIN}, true},
		// Extra presented factors never hurt.
		{"CARD", []directory.FactorKind{directory.FactorCard, directory.FactorFace}, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			expr, err := ParseAuthMode(tt.mode)
			if err != nil {
				t.Fatalf("ParseAuthMode(%q) error = %v", tt.mode, err)
			}
			if got := expr.Satisfied(presented(tt.presented...)); got != tt.want {
				t.Errorf("Satisfied(%v) = %v, want %v", tt.presented, got, tt.want)
			}
		})
	}
}

func TestParseAuthMode_Invalid(t *testing.T) {
	for _, mode := range []string{"", "  ", "RETINA", "CARD_AND_", "CARD_AND_LASER", "card"} {
		_, err := ParseAuthMode(mode)
		if !errors.Is(err, ErrInvalidAuthMode) {
			t.Errorf("ParseAuthMode(%q) error = %v, want ErrInvalidAuthMode", mode, err)
		}
	}
}

func TestAuthExpr_Factors(t *testing.T) {
	expr, err := ParseAuthMode("CARD_OR_FACE_AND_CARD_OR_PIN")
	if err != nil {
		t.Fatalf("ParseAuthMode() error = %v", err)
	}

	factors := expr.Factors()
	if len(factors) != 3 {
		t.Errorf("Factors() = %v, want 3 distinct kinds", factors)
	}
}

func TestAuthExpr_String(t *testing.T) {
	for _, mode := range []string{"CARD", "CARD_AND_PIN", "CARD_OR_FACE_AND_PIN"} {
		expr, err := ParseAuthMode(mode)
		if err != nil {
			t.Fatalf("ParseAuthMode(%q) error = %v", mode, err)
		}
		if got := expr.String(); got != mode {
			t.Errorf("String() = %q, want %q", got, mode)
		}
	}
}

func TestThresholdEvaluate(t *testing.T) {
	th := Threshold{MinAccess: 3, MinAntipassback: 2, MinArming: 5}

	tests := []struct {
		name   string
		levels directory.OperatorLevel
		want   ThresholdResult
	}{
		{
			"all met",
			directory.OperatorLevel{Access: 3, Antipassback: 2, Arming: 5},
			ThresholdResult{AccessMet: true, AntipassbackExempt: true, ArmingEligible: true},
		},
		{
			"all exceeded",
			directory.OperatorLevel{Access: 9, Antipassback: 9, Arming: 9},
			ThresholdResult{AccessMet: true, AntipassbackExempt: true, ArmingEligible: true},
		},
		{
			"access below",
			directory.OperatorLevel{Access: 2, Antipassback: 2, Arming: 5},
			ThresholdResult{AccessMet: false, AntipassbackExempt: true, ArmingEligible: true},
		},
		{
			"independent outputs",
			directory.OperatorLevel{Access: 3, Antipassback: 0, Arming: 0},
			ThresholdResult{AccessMet: true, AntipassbackExempt: false, ArmingEligible: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Evaluate(tt.levels); got != tt.want {
				t.Errorf("Evaluate(%+v) = %+v, want %+v", tt.levels, got, tt.want)
			}
		})
	}
}

func TestMovementVector(t *testing.T) {
	lobby := "area-lobby"
	lab := "area-lab"
	p := AccessPoint{FromAreaID: &lobby, ToAreaID: &lab}

	from, to := p.MovementVector(DirectionEntry)
	if *from != lobby || *to != lab {
		t.Errorf("entry vector = (%v, %v), want (lobby, lab)", *from, *to)
	}

	from, to = p.MovementVector(DirectionExit)
	if *from != lab || *to != lobby {
		t.Errorf("exit vector = (%v, %v), want (lab, lobby)", *from, *to)
	}
}
