package directory

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePersonnel(t *testing.T) {
	tests := []struct {
		name    string
		p       Personnel
		wantErr error
	}{
		{"valid", Personnel{Name: "Alice", Levels: OperatorLevel{Access: 3}}, nil},
		{"empty name", Personnel{Name: "  "}, ErrInvalidName},
		{"long name", Personnel{Name: strings.Repeat("x", 101)}, ErrInvalidName},
		{"negative level", Personnel{Name: "Bob", Levels: OperatorLevel{Access: -1}}, ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePersonnel(&tt.p)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidatePersonnel() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePersonnel() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name    string
		c       Credential
		wantErr error
	}{
		{"valid", Credential{PersonnelID: "per-1", Kind: FactorCard, Identifier: "100", Status: StatusActive}, nil},
		{"no owner", Credential{Kind: FactorCard, Identifier: "100", Status: StatusActive}, ErrInvalidName},
		{"bad kind", Credential{PersonnelID: "per-1", Kind: "RETINA", Identifier: "100", Status: StatusActive}, ErrInvalidFactorKind},
		{"bad status", Credential{PersonnelID: "per-1", Kind: FactorCard, Identifier: "100", Status: "BROKEN"}, ErrInvalidStatus},
		{"empty identifier", Credential{PersonnelID: "per-1", Kind: FactorCard, Identifier: " ", Status: StatusActive}, ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredential(&tt.c)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateCredential() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCredential() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidFactorKind(t *testing.T) {
	for _, valid := range []string{"CARD", "PIN", "FACE", "FINGERPRINT"} {
		if !ValidFactorKind(valid) {
			t.Errorf("ValidFactorKind(%q) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "card", "RETINA"} {
		if ValidFactorKind(invalid) {
			t.Errorf("ValidFactorKind(%q) = true, want false", invalid)
		}
	}
}
