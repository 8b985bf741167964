package isbn

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"9784780802047", true},
		{"9794780802047", true},
		{"1234567890123", false}, // Wrong prefix
		{"978478080204", false},  // Too short
		{"97847808020471", false},
		{"", false},
		{"978-4780802047", false}, // Hyphenated codes are 14 chars
		{"977000000000X", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.valid {
				if err != nil {
					t.Fatalf("Validate(%q) returned error: %v", tt.input, err)
				}
				if got != tt.input {
					t.Errorf("Validate(%q) = %q, expected the input back", tt.input, got)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate(%q) expected error, got none", tt.input)
			}
			var invalid *InvalidCodeError
			if !errors.As(err, &invalid) {
				t.Fatalf("Validate(%q) error type = %T, expected *InvalidCodeError", tt.input, err)
			}
			if invalid.Code != tt.input {
				t.Errorf("error carries code %q, expected %q", invalid.Code, tt.input)
			}
		})
	}
}
