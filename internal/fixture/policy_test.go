package fixture

import (
	"errors"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyDefault, false},
		{"default", PolicyDefault, false},
		{"Realistic", PolicyRealistic, false},
		{" registration ", PolicyRegistration, false},
		{"existing-email", PolicyExistingEmail, false},
		{"existing", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParsePolicy(%q) err = %v, want ErrInvalidArgument", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
