package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"local number gets country code", "9876543210", "+919876543210"},
		{"already E164", "+919876543210", "+919876543210"},
		{"whitespace trimmed", "  9876543210 ", "+919876543210"},
		{"formatted input collapses", "98765 43210", "+919876543210"},
		{"invalid number passes through", "12345", "12345"},
		{"garbage passes through", "not a number", "not a number"},
		{"empty stays empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
