package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 7, 42},
		{"", 7, 7},
		{"abc", 7, 7},
		{"-3", 7, -3},
	}
	for _, tc := range tests {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Errorf("AtoiDefault(%q, %d) = %d, want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestAtoi32Default(t *testing.T) {
	tests := []struct {
		in   string
		def  int32
		want int32
	}{
		{"20", 10, 20},
		{"", 10, 10},
		{"x", 10, 10},
		{"2147483648", 10, 10}, // overflows int32
	}
	for _, tc := range tests {
		if got := Atoi32Default(tc.in, tc.def); got != tc.want {
			t.Errorf("Atoi32Default(%q, %d) = %d, want %d", tc.in, tc.def, got, tc.want)
		}
	}
}
