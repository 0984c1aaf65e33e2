package engine

import (
	"errors"
	"testing"

	"levelkit/core"
)

func TestFixedAmountBounds(t *testing.T) {
	tests := []struct {
		name  string
		value int
		ok    bool
	}{
		{"minimum", 1, true},
		{"maximum", 25, true},
		{"zero", 0, false},
		{"above maximum", 26, false},
		{"negative", -5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FixedAmount(tc.value)
			if tc.ok && err != nil {
				t.Fatalf("FixedAmount(%d): %v", tc.value, err)
			}
			if !tc.ok {
				var cfgErr *core.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("FixedAmount(%d) err = %v, want ConfigError", tc.value, err)
				}
			}
		})
	}
}

func TestRangeAmountBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		ok       bool
	}{
		{"full range", 1, 25, true},
		{"default range", 15, 25, true},
		{"descending", 25, 10, false},
		{"equal bounds", 10, 10, false},
		{"max above cap", 10, 26, false},
		{"min below floor", 0, 10, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RangeAmount(tc.min, tc.max)
			if tc.ok && err != nil {
				t.Fatalf("RangeAmount(%d, %d): %v", tc.min, tc.max, err)
			}
			if !tc.ok {
				var cfgErr *core.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("RangeAmount(%d, %d) err = %v, want ConfigError", tc.min, tc.max, err)
				}
			}
		})
	}
}
