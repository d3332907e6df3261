package utils

import (
	"testing"

	"github.com/seenimoa/housingdash/pkg/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   models.Reading
		want string
	}{
		{"not available", models.NotAvailable, "N/A"},
		{"integer", models.Available(25), "25"},
		{"thousands", models.Available(1234.56), "1,234.6"},
		{"small", models.Available(6.72), "6.7"},
		{"zero is a value", models.Available(0), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
