package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "minutes", input: "15m", want: 15 * time.Minute},
		{name: "hours", input: "2h", want: 2 * time.Hour},
		{name: "days", input: "7d", want: 7 * 24 * time.Hour},
		{name: "fractional days", input: "1.5d", want: 36 * time.Hour},
		{name: "weeks", input: "1w", want: 7 * 24 * time.Hour},
		{name: "compound", input: "1h30m", want: 90 * time.Minute},
		{name: "bare seconds", input: "900", want: 15 * time.Minute},
		{name: "surrounding spaces", input: " 30s ", want: 30 * time.Second},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "bad days", input: "xd", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5m", wantErr: true},
		{name: "seconds overflow", input: "20000000000", wantErr: true},
		{name: "days overflow", input: "300000d", wantErr: true},
		{name: "weeks overflow", input: "1e300w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTTL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTTL(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTTL(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTTL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTTL_OutOfRange(t *testing.T) {
	for _, input := range []string{"20000000000", "300000d", "50000w"} {
		_, err := ParseTTL(input)
		if err == nil {
			t.Fatalf("ParseTTL(%q) expected error", input)
		}
		if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("ParseTTL(%q) error = %v, want out of range", input, err)
		}
	}
}
