package utils

import (
	"strings"
	"testing"
)

func TestFormatTraffic(t *testing.T) {
	ptr := func(v int64) *int64 { return &v }

	tests := []struct {
		in   *int64
		want string
	}{
		{nil, "N/A"},
		{ptr(0), "0.00 B"},
		{ptr(512), "512.00 B"},
		{ptr(1024), "1.00 KB"},
		{ptr(1024 * 1024), "1.00 MB"},
		{ptr(5 << 30), "5.00 GB"},
		{ptr(2 << 40), "2.00 TB"},
	}
	for _, tt := range tests {
		if got := FormatTraffic(tt.in); got != tt.want {
			t.Errorf("FormatTraffic(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTrafficMonotonicUnits(t *testing.T) {
	// Each power of 1024 must bump the unit label exactly once.
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := int64(1)
	for _, unit := range units {
		got := FormatTraffic(&v)
		if !strings.HasSuffix(got, " "+unit) {
			t.Errorf("FormatTraffic(%d) = %q, want unit %q", v, got, unit)
		}
		v *= 1024
	}
}

func TestTrackingCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := TrackingCode()
		if len(code) != 8 {
			t.Fatalf("tracking code %q has length %d, want 8", code, len(code))
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("tracking code %q is not uppercase", code)
		}
		if seen[code] {
			t.Fatalf("tracking code %q repeated within 100 draws", code)
		}
		seen[code] = true
	}
}

func TestPanelUsername(t *testing.T) {
	u := PanelUsername(123456)
	if !strings.HasPrefix(u, "user_123456_") {
		t.Errorf("PanelUsername = %q, want user_123456_ prefix", u)
	}
	if len(u) != len("user_123456_")+4 {
		t.Errorf("PanelUsername = %q, want 4-hex suffix", u)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{250000, "250,000"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGBToBytes(t *testing.T) {
	if got := GBToBytes(10); got != 10*1024*1024*1024 {
		t.Errorf("GBToBytes(10) = %d", got)
	}
}
