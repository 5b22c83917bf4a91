package barcode

import (
	"testing"
	"time"
)

func feedString(t *testing.T, d *Decoder, start time.Time, code string, gap time.Duration) (string, bool) {
	t.Helper()
	at := start
	for _, r := range code {
		if got, done := d.Feed(string(r), at); done {
			t.Fatalf("unexpected completion mid-scan: %q", got)
		}
		at = at.Add(gap)
	}
	return d.Feed("Enter", at)
}

func TestDecodeRapidScan(t *testing.T) {
	d := NewDecoder()
	code, ok := feedString(t, d, time.Now(), "8991001", 10*time.Millisecond)
	if !ok {
		t.Fatalf("expected scan to complete")
	}
	if code != "8991001" {
		t.Fatalf("expected barcode 8991001, got %q", code)
	}
}

func TestSlowTypingIsDiscarded(t *testing.T) {
	d := NewDecoder()
	start := time.Now()
	// Keystrokes 300ms apart look like manual typing: each gap resets the
	// buffer, so only the final character survives until Enter.
	code, ok := feedString(t, d, start, "8991001", 300*time.Millisecond)
	if ok {
		t.Fatalf("expected slow typing to be discarded, got %q", code)
	}
}

func TestShortBufferRejected(t *testing.T) {
	d := NewDecoder()
	if code, ok := feedString(t, d, time.Now(), "42", 5*time.Millisecond); ok {
		t.Fatalf("expected code shorter than %d to be rejected, got %q", MinLength, code)
	}
}

func TestControlKeysIgnored(t *testing.T) {
	d := NewDecoder()
	at := time.Now()
	for _, key := range []string{"8", "Shift", "9", "Tab", "9"} {
		if _, done := d.Feed(key, at); done {
			t.Fatalf("unexpected completion")
		}
		at = at.Add(5 * time.Millisecond)
	}
	code, ok := d.Feed("Enter", at)
	if !ok || code != "899" {
		t.Fatalf("expected 899 with control keys ignored, got %q ok=%t", code, ok)
	}
}

func TestBufferResetsBetweenScans(t *testing.T) {
	d := NewDecoder()
	start := time.Now()
	if code, ok := feedString(t, d, start, "8991001", 5*time.Millisecond); !ok || code != "8991001" {
		t.Fatalf("first scan failed: %q ok=%t", code, ok)
	}
	if code, ok := feedString(t, d, start.Add(5*time.Second), "8994001", 5*time.Millisecond); !ok || code != "8994001" {
		t.Fatalf("second scan failed: %q ok=%t", code, ok)
	}
}
