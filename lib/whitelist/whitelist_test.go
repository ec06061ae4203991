package whitelist

import (
	"testing"
	"time"
)

func TestWhitelist_AddContains(t *testing.T) {
	w := New(time.Minute, time.Minute)
	if w.Contains(0x7C1234) {
		t.Fatal("expected empty whitelist to reject unknown ICAO")
	}
	w.Add(0x7C1234)
	if !w.Contains(0x7C1234) {
		t.Fatal("expected whitelist to contain added ICAO")
	}
	if w.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", w.Len())
	}
}

func TestWhitelist_Expiry(t *testing.T) {
	w := New(20*time.Millisecond, 10*time.Millisecond)
	w.Add(0x7C1234)
	if !w.Contains(0x7C1234) {
		t.Fatal("expected entry to be present immediately")
	}
	time.Sleep(80 * time.Millisecond)
	if w.Contains(0x7C1234) {
		t.Fatal("expected entry to have expired")
	}
}
