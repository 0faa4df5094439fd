package etc

import "testing"

func TestNewFreshIDUnique(t *testing.T) {
	if NewFreshID() == NewFreshID() {
		t.Error("expected distinct IDs")
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3); got != "3 seconds" {
		t.Errorf("got %q", got)
	}
	if got := FormatDuration(75); got != "1m 15s" {
		t.Errorf("got %q", got)
	}
}
