package batch

import (
	"strings"
	"testing"
)

// assertEqual is a helper function to compare two values
func assertEqual[V comparable](t testing.TB, val V, expected V) {
	t.Helper()
	if val != expected {
		t.Errorf("expected %v, got %v", expected, val)
	}
}

func requireErr(t testing.TB, err error, msg ...string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error (%s)", strings.Join(msg, "- \n"))
	}
}
