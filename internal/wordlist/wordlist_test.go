package wordlist

import (
	"strings"
	"testing"
)

func TestSRVLabels_NonEmpty(t *testing.T) {
	labels := SRVLabels()
	if len(labels) < 20 {
		t.Errorf("expected at least 20 labels, got %d", len(labels))
	}
}

func TestSRVLabels_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, l := range SRVLabels() {
		if seen[l] {
			t.Errorf("duplicate entry: %s", l)
		}
		seen[l] = true
	}
}

func TestSRVLabels_ValidLabels(t *testing.T) {
	for _, l := range SRVLabels() {
		if l == "" || strings.ContainsAny(l, " ._") || len(l) > 15 {
			t.Errorf("invalid service label %q", l)
		}
	}
}
