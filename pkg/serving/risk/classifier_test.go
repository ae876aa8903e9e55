package risk

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{-50, Low},
		{0, Low},
		{119.999, Low},
		{120, Medium},
		{150, Medium},
		{199.999, Medium},
		{200, High},
		{346, High},
		{math.Inf(1), High},
		{math.Inf(-1), Low},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	if got := Classify(120.0); got != Medium {
		t.Fatalf("120.0 should be MEDIUM, got %s", got)
	}
	if got := Classify(200.0); got != High {
		t.Fatalf("200.0 should be HIGH, got %s", got)
	}
	if got := Classify(math.Nextafter(120, 0)); got != Low {
		t.Fatalf("just below 120 should be LOW, got %s", got)
	}
	if got := Classify(math.Nextafter(200, 0)); got != Medium {
		t.Fatalf("just below 200 should be MEDIUM, got %s", got)
	}
}

func TestLevelValid(t *testing.T) {
	for _, l := range Levels() {
		if !l.Valid() {
			t.Fatalf("%s should be valid", l)
		}
	}
	if Level("CRITICAL").Valid() {
		t.Fatal("unknown level reported valid")
	}
}
