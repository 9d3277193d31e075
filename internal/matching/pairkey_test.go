package matching

import "testing"

func TestPairKeySymmetric(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"u1", "u2"},
		{"2f6c7d0e", "1a9b8c7d"},
		{"same", "same"},
		{"", "x"},
	}
	for _, tc := range cases {
		ab := PairKey(tc.a, tc.b)
		ba := PairKey(tc.b, tc.a)
		if ab != ba {
			t.Fatalf("PairKey(%q,%q)=%q but PairKey(%q,%q)=%q", tc.a, tc.b, ab, tc.b, tc.a, ba)
		}
		// stable across repeated computation
		if again := PairKey(tc.a, tc.b); again != ab {
			t.Fatalf("PairKey not idempotent: %q vs %q", ab, again)
		}
	}
}

func TestPairKeyDistinctPairs(t *testing.T) {
	if PairKey("a", "b") == PairKey("a", "c") {
		t.Fatalf("different pairs must not collide")
	}
}
