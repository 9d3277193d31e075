package matching

// PairKey builds the canonical, order-independent identity of a user pair:
// the two ids sorted and joined. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
