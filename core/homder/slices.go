package homder

// span is a half-open range [lo, hi) of consecutive-pair indices.
type span struct {
	lo, hi int
}

// evenSlices splits n items into at most k contiguous spans whose sizes differ by at most one.
// The first n%k spans get the extra item. Empty spans are never returned.
func evenSlices(n, k int) []span {
	if n <= 0 {
		return nil
	}
	if k <= 0 {
		k = 1
	}
	out := make([]span, 0, min(n, k))
	start := 0
	for pack := range k {
		size := n / k
		if pack < n%k {
			size++
		}
		if size == 0 {
			continue
		}
		out = append(out, span{lo: start, hi: start + size})
		start += size
	}
	return out
}
