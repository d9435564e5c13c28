package homder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvenSlices(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		want []span
	}{
		{name: "empty", n: 0, k: 4, want: nil},
		{name: "exact split", n: 6, k: 3, want: []span{{0, 2}, {2, 4}, {4, 6}}},
		{name: "remainder goes first", n: 7, k: 3, want: []span{{0, 3}, {3, 5}, {5, 7}}},
		{name: "more packs than items", n: 2, k: 5, want: []span{{0, 1}, {1, 2}}},
		{name: "non-positive packs", n: 3, k: 0, want: []span{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evenSlices(tt.n, tt.k))
		})
	}
}

func FuzzEvenSlices(f *testing.F) {
	f.Add(10, 3)
	f.Add(1, 1)
	f.Add(100, 7)
	f.Fuzz(func(t *testing.T, n, k int) {
		if n < 0 || n > 10000 || k > 10000 {
			return
		}
		spans := evenSlices(n, k)
		next := 0
		for _, s := range spans {
			assert.Equal(t, next, s.lo)
			assert.Greater(t, s.hi, s.lo)
			next = s.hi
		}
		assert.Equal(t, n, next)
	})
}
