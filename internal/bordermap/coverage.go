package bordermap

import (
	"math/bits"
	"sync/atomic"
)

// coverage is a fixed-size bitset of marked pixels shared by all row workers.
//
// Height projection lets two rows land on the same pixel. Marking is an
// atomic OR, so concurrent writers never lose a mark.
type coverage struct {
	words []atomic.Uint64
	n     int
}

func newCoverage(n int) *coverage {
	return &coverage{
		words: make([]atomic.Uint64, (n+63)/64),
		n:     n,
	}
}

func (c *coverage) mark(i int) {
	c.words[i>>6].Or(1 << (uint(i) & 63))
}

func (c *coverage) marked(i int) bool {
	return c.words[i>>6].Load()&(1<<(uint(i)&63)) != 0
}

// each calls fn for every marked index in ascending order.
// It must only run after all writers have finished.
func (c *coverage) each(fn func(i int)) {
	for w := range c.words {
		word := c.words[w].Load()
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			fn(w<<6 | bit)
			word &= word - 1
		}
	}
}

func (c *coverage) count() int {
	total := 0
	for w := range c.words {
		total += bits.OnesCount64(c.words[w].Load())
	}
	return total
}
