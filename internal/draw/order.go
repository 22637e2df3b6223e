package draw

import (
	"fmt"
	"math/rand"
	"time"

	"codeberg.org/snonux/bingobg/internal/numbers"
)

// Order is a permutation of 1..numbers.Max
type Order []int

// Shuffler shuffles draw orders using seed-based random logic
type Shuffler struct {
	rng *rand.Rand
}

// NewShuffler creates a shuffler. A zero seed uses the current time.
func NewShuffler(seed int64) *Shuffler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Shuffler{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a fresh uniformly random order
func (s *Shuffler) Next() Order {
	return NewOrder(s.rng)
}

// NewOrder returns 1..numbers.Max shuffled in place with Fisher-Yates
func NewOrder(rng *rand.Rand) Order {
	order := make(Order, numbers.Max)
	for i := range order {
		order[i] = i + 1
	}

	for i := len(order) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	return order
}

// Drawn returns the numbers drawn so far: the prefix of the order up to and
// including cursor
func (o Order) Drawn(cursor int) []int {
	if cursor < 0 {
		return []int{}
	}
	if cursor >= len(o) {
		cursor = len(o) - 1
	}
	return append([]int(nil), o[:cursor+1]...)
}

// IsDrawn reports whether n is within the drawn prefix
func (o Order) IsDrawn(n, cursor int) bool {
	for i := 0; i <= cursor && i < len(o); i++ {
		if o[i] == n {
			return true
		}
	}
	return false
}

// Valid checks that the order contains each of 1..numbers.Max exactly once
func (o Order) Valid() error {
	if len(o) != numbers.Max {
		return fmt.Errorf("order has %d numbers, want %d", len(o), numbers.Max)
	}

	seen := make([]bool, numbers.Max+1)
	for i, n := range o {
		if n < 1 || n > numbers.Max {
			return fmt.Errorf("order[%d] = %d is out of range", i, n)
		}
		if seen[n] {
			return fmt.Errorf("order[%d] = %d is a duplicate", i, n)
		}
		seen[n] = true
	}

	return nil
}
