package draw

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"codeberg.org/snonux/bingobg/internal/numbers"
)

func TestNewOrderIsPermutation(t *testing.T) {
	order := NewOrder(rand.New(rand.NewSource(1)))

	if err := order.Valid(); err != nil {
		t.Fatalf("Valid() error = %v", err)
	}

	sorted := append([]int(nil), order...)
	sort.Ints(sorted)
	for i, n := range sorted {
		if n != i+1 {
			t.Fatalf("sorted order[%d] = %d, want %d", i, n, i+1)
		}
	}
}

func TestNewOrderDiffers(t *testing.T) {
	s := NewShuffler(42)
	first := s.Next()
	second := s.Next()

	if reflect.DeepEqual(first, second) {
		t.Error("Expected two consecutive orders to differ")
	}
}

func TestShufflerDeterministic(t *testing.T) {
	a := NewShuffler(7).Next()
	b := NewShuffler(7).Next()

	if !reflect.DeepEqual(a, b) {
		t.Error("Expected equal seeds to produce equal orders")
	}
}

func TestShuffleUniformFirstPosition(t *testing.T) {
	// every number should appear first at least once over many shuffles
	rng := rand.New(rand.NewSource(99))
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		seen[NewOrder(rng)[0]] = true
	}
	if len(seen) != numbers.Max {
		t.Errorf("Expected all %d numbers in first position, saw %d", numbers.Max, len(seen))
	}
}

func TestDrawn(t *testing.T) {
	order := Order{5, 3, 9, 1}

	tests := []struct {
		name   string
		cursor int
		want   []int
	}{
		{"nothing drawn", -1, []int{}},
		{"first", 0, []int{5}},
		{"prefix", 2, []int{5, 3, 9}},
		{"clamped", 10, []int{5, 3, 9, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := order.Drawn(tt.cursor)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Drawn(%d) = %v, want %v", tt.cursor, got, tt.want)
			}
			if len(got) != min(tt.cursor+1, len(order)) && tt.cursor >= 0 {
				t.Errorf("Drawn(%d) has %d numbers", tt.cursor, len(got))
			}
		})
	}
}

func TestIsDrawn(t *testing.T) {
	order := Order{5, 3, 9, 1}

	if order.IsDrawn(5, -1) {
		t.Error("Expected nothing drawn for cursor -1")
	}
	if !order.IsDrawn(3, 1) {
		t.Error("Expected 3 to be drawn at cursor 1")
	}
	if order.IsDrawn(9, 1) {
		t.Error("Expected 9 not drawn at cursor 1")
	}
}

func TestValid(t *testing.T) {
	if err := (Order{1, 2, 3}).Valid(); err == nil {
		t.Error("Expected error for short order")
	}

	dup := NewOrder(rand.New(rand.NewSource(3)))
	dup[0] = dup[1]
	if err := dup.Valid(); err == nil {
		t.Error("Expected error for duplicate number")
	}
}
