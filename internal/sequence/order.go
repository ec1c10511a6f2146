package sequence

import "errors"

// ErrInvalidOrder is returned when a requested order isn't a permutation of
// the class's current lessons.
var ErrInvalidOrder = errors.New("order must list every lesson of the class exactly once")

// InsertAt splices ids into order at position. Out-of-range positions
// append to the end.
func InsertAt(order []int64, position int, ids ...int64) []int64 {
	if position < 0 || position > len(order) {
		position = len(order)
	}
	out := make([]int64, 0, len(order)+len(ids))
	out = append(out, order[:position]...)
	out = append(out, ids...)
	out = append(out, order[position:]...)
	return out
}

// Move swaps the lesson with its neighbor delta steps away (-1 up, +1 down).
// It reports false when the lesson is missing or already at that edge.
func Move(order []int64, id int64, delta int) ([]int64, bool) {
	idx := -1
	for i, v := range order {
		if v == id {
			idx = i
			break
		}
	}
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(order) {
		return order, false
	}

	out := append([]int64(nil), order...)
	out[idx], out[target] = out[target], out[idx]
	return out, true
}

// Remove drops ids from order, preserving the relative order of the rest.
func Remove(order []int64, ids ...int64) []int64 {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make([]int64, 0, len(order))
	for _, v := range order {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}

// CheckPermutation verifies that proposed contains exactly the ids in current.
func CheckPermutation(current, proposed []int64) error {
	if len(current) != len(proposed) {
		return ErrInvalidOrder
	}
	seen := make(map[int64]int, len(current))
	for _, id := range current {
		seen[id]++
	}
	for _, id := range proposed {
		if seen[id] == 0 {
			return ErrInvalidOrder
		}
		seen[id]--
	}
	return nil
}
