// Package sequence holds the pure rules behind editing a class's lesson
// sequence: lesson-number ranges, reordering and merging.
package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned when a lesson-number range can't be expanded.
var ErrInvalidRange = errors.New("invalid lesson range")

// maxRange bounds a single bulk insert.
const maxRange = 500

// ParseRange expands a lesson-number range into the numbers it covers.
// Two forms are accepted: plain integers ("1".."10") and dotted numbers
// sharing a unit prefix ("3.1".."3.5", which yields 3.1, 3.2, ... 3.5).
func ParseRange(start, end string) ([]string, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	prefix := ""
	if strings.Contains(start, ".") || strings.Contains(end, ".") {
		sp, ss, ok1 := strings.Cut(start, ".")
		ep, es, ok2 := strings.Cut(end, ".")
		if !ok1 || !ok2 || sp != ep {
			return nil, fmt.Errorf("%w: %q and %q must share a unit prefix", ErrInvalidRange, start, end)
		}
		prefix = sp + "."
		start, end = ss, es
	}

	lo, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q is not a number", ErrInvalidRange, start)
	}
	hi, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q is not a number", ErrInvalidRange, end)
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: start %d is after end %d", ErrInvalidRange, lo, hi)
	}
	if hi-lo+1 > maxRange {
		return nil, fmt.Errorf("%w: more than %d lessons", ErrInvalidRange, maxRange)
	}

	numbers := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		numbers = append(numbers, prefix+strconv.Itoa(i))
	}
	return numbers, nil
}
