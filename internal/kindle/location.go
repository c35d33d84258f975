package kindle

import (
	"fmt"
	"strconv"
	"strings"
)

// LocationRange is a position or span in the device's internal pagination.
// A single position has End == Start.
type LocationRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsRange reports whether the location spans more than one position.
func (l LocationRange) IsRange() bool {
	return l.End != l.Start
}

func (l LocationRange) String() string {
	if l.IsRange() {
		return fmt.Sprintf("%d-%d", l.Start, l.End)
	}
	return strconv.Itoa(l.Start)
}

// ParseLocation parses "1411", "784-785" and the compressed form "631-32".
// In the compressed form the digits after the dash replace the low-order
// digits of the start: "1420-21" is 1420..1421, "631-32" is 631..632.
func ParseLocation(s string) (LocationRange, error) {
	s = strings.TrimSpace(s)
	head, tail, isRange := strings.Cut(s, "-")

	start, err := strconv.Atoi(head)
	if err != nil || start < 0 {
		return LocationRange{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	if !isRange {
		return LocationRange{Start: start, End: start}, nil
	}

	low, err := strconv.Atoi(tail)
	if err != nil || low < 0 {
		return LocationRange{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}

	end := low
	if digits := len(tail); digits < len(head) {
		scale := 1
		for i := 0; i < digits; i++ {
			scale *= 10
		}
		end = start/scale*scale + low
	}
	if end < start {
		return LocationRange{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidLocation, s)
	}

	return LocationRange{Start: start, End: end}, nil
}
