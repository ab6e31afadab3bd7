package blob

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateID is returned when an identifier is used more than once
	ErrDuplicateID = errors.New("blob: duplicate identifier")

	// ErrTooFewIDs is returned when there are fewer identifiers than
	// required
	ErrTooFewIDs = errors.New("blob: not enough identifiers")

	// ErrMissingID is returned when the identifiers are not consecutive
	// from zero
	ErrMissingID = errors.New("blob: identifier missing")
)

// ValidateIDs checks that ids are distinct, there are at least minimum of them,
// and that once sorted they count up from zero with no gaps.
func ValidateIDs(ids []uint16, minimum int) error {
	sorted := append([]uint16(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, sorted[i])
		}
	}

	if len(sorted) < minimum {
		return fmt.Errorf("%w: need at least %d, have %d", ErrTooFewIDs, minimum, len(sorted))
	}

	for i, id := range sorted {
		if int(id) != i {
			return fmt.Errorf("%w: %d", ErrMissingID, i)
		}
	}

	return nil
}
