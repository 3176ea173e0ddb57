package core

import (
	"fmt"
	"regexp"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidColor reports whether s is a strict "#RRGGBB" color string.
func IsValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// ValidatePlacement checks a pixel placement against the grid bounds and the
// color format. A non-nil result means the placement must be discarded without
// touching the grid.
func ValidatePlacement(x, y, size int, color string) *CoreError {
	if x < 0 || x >= size || y < 0 || y >= size {
		return coreError(ErrCodeOutOfBounds,
			fmt.Sprintf("coordinates (%d,%d) outside grid of size %d", x, y, size))
	}
	if !IsValidColor(color) {
		return coreError(ErrCodeBadColor,
			fmt.Sprintf("color %q is not a #RRGGBB string", color))
	}
	return nil
}
