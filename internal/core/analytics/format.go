package analytics

import (
	"fmt"
	"math"
	"strconv"
)

// FormatDuration renders seconds as "Xm Ys", or "0s" for zero.
func FormatDuration(seconds float64) string {
	if seconds == 0 {
		return "0s"
	}
	m := math.Floor(seconds / 60)
	s := math.Mod(seconds, 60)
	return fmt.Sprintf("%dm %ss", int(m), strconv.FormatFloat(s, 'f', -1, 64))
}
