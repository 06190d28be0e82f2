package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

const (
	secondsPerDay = 86400

	// excelUnixEpochDays is the serial of 1970-01-01 in the spreadsheet
	// 1900 date system (day zero is 1899-12-30).
	excelUnixEpochDays = 25569

	// durationMinutesThreshold separates "mm:ss" style durations from
	// values already expressed in minutes. It is a heuristic: a genuine
	// duration longer than 30 minutes recorded in seconds is misread as minutes.
	durationMinutesThreshold = 1800
)

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// DurationSeconds converts a time-of-day or duration cell into seconds.
//
// Numbers below 1 are spreadsheet day fractions; other numbers are taken as
// seconds already. Text in H:M[:S] form is summed component-wise with
// missing or malformed components counting as zero. Anything else is 0.
func DurationSeconds(c domain.Cell) float64 {
	switch c.Kind {
	case domain.CellNumber:
		if c.Num < 1 {
			return math.Round(c.Num * secondsPerDay)
		}
		return c.Num
	case domain.CellText:
		parts := strings.Split(c.Text, ":")
		if len(parts) < 2 {
			return 0
		}
		h := parseIntPrefix(parts[0])
		m := parseIntPrefix(parts[1])
		var s int
		if len(parts) > 2 {
			s = parseIntPrefix(parts[2])
		}
		return float64(h*3600 + m*60 + s)
	default:
		return 0
	}
}

// DurationMinutesOrSeconds applies DurationSeconds and then reinterprets
// results above 30 minutes as a raw minute count.
func DurationMinutesOrSeconds(c domain.Cell) float64 {
	seconds := DurationSeconds(c)
	if seconds > durationMinutesThreshold {
		return math.Round(seconds / 60)
	}
	return seconds
}

// SerialToISODate converts a spreadsheet day serial into YYYY-MM-DD.
// A zero serial yields the empty string.
func SerialToISODate(serial float64) string {
	if serial == 0 {
		return ""
	}
	days := math.Floor(serial - excelUnixEpochDays)
	return time.Unix(int64(days)*secondsPerDay, 0).UTC().Format(time.DateOnly)
}

// parseIntPrefix reads the leading integer of s, ignoring surrounding
// whitespace and any trailing garbage. It returns 0 when there is none.
func parseIntPrefix(s string) int {
	m := leadingInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// parseFloatPrefix reads the leading decimal number of s. The boolean is
// false when s does not start with a number.
func parseFloatPrefix(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cellFloat reads a cell as a number, defaulting to 0.
func cellFloat(c domain.Cell) float64 {
	switch c.Kind {
	case domain.CellNumber:
		if math.IsNaN(c.Num) {
			return 0
		}
		return c.Num
	case domain.CellText:
		f, ok := parseFloatPrefix(c.Text)
		if !ok {
			return 0
		}
		return f
	default:
		return 0
	}
}
