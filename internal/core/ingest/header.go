package ingest

import (
	"strings"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// HeaderScanDepth is how many leading rows are searched for a header row.
const HeaderScanDepth = 20

// HeaderMode selects the keyword rule used to recognise a header row.
type HeaderMode int

const (
	// HeaderCaseText accepts any row mentioning a case-log column.
	HeaderCaseText HeaderMode = iota
	// HeaderCaseGrid requires a reference column plus a date or category column.
	HeaderCaseGrid
	// HeaderOperations requires both an incoming-calls and an answered-calls column.
	HeaderOperations
)

var (
	caseMarkers      = []string{"reference", "date", "category"}
	incomingMarkers  = []string{"total incoming", "incoming calls"}
	answeredMarkers  = []string{"calls answered", "answered"}
	dateOrCategory   = []string{"date", "category"}
	referenceMarkers = []string{"reference"}
)

func (m HeaderMode) matches(rowText string) bool {
	switch m {
	case HeaderCaseText:
		return containsAny(rowText, caseMarkers)
	case HeaderCaseGrid:
		return containsAny(rowText, referenceMarkers) && containsAny(rowText, dateOrCategory)
	case HeaderOperations:
		return containsAny(rowText, incomingMarkers) && containsAny(rowText, answeredMarkers)
	default:
		return false
	}
}

// LocateHeader returns the index of the first row within depth rows whose
// joined, lower-cased text satisfies the mode's keyword rule.
func LocateHeader(rows [][]string, mode HeaderMode, depth int) (int, bool) {
	limit := min(depth, len(rows))
	for i := 0; i < limit; i++ {
		if mode.matches(strings.Join(rows[i], " ")) {
			return i, true
		}
	}
	return -1, false
}

// lowerGrid lower-cases every cell of the leading rows for header matching.
func lowerGrid(grid domain.Grid, depth int) [][]string {
	limit := min(depth, len(grid))
	out := make([][]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = grid[i].Lower()
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Columns is a header row prepared for fuzzy lookups.
type Columns []string

// NewColumns lower-cases and trims every header cell.
func NewColumns(header domain.Row) Columns {
	return Columns(header.Lower())
}

// Index returns the first column whose header contains candidate, or -1.
func (c Columns) Index(candidate string) int {
	candidate = strings.ToLower(candidate)
	for i, h := range c {
		if strings.Contains(h, candidate) {
			return i
		}
	}
	return -1
}

// Lookup resolves candidates in priority order and returns the first
// non-blank value found in row. A candidate whose column exists but holds a
// blank cell falls through to the next candidate.
func (c Columns) Lookup(row domain.Row, candidates ...string) domain.Cell {
	for _, candidate := range candidates {
		idx := c.Index(candidate)
		if idx < 0 {
			continue
		}
		if cell := row.At(idx); !cell.Blank() {
			return cell
		}
	}
	return domain.Cell{}
}
