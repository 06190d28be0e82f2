package ingest

import (
	"math"
	"strings"
	"unicode"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// Source is the input of the operations aggregator: raw delimited text or
// an already decoded sheet.
type Source interface {
	grid() domain.Grid
}

// TextSource is delimited operations text.
type TextSource string

// GridSource is a decoded operations sheet.
type GridSource domain.Grid

func (s TextSource) grid() domain.Grid {
	lines := strings.Split(normalizeText(string(s)), "\n")
	g := make(domain.Grid, len(lines))
	for i, line := range lines {
		g[i] = domain.TextRow(SplitDelimited(line, DefaultDelimiter)...)
	}
	return g
}

func (s GridSource) grid() domain.Grid {
	return domain.Grid(s)
}

var (
	incomingKeys    = []string{"totalincoming", "incomingcalls"}
	answeredKeys    = []string{"callsanswered", "answered"}
	operationalKeys = []string{"operationalvehicles", "onroad", "operational"}
)

const (
	labelTotalIncoming = "total incoming"
	labelTotalAnswered = "total calls answered"
)

// OpsParse is the outcome of aggregating one operations file.
type OpsParse struct {
	Summary domain.OpsSummary
	// HeaderRow is the index of the daily-totals header, or -1 when the
	// label fallback was used instead.
	HeaderRow int
	// Days counts the day rows that contributed to the totals.
	Days int
}

// ParseOperations aggregates an operations file into a summary.
func ParseOperations(src Source) domain.OpsSummary {
	return ScanOperations(src).Summary
}

// ScanOperations sums daily totals below the header row. Day rows where
// incoming, answered and operational are all zero are placeholders and are
// skipped. Without a header row it falls back to "label, value" pairs.
func ScanOperations(src Source) OpsParse {
	rows := src.grid()

	headerIdx, ok := LocateHeader(lowerGrid(rows, HeaderScanDepth), HeaderOperations, HeaderScanDepth)
	if !ok {
		return OpsParse{Summary: scanLabels(rows), HeaderRow: -1}
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, c := range rows[headerIdx] {
		headers[i] = normalizeHeader(c.String())
	}
	idxIncoming := indexOfAny(headers, incomingKeys)
	idxAnswered := indexOfAny(headers, answeredKeys)
	idxOperational := indexOfAny(headers, operationalKeys)

	var incoming, answered, operational float64
	days := 0
	for _, row := range rows[headerIdx+1:] {
		if row.Empty() {
			continue
		}
		inc := columnFloat(row, idxIncoming)
		ans := columnFloat(row, idxAnswered)
		op := columnFloat(row, idxOperational)
		if inc == 0 && ans == 0 && op == 0 {
			continue
		}
		incoming += inc
		answered += ans
		operational += op
		days++
	}

	return OpsParse{
		Summary: domain.OpsSummary{
			TotalCalls:     incoming,
			AnsweredCalls:  answered,
			OperationalAmb: meanPerDay(operational, days),
		},
		HeaderRow: headerIdx,
		Days:      days,
	}
}

func meanPerDay(total float64, days int) int {
	if days > 0 {
		return int(math.Round(total / float64(days)))
	}
	if total > 0 {
		return int(math.Round(total))
	}
	return 0
}

// scanLabels takes the cell after a "total incoming" or "total calls
// answered" label as the value. Later labels overwrite earlier ones.
func scanLabels(rows domain.Grid) domain.OpsSummary {
	var sum domain.OpsSummary
	for _, row := range rows {
		for i, c := range row {
			if !c.IsText() {
				continue
			}
			label := strings.ToLower(c.Text)
			if strings.Contains(label, labelTotalIncoming) {
				sum.TotalCalls = cellFloat(row.At(i + 1))
			}
			if strings.Contains(label, labelTotalAnswered) {
				sum.AnsweredCalls = cellFloat(row.At(i + 1))
			}
		}
	}
	return sum
}

func columnFloat(row domain.Row, idx int) float64 {
	if idx < 0 {
		return 0
	}
	return cellFloat(row.At(idx))
}

// normalizeHeader lower-cases s and drops everything but ASCII letters and digits.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func indexOfAny(headers []string, keys []string) int {
	for i, h := range headers {
		if containsAny(h, keys) {
			return i
		}
	}
	return -1
}
