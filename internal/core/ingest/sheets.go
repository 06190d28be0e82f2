package ingest

import (
	"encoding/json"
	"strings"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// sheetSampleRows is how many rows of each sheet are sampled when looking
// for case-log content.
const sheetSampleRows = 10

var caseSheetMarkers = []string{"reference", "ems-", "ambulance no", "case category", "call time"}

// SelectCaseSheet picks the first sheet whose leading rows look like a case
// log, or the first sheet when none does.
func SelectCaseSheet(sheets []domain.Sheet) (domain.Sheet, bool) {
	if len(sheets) == 0 {
		return domain.Sheet{}, false
	}
	for _, s := range sheets {
		n := min(sheetSampleRows, len(s.Rows))
		if containsAny(sheetText(s.Rows[:n]), caseSheetMarkers) {
			return s, true
		}
	}
	return sheets[0], true
}

// SelectOpsSheet picks the first sheet mentioning "total incoming" anywhere,
// or the first sheet when none does.
func SelectOpsSheet(sheets []domain.Sheet) (domain.Sheet, bool) {
	if len(sheets) == 0 {
		return domain.Sheet{}, false
	}
	for _, s := range sheets {
		if strings.Contains(sheetText(s.Rows), labelTotalIncoming) {
			return s, true
		}
	}
	return sheets[0], true
}

// DetectKind guesses which dataset a grid belongs to. Operations markers
// win because daily summaries often carry a "date" column too.
func DetectKind(grid domain.Grid) (domain.DatasetKind, bool) {
	probe := lowerGrid(grid, HeaderScanDepth)
	if _, ok := LocateHeader(probe, HeaderOperations, HeaderScanDepth); ok {
		return domain.KindOperations, true
	}
	text := sheetText(grid)
	if strings.Contains(text, labelTotalIncoming) {
		return domain.KindOperations, true
	}
	n := min(sheetSampleRows, len(grid))
	if containsAny(sheetText(grid[:n]), caseSheetMarkers) {
		return domain.KindCases, true
	}
	if _, ok := LocateHeader(probe, HeaderCaseGrid, HeaderScanDepth); ok {
		return domain.KindCases, true
	}
	return "", false
}

// DetectTextKind is DetectKind for delimited text.
func DetectTextKind(text string) (domain.DatasetKind, bool) {
	return DetectKind(TextSource(text).grid())
}

// sheetText flattens rows into lower-cased JSON so markers can be found in
// any cell, including ones that span punctuation.
func sheetText(rows domain.Grid) string {
	b, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(b))
}
