package ingest

import (
	"strings"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// CaseParse is the outcome of parsing one case-log file.
type CaseParse struct {
	Records []domain.CaseRecord
	// HeaderRow is the index of the header row, or -1 when none was found.
	HeaderRow int
	// Dropped counts non-blank rows that were not cases.
	Dropped int
}

// ParseCasesFromText parses delimited case-log text into case records.
func ParseCasesFromText(text string) []domain.CaseRecord {
	return ScanCasesText(text).Records
}

// ParseCasesFromGrid parses a decoded spreadsheet sheet into case records.
func ParseCasesFromGrid(grid domain.Grid) []domain.CaseRecord {
	return ScanCasesGrid(grid).Records
}

// ScanCasesText parses delimited text. When no header row is recognised in
// the leading rows, the first line is used as the header.
func ScanCasesText(text string) CaseParse {
	lines := LogicalLines(text)

	probe := make([][]string, 0, HeaderScanDepth)
	for i := 0; i < len(lines) && i < HeaderScanDepth; i++ {
		probe = append(probe, domain.TextRow(SplitDelimited(lines[i], DefaultDelimiter)...).Lower())
	}
	headerIdx, ok := LocateHeader(probe, HeaderCaseText, HeaderScanDepth)
	if !ok {
		headerIdx = 0
	}

	out := CaseParse{Records: make([]domain.CaseRecord, 0), HeaderRow: headerIdx}
	cols := NewColumns(domain.TextRow(SplitDelimited(lines[headerIdx], DefaultDelimiter)...))

	for i := headerIdx + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		row := domain.TextRow(SplitDelimited(line, DefaultDelimiter)...)
		rec, ok := MapCase(cols, row, i)
		if !ok {
			out.Dropped++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// ScanCasesGrid parses a spreadsheet grid. Unlike text mode there is no
// fallback header: a sheet without a recognisable header yields no records.
func ScanCasesGrid(grid domain.Grid) CaseParse {
	out := CaseParse{Records: make([]domain.CaseRecord, 0), HeaderRow: -1}

	headerIdx, ok := LocateHeader(lowerGrid(grid, HeaderScanDepth), HeaderCaseGrid, HeaderScanDepth)
	if !ok {
		return out
	}
	out.HeaderRow = headerIdx
	cols := NewColumns(grid[headerIdx])

	for i := headerIdx + 1; i < len(grid); i++ {
		row := grid[i]
		if row.Empty() {
			continue
		}
		rec, ok := MapCase(cols, row, i)
		if !ok {
			out.Dropped++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}
