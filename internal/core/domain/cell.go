package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CellKind tags the value carried by a Cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single spreadsheet or delimited-text value. Spreadsheet sources
// produce numbers for date/time serials; delimited text always produces text.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
}

// Row is an ordered sequence of cells.
type Row []Cell

// Grid is an ordered sequence of rows, as decoded from one sheet.
type Grid []Row

// Sheet is a named grid taken from a workbook.
type Sheet struct {
	Name string
	Rows Grid
}

// TextCell builds a text cell. An empty string yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Num: n}
}

// IsNumber reports whether the cell carries a numeric value.
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// IsText reports whether the cell carries a text value.
func (c Cell) IsText() bool {
	return c.Kind == CellText
}

// Blank reports whether the cell has no usable value. Zero numbers count as
// blank, matching how spreadsheet exports leave unset numeric cells.
func (c Cell) Blank() bool {
	switch c.Kind {
	case CellText:
		return c.Text == ""
	case CellNumber:
		return c.Num == 0
	default:
		return true
	}
}

// String renders the cell as text. Numbers use the shortest exact form.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Lower is the lower-cased, trimmed text form used for header matching.
func (c Cell) Lower() string {
	return strings.ToLower(strings.TrimSpace(c.String()))
}

// MarshalJSON encodes the cell as a JSON string, number or null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Num)
	default:
		return []byte("null"), nil
	}
}

// TextRow converts plain strings into a row of text cells.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = TextCell(v)
	}
	return row
}

// At returns the cell at index i, or an empty cell when i is out of range.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Lower returns the lower-cased, trimmed text of every cell.
func (r Row) Lower() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Lower()
	}
	return out
}

// Empty reports whether the row has no cells at all.
func (r Row) Empty() bool {
	return len(r) == 0
}
