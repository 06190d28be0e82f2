package workbook

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/xuri/excelize/v2"
)

// Decoder reads OOXML workbooks with excelize. Cells keep their stored
// type: date and time cells come through as raw serial numbers.
type Decoder struct{}

var _ ports.WorkbookDecoder = (*Decoder)(nil)

// NewDecoder creates a workbook decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode returns every sheet of the workbook, in workbook order.
func (d *Decoder) Decode(ctx context.Context, content []byte) ([]domain.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDecodeFailed, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, apperrors.ErrNoSheets
	}

	sheets := make([]domain.Sheet, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", apperrors.ErrDecodeFailed, name, err)
		}
		sheets = append(sheets, domain.Sheet{Name: name, Rows: toGrid(f, name, rows)})
	}
	return sheets, nil
}

func toGrid(f *excelize.File, sheet string, rows [][]string) domain.Grid {
	grid := make(domain.Grid, len(rows))
	for r, values := range rows {
		row := make(domain.Row, len(values))
		for c, v := range values {
			row[c] = toCell(f, sheet, c+1, r+1, v)
		}
		grid[r] = row
	}
	return grid
}

// toCell keeps numeric-looking strings as text when the workbook stored
// them as strings, so identifiers like "007" survive.
func toCell(f *excelize.File, sheet string, col, row int, v string) domain.Cell {
	if v == "" {
		return domain.Cell{}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return domain.TextCell(v)
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return domain.NumberCell(n)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err == nil && (typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString) {
		return domain.TextCell(v)
	}
	return domain.NumberCell(n)
}
