// Package workbook reads the symbol column of a spreadsheet and writes the
// date-stamped price and market cap columns back next to it.
package workbook

import (
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SymbolHeader is the header cell that marks the identifier column.
const SymbolHeader = "Symbol"

// CurrencyFormat is the simple USD currency number format applied to prices.
const CurrencyFormat = `"$"#,##0.00_-`

var (
	ErrFileNotFound  = errors.New("workbook file not found")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSchema        = errors.New(`no "Symbol" column in header row`)
)

// ColumnLabels returns the close and market cap headers for day.
func ColumnLabels(day time.Time) (closeLabel, capLabel string) {
	d := day.Format("2006-01-02")
	return d + "_Close", d + "_MarketCap(T)"
}

// open opens path and checks that sheet exists.
func open(path, sheet string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if !slices.Contains(f.GetSheetList(), sheet) {
		f.Close()
		return nil, errors.Wrapf(ErrSheetNotFound, "%q in %s", sheet, path)
	}
	return f, nil
}

// symbolColumn returns the 1-based column of the "Symbol" header in rows.
func symbolColumn(rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, ErrSchema
	}
	for i, v := range rows[0] {
		if v == SymbolHeader {
			return i + 1, nil
		}
	}
	return 0, ErrSchema
}

// cell returns the value at the 1-based col of row, or "".
func cell(row []string, col int) string {
	if col-1 < len(row) {
		return row[col-1]
	}
	return ""
}

// ReadSymbols returns the non-blank values of the "Symbol" column of sheet,
// in row order.
func ReadSymbols(path, sheet string) ([]string, error) {
	f, err := open(path, sheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", sheet)
	}

	col, err := symbolColumn(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "sheet %q", sheet)
	}

	var symbols []string
	for _, row := range rows[1:] {
		if s := strings.TrimSpace(cell(row, col)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}
