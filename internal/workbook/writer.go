package workbook

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"sheetquote/models"
)

// WriteResults writes the day's close and market cap columns right of the
// "Symbol" column of sheet and saves the workbook over path.
//
// When the two columns after "Symbol" are free, or already hold the same
// day's headers, they are written in place. Otherwise two new columns are
// inserted so no existing data is overwritten.
func WriteResults(path, sheet string, day time.Time, prices models.PriceResults, caps models.MarketCapResults) (*models.WriteReport, error) {
	f, err := open(path, sheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", sheet)
	}

	symbolCol, err := symbolColumn(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "sheet %q", sheet)
	}

	closeLabel, capLabel := ColumnLabels(day)
	report := &models.WriteReport{
		SymbolColumn:    symbolCol,
		CloseColumn:     symbolCol + 1,
		MarketCapColumn: symbolCol + 2,
	}

	if !columnFree(rows, report.CloseColumn, closeLabel) || !columnFree(rows, report.MarketCapColumn, capLabel) {
		name, err := excelize.ColumnNumberToName(report.CloseColumn)
		if err != nil {
			return nil, err
		}
		if err := f.InsertCols(sheet, name, 2); err != nil {
			return nil, errors.Wrapf(err, "insert columns at %s", name)
		}
		report.Inserted = true
	}

	if err := setCell(f, sheet, report.CloseColumn, 1, closeLabel); err != nil {
		return nil, err
	}
	if err := setCell(f, sheet, report.MarketCapColumn, 1, capLabel); err != nil {
		return nil, err
	}

	format := CurrencyFormat
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, errors.Wrap(err, "currency style")
	}

	for r := 2; r <= len(rows); r++ {
		symbol := strings.TrimSpace(cell(rows[r-1], symbolCol))
		if symbol == "" {
			continue
		}

		price, hasPrice := prices[symbol]
		mcap, hasCap := caps[symbol]

		switch {
		case hasPrice:
			if err := setCell(f, sheet, report.CloseColumn, r, price); err != nil {
				return nil, err
			}
			ref, _ := excelize.CoordinatesToCellName(report.CloseColumn, r)
			if err := f.SetCellStyle(sheet, ref, ref, currency); err != nil {
				return nil, errors.Wrapf(err, "style %s", ref)
			}
		case !report.Inserted:
			// Same-day rerun: do not keep a stale value from the earlier run.
			if err := setCell(f, sheet, report.CloseColumn, r, nil); err != nil {
				return nil, err
			}
		}

		switch {
		case hasCap:
			if err := setCell(f, sheet, report.MarketCapColumn, r, mcap); err != nil {
				return nil, err
			}
		case !report.Inserted:
			if err := setCell(f, sheet, report.MarketCapColumn, r, nil); err != nil {
				return nil, err
			}
		}

		if hasPrice || hasCap {
			report.RowsWritten++
		}
	}

	if err := save(f, path); err != nil {
		return nil, err
	}
	return report, nil
}

// columnFree reports whether col can take a column headed label: its header
// is label already, or the column holds nothing at all.
func columnFree(rows [][]string, col int, label string) bool {
	if len(rows) > 0 && cell(rows[0], col) == label {
		return true
	}
	for _, row := range rows {
		if cell(row, col) != "" {
			return false
		}
	}
	return true
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, ref, value); err != nil {
		return errors.Wrapf(err, "set %s", ref)
	}
	return nil
}

// save writes f next to path and renames it over path, so a failed write
// leaves the original workbook untouched.
func save(f *excelize.File, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheetquote-*.xlsx")
	if err != nil {
		return errors.Wrap(err, "create temporary workbook")
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}
