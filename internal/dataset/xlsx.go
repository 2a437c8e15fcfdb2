package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool { return hasExt(path, ".xlsx", ".xlsm") }

func (xlsxLoader) Load(path string, opt Options) (*Dataset, error) {
	return LoadXLSX(path, opt)
}

// LoadXLSX reads one worksheet; the first non-empty row is the header.
func LoadXLSX(path string, opt Options) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
		}
		sheet = sheets[idx-1]
	}
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	start := 0
	for start < len(all) && blank(all[start]) {
		start++
	}
	name := filepath.Base(path) + "#" + sheet
	if start >= len(all) {
		return New(name, nil, nil), nil
	}
	header := all[start]
	var rows [][]string
	for _, rec := range all[start+1:] {
		if blank(rec) {
			continue
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rows = append(rows, rec)
	}
	return NewWithFormat(name, header, rows, opt.Number), nil
}
