package curriculum

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// FileType is an accepted upload format.
type FileType string

const (
	FileCSV  FileType = "csv"
	FileXLSX FileType = "xlsx"
	FileXLS  FileType = "xls"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMalformedFile       = errors.New("file could not be read")
)

// DetectFileType classifies filename by its extension.
func DetectFileType(filename string) (FileType, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "csv":
		return FileCSV, nil
	case "xlsx":
		return FileXLSX, nil
	case "xls":
		return FileXLS, nil
	default:
		return "", ErrUnsupportedFileType
	}
}

// ContentType is the MIME type stored with an archived upload.
func (t FileType) ContentType() string {
	switch t {
	case FileCSV:
		return "text/csv"
	case FileXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FileXLS:
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// ReadRows decodes data as ft and calls fn for every non-blank data row,
// in file order. The first row of the file (or first sheet) is the header.
func ReadRows(ft FileType, data []byte, fn func(RawRow) error) error {
	switch ft {
	case FileCSV:
		return readCSV(bytes.NewReader(data), fn)
	case FileXLSX:
		return readXLSX(bytes.NewReader(data), fn)
	case FileXLS:
		return readXLS(bytes.NewReader(data), fn)
	default:
		return ErrUnsupportedFileType
	}
}

// readCSV streams records one at a time.
func readCSV(r io.Reader, fn func(RawRow) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: csv header: %v", ErrMalformedFile, err)
	}
	idx := NewHeaderIndex(header)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: csv: %v", ErrMalformedFile, err)
		}
		if err := emit(idx, record, fn); err != nil {
			return err
		}
	}
}

// readXLSX loads the first sheet of an Office Open XML workbook.
func readXLSX(r io.Reader, fn func(RawRow) error) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("%w: xlsx: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("%w: xlsx sheet: %v", ErrMalformedFile, err)
	}
	return emitTable(rows, fn)
}

// readXLS loads the first sheet of a legacy BIFF workbook.
func readXLS(r io.ReadSeeker, fn func(RawRow) error) (err error) {
	// the BIFF decoder panics on some corrupt inputs
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: xls: %v", ErrMalformedFile, p)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return fmt.Errorf("%w: xls: %v", ErrMalformedFile, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return emitTable(rows, fn)
}

// xlsRow returns nil for rows the file never declared; the decoder itself
// dereferences them.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// emitTable treats the first non-empty row as the header.
func emitTable(rows [][]string, fn func(RawRow) error) error {
	start := 0
	for start < len(rows) && blankRecord(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil
	}

	idx := NewHeaderIndex(rows[start])
	for _, record := range rows[start+1:] {
		if err := emit(idx, record, fn); err != nil {
			return err
		}
	}
	return nil
}

func emit(idx HeaderIndex, record []string, fn func(RawRow) error) error {
	row := idx.Row(record)
	if row.Blank() {
		return nil
	}
	return fn(row)
}

func blankRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
