package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// rowSource yields raw rows; Next returns io.EOF after the last row.
type rowSource interface {
	Next() ([]string, error)
	Close() error
}

// openSource picks a reader from the file extension: .xlsx goes through excelize,
// anything else is read as delimited text.
func (l *Loader) openSource(path string) (rowSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openWorkbook(path, l.sheet)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls", ErrUnknownFormat)
	default:
		return openDelimited(path, l.delimiter)
	}
}

type delimitedSource struct {
	f *os.File
	r *csv.Reader
}

func openDelimited(path string, delimiter rune) (*delimitedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	return &delimitedSource{f: f, r: r}, nil
}

func (s *delimitedSource) Next() ([]string, error) { return s.r.Read() }
func (s *delimitedSource) Close() error            { return s.f.Close() }

type workbookSource struct {
	f    *excelize.File
	rows *excelize.Rows
}

func openWorkbook(path, sheet string) (*workbookSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, ErrEmptySource
		}
		sheet = sheets[0]
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbookSource{f: f, rows: rows}, nil
}

func (s *workbookSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.rows.Columns()
}

func (s *workbookSource) Close() error {
	_ = s.rows.Close()
	return s.f.Close()
}
