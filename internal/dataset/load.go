package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions controls file ingestion.
type LoadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
}

// Load reads a CSV/TSV/XLSX file into a Dataset, choosing the reader by extension.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opt)
}

// Read ingests r, using name's extension to pick the format.
func Read(r io.Reader, name string, opt LoadOptions) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		ds, err = ReadCSV(r, opt.Delimiter)
	case ".tsv":
		delim := opt.Delimiter
		if delim == 0 {
			delim = '\t'
		}
		ds, err = ReadCSV(r, delim)
	case ".xlsx", ".xlsm":
		ds, err = ReadXLSX(r, opt.SheetName)
	default:
		return nil, fmt.Errorf("%w: %q (use .csv, .tsv or .xlsx)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	ds.Name = name
	return ds, nil
}

// ReadCSV parses delimited text; the first record is the header row.
func ReadCSV(r io.Reader, delim rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if delim != 0 {
		cr.Comma = delim
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	var raw [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw)+1, err)
		}
		raw = append(raw, rec)
	}
	return fromGrid(header, raw)
}

// ReadXLSX parses one worksheet of an XLSX workbook.
func ReadXLSX(r io.Reader, sheetName string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}
	target := sheets[0]
	if sheetName != "" {
		target = ""
		for _, s := range sheets {
			if strings.EqualFold(s, sheetName) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", sheetName, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	return fromGrid(rows[0], rows[1:])
}

// fromGrid types raw text rows against a header row. Fully blank rows are skipped.
func fromGrid(header []string, raw [][]string) (*Dataset, error) {
	headers := normalizeHeaders(header)
	rows := make([]Record, 0, len(raw))
	for _, rec := range raw {
		row := make(Record, len(headers))
		blank := true
		for j, h := range headers {
			var v any
			if j < len(rec) {
				v = inferValue(rec[j])
			}
			if v != nil {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	return New(headers, rows), nil
}

// WriteCSV serializes ds with its header order; nil cells are written blank.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := make([]string, len(ds.Headers))
	for i, row := range ds.Rows {
		for j, h := range ds.Headers {
			line[j] = String(row[h])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
