package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/topic-modeler/internal/logger"
)

const utf8BOM = "\ufeff"

// Load reads a table from a .csv or .xlsx file. The first row is the header.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return LoadCSV(path)
	}
}

// Save persists t to path as CSV or XLSX depending on the extension.
// The destination is replaced atomically; a failed save leaves no partial file.
func Save(path string, t *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return SaveXLSX(path, t)
	default:
		return SaveCSV(path, t)
	}
}

// LoadCSV reads a header-first CSV file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", path, err)
	}
	logger.Debugf("LoadCSV: path=%s columns=%v rows=%d", path, t.Columns, t.Len())
	return t, nil
}

// ReadCSV decodes a header-first CSV stream. An empty stream yields a table
// with no columns.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := New(header...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(t.Columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields for %d columns", line, len(record), len(t.Columns))
		}
		t.Append(record...)
	}
	return t, nil
}

// WriteCSV encodes t with a header row and no index column.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes t to path through a temp file and rename.
func SaveCSV(path string, t *Table) error {
	err := WriteAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, t)
	})
	if err != nil {
		return fmt.Errorf("failed to save CSV file %s: %w", path, err)
	}
	logger.Printf("SaveCSV: path=%s rows=%d", path, t.Len())
	return nil
}

// LoadXLSX reads the first sheet of a workbook. Cells missing at the end of
// a row are read as empty strings.
func LoadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file: %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return New(), nil
	}

	t := New(rows[0]...)
	for _, row := range rows[1:] {
		t.Append(row...)
	}
	logger.Debugf("LoadXLSX: path=%s sheet=%s rows=%d", path, sheets[0], t.Len())
	return t, nil
}

// SaveXLSX writes t to a single-sheet workbook.
func SaveXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	write := func(rowNum int, values []string) error {
		cellRef, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cellRef, &row)
	}

	if err := write(1, t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	err := WriteAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return fmt.Errorf("failed to save Excel file %s: %w", path, err)
	}
	logger.Printf("SaveXLSX: path=%s rows=%d", path, t.Len())
	return nil
}

// writeAtomic runs write against a temp file next to path and renames it into place.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
