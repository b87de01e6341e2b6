package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseExcel reads a report saved as a workbook. Every non-empty cell of every
// sheet becomes one paragraph, in sheet order then row-major order, so a
// sheet holding "Comments: (N)" in one cell followed by one comment per row
// reads like the document export.
func parseExcel(filePath string) (RawDocument, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("failed to open Excel file: %w", err)}
	}
	defer f.Close()

	var paragraphs []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("unable to read sheet %s: %w", sheetName, err)}
		}
		for _, row := range rows {
			for _, value := range row {
				if strings.TrimSpace(value) != "" {
					paragraphs = append(paragraphs, value)
				}
			}
		}
	}

	return RawDocument{Paragraphs: paragraphs}, nil
}
