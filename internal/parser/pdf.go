// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// parsePDF extracts the text lines of every page using go-fitz (MuPDF).
// Each text line of the page layout becomes one paragraph.
func parsePDF(filePath string) (RawDocument, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("failed to read page %d: %w", i+1, err)}
		}
		textBuilder.WriteString(pageText)
		if !strings.HasSuffix(pageText, "\n") {
			textBuilder.WriteString("\n")
		}
	}

	return linesDocument(textBuilder.String()), nil
}
