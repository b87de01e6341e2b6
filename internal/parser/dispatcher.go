// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

var supportedExtensions = []string{".docx", ".pdf", ".txt", ".md", ".xlsx", ".html", ".htm", ".eml"}

// ExtractFile routes a report to the extractor for its extension
func ExtractFile(filePath string) (RawDocument, error) {
	if _, err := os.Stat(filePath); err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(filePath))

	var doc RawDocument
	var err error

	switch ext {
	case ".docx":
		doc, err = ExtractDOCX(filePath)
	case ".pdf":
		doc, err = parsePDF(filePath)
	case ".txt", ".md":
		doc, err = parseText(filePath)
	case ".xlsx":
		doc, err = parseExcel(filePath)
	case ".html", ".htm":
		doc, err = parseHTML(filePath)
	case ".eml":
		doc, err = parseEmail(filePath)
	default:
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("unsupported file type: %s", ext)}
	}

	if err != nil {
		return RawDocument{}, err
	}

	logger.Printf("ExtractFile: %s: %d paragraphs", filePath, len(doc.Paragraphs))
	return doc, nil
}

// ConvertFile extracts the comments of a report and saves them as a comment
// table at outputPath (CSV or XLSX by extension).
func ConvertFile(inputPath, outputPath string) (*table.Table, error) {
	doc, err := ExtractFile(inputPath)
	if err != nil {
		return nil, err
	}

	comments, err := ParseComments(doc.Text())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputPath, err)
	}

	if err := table.Save(outputPath, comments); err != nil {
		return nil, err
	}

	logger.Printf("ConvertFile: %s -> %s (%d comments)", inputPath, outputPath, comments.Len())
	return comments, nil
}

// IsSupportedFile checks if a file extension is supported
func IsSupportedFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// IsTemporaryFile checks if a file is a temporary file (e.g., ~$doc.docx)
func IsTemporaryFile(filePath string) bool {
	base := filepath.Base(filePath)
	if strings.HasPrefix(base, "~$") {
		return true
	}
	if strings.HasPrefix(base, "._") {
		return true
	}
	if strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
