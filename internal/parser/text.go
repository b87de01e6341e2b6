// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"os"
)

// parseText reads a plain text report (.txt, .md), one paragraph per line
func parseText(filePath string) (RawDocument, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: err}
	}
	return linesDocument(string(content)), nil
}
