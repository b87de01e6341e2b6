// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/mnako/letters"
)

// parseEmail extracts a report that was mailed as the body of an EML message.
// The plain-text body is preferred; an HTML-only body is parsed like an HTML export.
func parseEmail(filePath string) (RawDocument, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: err}
	}
	defer file.Close()

	email, err := letters.ParseEmail(file)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("failed to parse EML file: %w", err)}
	}

	if email.Text != "" {
		return linesDocument(email.Text), nil
	}
	if email.HTML != "" {
		return readHTML(strings.NewReader(email.HTML), filePath)
	}
	return RawDocument{}, nil
}
