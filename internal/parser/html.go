// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists the elements treated as paragraphs in an HTML export.
const blockSelector = "p, li, h1, h2, h3, h4, h5, h6, td, th, pre"

// parseHTML extracts one paragraph per innermost block element of an HTML report
func parseHTML(filePath string) (RawDocument, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: err}
	}
	defer file.Close()

	return readHTML(file, filePath)
}

func readHTML(r io.Reader, name string) (RawDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: name, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	// Remove script, style, and noscript tags before extracting text
	doc.Find("script, style, noscript").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	var paragraphs []string
	doc.Find(blockSelector).Each(func(i int, s *goquery.Selection) {
		// outer blocks are represented by their inner ones
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		paragraphs = append(paragraphs, strings.TrimSpace(s.Text()))
	})

	return RawDocument{Paragraphs: paragraphs}, nil
}
