package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// ExtractDOCX reads the body paragraphs of a DOCX file in document order.
// Paragraphs nested in tables or text boxes are not body paragraphs and are skipped.
func ExtractDOCX(filePath string) (RawDocument, error) {
	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("failed to open DOCX file: %w", err)}
	}
	defer doc.Close()

	paragraphs, err := bodyParagraphs(doc.Editable().GetContent())
	if err != nil {
		return RawDocument{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("malformed document.xml: %w", err)}
	}

	return RawDocument{Paragraphs: paragraphs}, nil
}

// bodyParagraphs walks word/document.xml and returns the text of every w:p
// that is a direct child of w:body. Tabs and breaks inside runs become
// "\t" and "\n".
func bodyParagraphs(content string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		stack      []string
		current    strings.Builder
		inBody     bool // inside a top-level paragraph
		nested     int  // depth of paragraphs nested inside it
	)

	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "p":
				if parent() == "body" {
					inBody = true
					current.Reset()
				} else if inBody {
					nested++
				}
			case "tab":
				if inBody && nested == 0 && parent() == "r" {
					current.WriteString("\t")
				}
			case "br":
				// page and column breaks carry no text
				if inBody && nested == 0 && parent() == "r" && isLineBreak(t) {
					current.WriteString("\n")
				}
			case "cr":
				if inBody && nested == 0 && parent() == "r" {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inBody {
				if nested > 0 {
					nested--
				} else {
					paragraphs = append(paragraphs, current.String())
					inBody = false
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if inBody && nested == 0 && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

func isLineBreak(br xml.StartElement) bool {
	for _, attr := range br.Attr {
		if attr.Name.Local == "type" {
			return attr.Value == "textWrapping"
		}
	}
	return true
}
