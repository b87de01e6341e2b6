package parser

import "strings"

// RawDocument is the ordered paragraph text of an input report.
type RawDocument struct {
	Paragraphs []string
}

// Text joins every paragraph with a trailing line break, in document order.
func (d RawDocument) Text() string {
	var b strings.Builder
	for _, p := range d.Paragraphs {
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

// linesDocument splits text into one paragraph per line.
func linesDocument(text string) RawDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return RawDocument{}
	}
	return RawDocument{Paragraphs: strings.Split(text, "\n")}
}
