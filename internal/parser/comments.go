package parser

import (
	"regexp"
	"strings"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

const (
	// DistributionNotice is the footer line the export tool repeats between comments.
	DistributionNotice = "Restricted Information - Not for Further Distribution"
	// NoCommentPlaceholder replaces blank answers that the export rendered as "nan".
	NoCommentPlaceholder = "No comment"
)

var commentsMarker = regexp.MustCompile(`Comments: \(\d+\)`)

// ParseComments turns the raw text of a report into one comment per row.
//
// The section between the first "Comments: (N)" marker and the next one (or
// the end of the text) is split into lines.
// Empty lines and the distribution notice are dropped, a leading "<n>. "
// numbering prefix is removed, "nan" becomes NoCommentPlaceholder, and lines
// left empty are dropped.
//
// Prefix removal cuts at the first ". " of every line whether or not the text
// before it is a number, so "3.5 stars. Good" yields "Good". Reports produced
// by the export tool rely on this, so it is kept as is.
func ParseComments(rawText string) (*table.Table, error) {
	markers := commentsMarker.FindAllStringIndex(rawText, 2)
	if len(markers) == 0 {
		return nil, &FormatError{Err: ErrCommentsNotFound}
	}

	end := len(rawText)
	if len(markers) > 1 {
		end = markers[1][0]
	}
	data := strings.TrimSpace(rawText[markers[0][1]:end])
	lines := strings.Split(data, "\n")

	comments := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" || line == DistributionNotice {
			continue
		}
		comment := stripNumbering(line)
		if comment == "nan" {
			comment = NoCommentPlaceholder
		}
		if comment == "" {
			continue
		}
		comments = append(comments, comment)
	}

	logger.Printf("ParseComments: lines=%d comments=%d", len(lines), len(comments))
	return table.NewCommentTable(comments), nil
}

// stripNumbering keeps the text after the first ". " and trims it.
func stripNumbering(line string) string {
	if _, after, found := strings.Cut(line, ". "); found {
		line = after
	}
	return strings.TrimSpace(line)
}
