package parser

import (
	"strings"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

// SplitSentences explodes every comment into one row per period-delimited
// fragment. The split is a plain character split on ".", with no sentence
// detection. Fragments are trimmed and empty ones dropped; sentences of a
// comment stay contiguous and in their original order.
//
// The result has a single comment column; other columns of the input are not carried.
func SplitSentences(comments *table.Table) (*table.Table, error) {
	values, err := comments.Column(table.CommentColumn)
	if err != nil {
		return nil, err
	}

	var sentences []string
	for _, comment := range values {
		sentences = append(sentences, splitSentence(comment)...)
	}

	logger.Printf("SplitSentences: comments=%d sentences=%d", len(values), len(sentences))
	return table.NewCommentTable(sentences), nil
}

func splitSentence(comment string) []string {
	var out []string
	for _, fragment := range strings.Split(comment, ".") {
		if fragment == "" || fragment == " " {
			continue
		}
		if s := strings.TrimSpace(fragment); s != "" {
			out = append(out, s)
		}
	}
	return out
}
