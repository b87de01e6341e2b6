// Package compare measures how many comments two comment tables share.
package compare

import (
	"fmt"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

// Failed is the percentage reported when the comparison could not run.
const Failed = -1.0

// Duplicates returns the share of distinct comments in the smaller table that
// also appear in the other, as a percentage. Comments are matched by exact,
// case-sensitive string equality.
//
// If either table lacks a comment column, Duplicates returns Failed together
// with the *table.SchemaError; callers report it rather than abort. The result
// is not symmetric in general because the denominator is the smaller
// deduplicated table. Two empty tables compare as 0.
func Duplicates(a, b *table.Table) (float64, error) {
	commentsA, err := a.Column(table.CommentColumn)
	if err != nil {
		logger.Errorf("Duplicates: first table: %v", err)
		return Failed, err
	}
	commentsB, err := b.Column(table.CommentColumn)
	if err != nil {
		logger.Errorf("Duplicates: second table: %v", err)
		return Failed, err
	}

	uniqueA := distinct(commentsA)
	uniqueB := distinct(commentsB)

	overlap := 0
	for c := range uniqueA {
		if _, ok := uniqueB[c]; ok {
			overlap++
		}
	}

	smaller := min(len(uniqueA), len(uniqueB))
	if smaller == 0 {
		return 0.0, nil
	}

	pct := float64(overlap) / float64(smaller) * 100
	logger.Debugf("Duplicates: uniqueA=%d uniqueB=%d overlap=%d pct=%.2f", len(uniqueA), len(uniqueB), overlap, pct)
	return pct, nil
}

// Files loads two comment tables and compares them. Load errors are returned
// with Failed, like schema errors.
func Files(pathA, pathB string) (float64, error) {
	a, err := table.Load(pathA)
	if err != nil {
		logger.Errorf("Files: %v", err)
		return Failed, err
	}
	b, err := table.Load(pathB)
	if err != nil {
		logger.Errorf("Files: %v", err)
		return Failed, err
	}

	pct, err := Duplicates(a, b)
	if err != nil {
		return Failed, fmt.Errorf("%s vs %s: %w", pathA, pathB, err)
	}
	logger.Printf("Files: %s vs %s: %.2f%% duplicates", pathA, pathB, pct)
	return pct, nil
}

// Message formats a result the way it is shown to the analyst.
func Message(pct float64) string {
	return fmt.Sprintf("The percentage of duplicates is %.2f%%.", pct)
}

func distinct(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
