// Package topics selects and exports subsets of a topic-labeled table.
package topics

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/table"
)

// ErrInvalidTopicList is returned for a topic list that is empty or holds a
// token that is not an integer.
var ErrInvalidTopicList = errors.New("invalid topic list")

// ParseIDs parses a comma-separated list such as "1, 3,7". Tokens are
// trimmed; any token that is not an integer rejects the whole list.
// Repeated ids are kept once, in first-seen order.
func ParseIDs(s string) ([]int, error) {
	var ids []int
	for _, token := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidTopicList, strings.TrimSpace(token))
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Subset keeps the rows whose topic is in ids and drops the topics column.
// Row order and all other columns are preserved.
func Subset(labeled *table.Table, ids []int) (*table.Table, error) {
	idx, err := labeled.Require(table.TopicsColumn)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var badCell error
	filtered := labeled.Filter(func(row []string) bool {
		if idx >= len(row) {
			return false
		}
		topic, err := strconv.Atoi(strings.TrimSpace(row[idx]))
		if err != nil {
			if badCell == nil {
				badCell = fmt.Errorf("topics value %q is not an integer", row[idx])
			}
			return false
		}
		_, ok := wanted[topic]
		return ok
	})
	if badCell != nil {
		return nil, badCell
	}

	return filtered.DropColumn(table.TopicsColumn)
}

// Export writes the subset of labeled selected by ids to path. Nothing is
// written when labeled has no topics column.
func Export(path string, ids []int, labeled *table.Table) error {
	subset, err := Subset(labeled, ids)
	if err != nil {
		return err
	}

	if err := table.Save(path, subset); err != nil {
		return err
	}

	logger.Printf("Export: saved CSV subset for topics %v (%d of %d rows) to %s", ids, subset.Len(), labeled.Len(), path)
	return nil
}
