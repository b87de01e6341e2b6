package topics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topic-modeler/internal/table"
)

func labeledTable() *table.Table {
	tbl := table.New(table.CommentColumn, table.TopicsColumn)
	tbl.Append("r0", "1")
	tbl.Append("r1", "2")
	tbl.Append("r2", "3")
	tbl.Append("r3", "1")
	tbl.Append("r4", "2")
	return tbl
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("1, 3,7")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, ids)

	ids, err = ParseIDs(" -1 ,3,3, 1")
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 3, 1}, ids)
}

func TestParseIDs_RejectsWholeList(t *testing.T) {
	for _, in := range []string{"", "1,,2", "1, two, 3", "1.5", "1;2"} {
		ids, err := ParseIDs(in)
		assert.Nil(t, ids, "input %q", in)
		assert.True(t, errors.Is(err, ErrInvalidTopicList), "input %q", in)
	}
}

func TestSubset_Scenario(t *testing.T) {
	out, err := Subset(labeledTable(), []int{1, 3})
	require.NoError(t, err)

	assert.Equal(t, []string{table.CommentColumn}, out.Columns)
	assert.Equal(t, [][]string{{"r0"}, {"r2"}, {"r3"}}, out.Rows)
}

func TestSubset_KeepsOtherColumns(t *testing.T) {
	tbl := table.New("id", table.TopicsColumn, table.CommentColumn)
	tbl.Append("7", "0", "kept")
	tbl.Append("8", "4", "dropped")

	out, err := Subset(tbl, []int{0})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", table.CommentColumn}, out.Columns)
	assert.Equal(t, [][]string{{"7", "kept"}}, out.Rows)
}

func TestSubset_NoMatches(t *testing.T) {
	out, err := Subset(labeledTable(), []int{42})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.False(t, out.HasColumn(table.TopicsColumn))
}

func TestSubset_MissingTopicsColumn(t *testing.T) {
	_, err := Subset(table.NewCommentTable([]string{"a"}), []int{1})

	var schemaErr *table.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, table.TopicsColumn, schemaErr.Column)
}

func TestSubset_NonIntegerTopic(t *testing.T) {
	tbl := table.New(table.CommentColumn, table.TopicsColumn)
	tbl.Append("a", "x")

	_, err := Subset(tbl, []int{1})
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subset.csv")

	require.NoError(t, Export(path, []int{1, 3}, labeledTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "comment\nr0\nr2\nr3\n", string(data))
}

func TestExport_MissingTopicsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subset.csv")

	err := Export(path, []int{1}, table.NewCommentTable([]string{"a"}))
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
