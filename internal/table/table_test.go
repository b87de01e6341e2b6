package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommentTable(t *testing.T) {
	tbl := NewCommentTable([]string{"Great place to work.", "No comment"})

	assert.Equal(t, []string{CommentColumn}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())

	comments, err := tbl.Column(CommentColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"Great place to work.", "No comment"}, comments)
}

func TestColumn_MissingReturnsSchemaError(t *testing.T) {
	tbl := New("text")

	_, err := tbl.Column(CommentColumn)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, CommentColumn, schemaErr.Column)
}

func TestDropColumn(t *testing.T) {
	tbl := New("comment", "topics", "score")
	tbl.Append("a", "1", "0.5")
	tbl.Append("b", "2", "0.7")

	out, err := tbl.DropColumn(TopicsColumn)
	require.NoError(t, err)

	assert.Equal(t, []string{"comment", "score"}, out.Columns)
	assert.Equal(t, [][]string{{"a", "0.5"}, {"b", "0.7"}}, out.Rows)
	// input untouched
	assert.Equal(t, []string{"comment", "topics", "score"}, tbl.Columns)
	assert.Equal(t, "1", tbl.Rows[0][1])
}

func TestWithColumn(t *testing.T) {
	tbl := NewCommentTable([]string{"a", "b"})

	out, err := tbl.WithColumn(TopicsColumn, []string{"0", "1"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "0"}, {"b", "1"}}, out.Rows)
	assert.False(t, tbl.HasColumn(TopicsColumn))

	_, err = tbl.WithColumn(TopicsColumn, []string{"0"})
	assert.Error(t, err)
}

func TestFilter_PreservesOrderAndCopies(t *testing.T) {
	tbl := NewCommentTable([]string{"a", "b", "c", "d"})

	out := tbl.Filter(func(row []string) bool { return row[0] != "b" })
	out.Rows[0][0] = "changed"

	assert.Equal(t, 3, out.Len())
	assert.Equal(t, "c", out.Rows[1][0])
	assert.Equal(t, "a", tbl.Rows[0][0])
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffcomment,topics\n\"Hello, world\",1\nshort\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"comment", "topics"}, tbl.Columns)
	assert.Equal(t, [][]string{{"Hello, world", "1"}, {"short", ""}}, tbl.Rows)
}

func TestReadCSV_Empty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)
	assert.False(t, tbl.HasColumn(CommentColumn))
}

func TestReadCSV_TooManyFields(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("comment\na,b\n"))
	assert.Error(t, err)
}

func TestSaveLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.csv")
	tbl := NewCommentTable([]string{"first", "with \"quotes\", and comma"})

	require.NoError(t, Save(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "comment\n"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tbl, loaded)
}

func TestSaveLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subset.xlsx")
	tbl := New("comment", "source")
	tbl.Append("Great place to work.", "")
	tbl.Append("No comment", "survey")

	require.NoError(t, Save(path, tbl))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, loaded.Columns)
	assert.Equal(t, tbl.Rows, loaded.Rows)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "out.csv"), NewCommentTable([]string{"x"})))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestSave_MissingDirectoryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	err := Save(path, NewCommentTable([]string{"x"}))
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
