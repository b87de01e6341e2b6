package compare

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topic-modeler/internal/table"
)

func TestDuplicates_Scenario(t *testing.T) {
	a := table.NewCommentTable([]string{"a", "b", "c"})
	b := table.NewCommentTable([]string{"b", "c", "d", "e"})

	pct, err := Duplicates(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, pct, 0.01)
}

func TestDuplicates_SelfComparison(t *testing.T) {
	a := table.NewCommentTable([]string{"x", "y", "x"})

	pct, err := Duplicates(a, a)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	empty := table.NewCommentTable(nil)
	pct, err = Duplicates(empty, empty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestDuplicates_DeduplicatesBeforeCounting(t *testing.T) {
	a := table.NewCommentTable([]string{"b", "b", "b", "c"})
	b := table.NewCommentTable([]string{"b", "d", "e", "f", "b"})

	pct, err := Duplicates(a, b)
	require.NoError(t, err)
	// overlap {b}, smaller = 2 distinct in a
	assert.Equal(t, 50.0, pct)
}

func TestDuplicates_DenominatorIsSmallerSet(t *testing.T) {
	small := table.NewCommentTable([]string{"a", "b"})
	large := table.NewCommentTable([]string{"a", "c", "d", "e"})

	ab, err := Duplicates(small, large)
	require.NoError(t, err)
	ba, err := Duplicates(large, small)
	require.NoError(t, err)

	assert.Equal(t, 50.0, ab)
	assert.Equal(t, 50.0, ba)

	// the same overlap against a larger smaller-set gives a different value
	mid := table.NewCommentTable([]string{"a", "x", "y"})
	pct, err := Duplicates(mid, large)
	require.NoError(t, err)
	assert.InDelta(t, 33.33, pct, 0.01)
}

func TestDuplicates_ExactMatchOnly(t *testing.T) {
	a := table.NewCommentTable([]string{"Good pay"})
	b := table.NewCommentTable([]string{"good pay", "Good pay "})

	pct, err := Duplicates(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestDuplicates_OneSideEmpty(t *testing.T) {
	pct, err := Duplicates(table.NewCommentTable(nil), table.NewCommentTable([]string{"a"}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestDuplicates_MissingColumn(t *testing.T) {
	a := table.NewCommentTable([]string{"a"})
	b := table.New("text")

	pct, err := Duplicates(a, b)
	assert.Equal(t, Failed, pct)

	var schemaErr *table.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, table.CommentColumn, schemaErr.Column)

	pct, _ = Duplicates(b, a)
	assert.Equal(t, Failed, pct)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(pathA, []byte("comment\na\nb\nc\n"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("comment,topics\nb,1\nc,2\nd,1\ne,3\n"), 0644))

	pct, err := Files(pathA, pathB)
	require.NoError(t, err)
	assert.Equal(t, "The percentage of duplicates is 66.67%.", Message(pct))
}

func TestFiles_MissingColumnAndFile(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(pathA, []byte("comment\na\n"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("text\na\n"), 0644))

	pct, err := Files(pathA, pathB)
	assert.Error(t, err)
	assert.Equal(t, Failed, pct)

	pct, err = Files(pathA, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
	assert.Equal(t, Failed, pct)
}
