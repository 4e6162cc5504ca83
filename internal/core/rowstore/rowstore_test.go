package rowstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var gen = newDataGen(uint64(time.Now().Unix()))

type dataGen struct {
	*gofakeit.Faker
}

func newDataGen(seed uint64) *dataGen {
	g := dataGen{
		Faker: gofakeit.New(seed),
	}

	return &g
}

func (g *dataGen) Row() Row {
	return Row{
		ID:       int32(g.IntRange(0, math.MaxInt32)),
		Username: truncate(g.Username(), UsernameSize),
		Email:    truncate(g.Email(), EmailSize),
	}
}

func (g *dataGen) Rows(number int) []Row {
	// Make sure all rows will have unique ID, this is important in some tests
	idMap := map[int32]struct{}{}
	rows := make([]Row, 0, number)
	for range number {
		aRow := g.Row()
		_, ok := idMap[aRow.ID]
		for ok {
			aRow = g.Row()
			_, ok = idMap[aRow.ID]
		}
		idMap[aRow.ID] = struct{}{}
		rows = append(rows, aRow)
	}
	return rows
}

// ShuffledKeys returns keys from 1 to number in random order.
func (g *dataGen) ShuffledKeys(number int) []int32 {
	keys := make([]int32, 0, number)
	for i := 1; i <= number; i++ {
		keys = append(keys, int32(i))
	}
	for i := len(keys) - 1; i > 0; i-- {
		j := g.IntRange(0, i)
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

func truncate(s string, size int) string {
	if len(s) > size {
		return s[:size]
	}
	return s
}

func testRow(id int32) Row {
	return Row{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Email:    fmt.Sprintf("person%d@example.com", id),
	}
}

func openTestDatabase(t *testing.T, file DBFile, opts Options) *Database {
	aDatabase, err := Open(context.Background(), zap.NewNop(), file, opts)
	require.NoError(t, err)
	return aDatabase
}

func newMemoryFile(t *testing.T) afero.File {
	aFile, err := NewMemoryFile()
	require.NoError(t, err)
	return aFile
}

func newTestDatabase(t *testing.T, opts Options) *Database {
	return openTestDatabase(t, newMemoryFile(t), opts)
}

func scanRows(t *testing.T, ctx context.Context, aTable *Table) []Row {
	aCursor, err := aTable.Select(ctx)
	require.NoError(t, err)

	var rows []Row
	for {
		aRow, err := aCursor.FetchRow(ctx)
		if errors.Is(err, ErrNoMoreRows) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, aRow)
	}
}

func scanKeys(t *testing.T, ctx context.Context, aTable *Table) []uint32 {
	rows := scanRows(t, ctx, aTable)
	keys := make([]uint32, 0, len(rows))
	for _, aRow := range rows {
		keys = append(keys, aRow.Key())
	}
	return keys
}

// visitPages returns page indexes of the tree in breadth first order.
func visitPages(t *testing.T, ctx context.Context, aTable *Table) []uint32 {
	var (
		visited []uint32
		queue   = []uint32{aTable.RootPageIdx}
	)
	for len(queue) > 0 {
		pageIdx := queue[0]
		queue = queue[1:]
		visited = append(visited, pageIdx)

		aPage, err := aTable.readPage(ctx, pageIdx)
		require.NoError(t, err)
		if aPage.InternalNode != nil {
			queue = append(queue, aPage.InternalNode.Children()...)
		}
	}
	return visited
}

// assertValidTree walks the whole tree checking that parent pointers match,
// that every separator key equals the max key of its subtree and that keys
// are ordered across subtrees.
func assertValidTree(t *testing.T, ctx context.Context, aTable *Table) {
	var walk func(pageIdx uint32, isRoot bool, lowerBound, upperBound *uint32)
	walk = func(pageIdx uint32, isRoot bool, lowerBound, upperBound *uint32) {
		aPage, err := aTable.readPage(ctx, pageIdx)
		require.NoError(t, err)
		assert.Equal(t, isRoot, aPage.IsRoot(), "page %d root flag", pageIdx)

		if aPage.LeafNode != nil {
			keys := aPage.LeafNode.Keys()
			assert.IsNonDecreasing(t, keys, "page %d keys", pageIdx)
			for _, key := range keys {
				if lowerBound != nil {
					assert.Greater(t, key, *lowerBound, "page %d", pageIdx)
				}
				if upperBound != nil {
					assert.LessOrEqual(t, key, *upperBound, "page %d", pageIdx)
				}
			}
			return
		}

		aNode := aPage.InternalNode
		require.NotEqual(t, uint32(RIGHT_CHILD_NOT_SET), aNode.Header.RightChild, "page %d", pageIdx)

		prev := lowerBound
		for _, aCell := range aNode.ICells {
			aChildPage, err := aTable.readPage(ctx, aCell.Child)
			require.NoError(t, err)
			assert.Equal(t, pageIdx, aChildPage.Parent(), "parent of page %d", aCell.Child)

			maxKey, err := aTable.GetMaxKey(ctx, aChildPage)
			require.NoError(t, err)
			assert.Equal(t, aCell.Key, maxKey, "key of child %d in page %d", aCell.Child, pageIdx)

			key := aCell.Key
			walk(aCell.Child, false, prev, &key)
			prev = &key
		}

		aRightPage, err := aTable.readPage(ctx, aNode.Header.RightChild)
		require.NoError(t, err)
		assert.Equal(t, pageIdx, aRightPage.Parent(), "parent of page %d", aNode.Header.RightChild)
		walk(aNode.Header.RightChild, false, prev, upperBound)
	}

	walk(aTable.RootPageIdx, true, nil, nil)
}
