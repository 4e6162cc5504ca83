package rowstore

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoMoreRows = errors.New("no more rows")

type Cursor struct {
	Table      *Table
	PageIdx    uint32
	CellIdx    uint32
	EndOfTable bool
}

func (c *Cursor) LeafNodeInsert(ctx context.Context, key uint32, value [RowSize]byte) error {
	aPage, err := c.Table.modifyPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("leaf node insert: %w", err)
	}
	if aPage.LeafNode == nil {
		return fmt.Errorf("error inserting row to a non leaf node, key %d", key)
	}

	if len(aPage.LeafNode.Cells) >= LeafNodeMaxCells {
		// Split leaf node
		if err := c.LeafNodeSplitInsert(ctx, key, value); err != nil {
			return fmt.Errorf("leaf node split insert: %w", err)
		}
		return nil
	}

	aPage.LeafNode.InsertCell(c.CellIdx, Cell{Key: key, Value: value})

	return nil
}

// Create a new node and move half the cells over.
// Insert the new value in one of the two nodes.
// Update parent or create a new parent.
func (c *Cursor) LeafNodeSplitInsert(ctx context.Context, key uint32, value [RowSize]byte) error {
	aSplitPage, err := c.Table.modifyPage(ctx, c.PageIdx)
	if err != nil {
		return err
	}

	originalMaxKey, err := c.Table.GetMaxKey(ctx, aSplitPage)
	if err != nil {
		return err
	}

	aNewPage, err := c.Table.allocatePage(ctx)
	if err != nil {
		return err
	}

	c.Table.logger.Sugar().With(
		"key", int(key),
		"page_index", int(aSplitPage.Index),
		"old_max_key", int(originalMaxKey),
		"new_page_index", int(aNewPage.Index),
	).Debug("leaf node split insert")

	aNewPage.LeafNode.Header.Parent = aSplitPage.LeafNode.Header.Parent
	aNewPage.LeafNode.Header.NextLeaf = aSplitPage.LeafNode.Header.NextLeaf
	aSplitPage.LeafNode.Header.NextLeaf = aNewPage.Index

	// All existing keys plus new key should be divided evenly between
	// old (left) and new (right) nodes
	allCells := make([]Cell, 0, LeafNodeMaxCells+1)
	allCells = append(allCells, aSplitPage.LeafNode.Cells[:c.CellIdx]...)
	allCells = append(allCells, Cell{Key: key, Value: value})
	allCells = append(allCells, aSplitPage.LeafNode.Cells[c.CellIdx:]...)

	aSplitPage.LeafNode.Cells = append(aSplitPage.LeafNode.Cells[:0], allCells[:LeafNodeLeftSplitCount]...)
	aSplitPage.LeafNode.Header.Cells = uint32(len(aSplitPage.LeafNode.Cells))
	aNewPage.LeafNode.Cells = append(aNewPage.LeafNode.Cells[:0], allCells[LeafNodeLeftSplitCount:]...)
	aNewPage.LeafNode.Header.Cells = uint32(len(aNewPage.LeafNode.Cells))

	if aSplitPage.LeafNode.Header.IsRoot {
		_, err := c.Table.CreateNewRoot(ctx, aNewPage.Index)
		return err
	}

	// Update parent to reflect new max key of the old (left) node,
	// then insert the new node which may split the parent
	parentPageIdx := aSplitPage.LeafNode.Header.Parent
	aParentPage, err := c.Table.modifyPage(ctx, parentPageIdx)
	if err != nil {
		return err
	}
	newMaxKey, err := c.Table.GetMaxKey(ctx, aSplitPage)
	if err != nil {
		return err
	}
	aParentPage.InternalNode.UpdateKey(originalMaxKey, newMaxKey)

	return c.Table.InternalNodeInsert(ctx, parentPageIdx, aNewPage.Index)
}

// FetchRow returns the row under the cursor and advances the cursor,
// following the sibling link when the current leaf is exhausted.
func (c *Cursor) FetchRow(ctx context.Context) (Row, error) {
	if c.EndOfTable {
		return Row{}, ErrNoMoreRows
	}

	aPage, err := c.Table.readPage(ctx, c.PageIdx)
	if err != nil {
		return Row{}, fmt.Errorf("fetch row: %w", err)
	}
	if aPage.LeafNode == nil {
		return Row{}, fmt.Errorf("fetch row: page %d is not a leaf node", c.PageIdx)
	}
	if c.CellIdx >= uint32(len(aPage.LeafNode.Cells)) {
		c.EndOfTable = true
		return Row{}, ErrNoMoreRows
	}

	var aRow Row
	UnmarshalRow(aPage.LeafNode.Cells[c.CellIdx].Value[:], &aRow)

	// There are still more cells in the page, move cursor to next cell and return
	if c.CellIdx < uint32(len(aPage.LeafNode.Cells))-1 {
		c.CellIdx += 1
		return aRow, nil
	}

	// If there is no leaf page to the right, set end of table flag and return
	if aPage.LeafNode.Header.NextLeaf == 0 {
		c.EndOfTable = true
		return aRow, nil
	}

	// Otherwise, we try to move the cursor to the next leaf page
	c.PageIdx = aPage.LeafNode.Header.NextLeaf
	c.CellIdx = 0

	return aRow, nil
}
