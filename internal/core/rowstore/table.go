package rowstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Table is a B+tree of rows keyed by row ID. The root always lives on
// RootPageIdx, every other relation between nodes is a page index.
type Table struct {
	RootPageIdx uint32
	pager       *Pager
	maxICells   uint32
	logger      *zap.Logger
}

type TableOption func(*Table)

// WithInternalNodeMaxCells lowers the internal node fan-out, mostly useful
// to grow deep trees with few rows.
func WithInternalNodeMaxCells(maxICells int) TableOption {
	return func(t *Table) {
		if maxICells < InternalNodeMinMaxCells {
			maxICells = InternalNodeMinMaxCells
		}
		if maxICells > InternalNodeMaxCells {
			maxICells = InternalNodeMaxCells
		}
		t.maxICells = uint32(maxICells)
	}
}

func NewTable(logger *zap.Logger, aPager *Pager, opts ...TableOption) *Table {
	aTable := &Table{
		RootPageIdx: 0,
		pager:       aPager,
		maxICells:   InternalNodeMaxCells,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(aTable)
	}
	return aTable
}

func (t *Table) readPage(ctx context.Context, pageIdx uint32) (*Page, error) {
	if b := BatchFromContext(ctx); b != nil {
		return b.ReadPage(ctx, pageIdx)
	}
	return t.pager.GetPage(ctx, pageIdx)
}

func (t *Table) modifyPage(ctx context.Context, pageIdx uint32) (*Page, error) {
	b := BatchFromContext(ctx)
	if b == nil {
		return nil, fmt.Errorf("cannot modify page %d outside batch", pageIdx)
	}
	return b.ModifyPage(ctx, pageIdx)
}

func (t *Table) allocatePage(ctx context.Context) (*Page, error) {
	b := BatchFromContext(ctx)
	if b == nil {
		return nil, fmt.Errorf("cannot allocate page outside batch")
	}
	return b.AllocatePage(ctx)
}

// inBatch runs fn against a fresh batch and commits it only if fn succeeds.
func (t *Table) inBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	b := newBatch(t.pager)
	if err := fn(WithBatch(ctx, b)); err != nil {
		t.logger.Sugar().With(
			"touched_pages", b.Len(),
			"error", err,
		).Debug("batch discarded")
		b.Discard()
		return err
	}
	return b.Commit(ctx)
}

// Insert stores a row under its ID. The row is validated before the tree is
// touched, and a failed insert leaves the tree unchanged.
func (t *Table) Insert(ctx context.Context, aRow Row) error {
	var value [RowSize]byte
	if err := aRow.Marshal(value[:]); err != nil {
		return err
	}
	key := aRow.Key()

	return t.inBatch(ctx, func(ctx context.Context) error {
		aCursor, err := t.Seek(ctx, key)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}

		aPage, err := t.readPage(ctx, aCursor.PageIdx)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		if aCursor.CellIdx < uint32(len(aPage.LeafNode.Cells)) && aPage.LeafNode.Cells[aCursor.CellIdx].Key == key {
			return fmt.Errorf("%w: %d", ErrDuplicateKey, key)
		}

		return aCursor.LeafNodeInsert(ctx, key, value)
	})
}

// SeekFirst returns a cursor at the first cell of the leftmost leaf.
func (t *Table) SeekFirst(ctx context.Context) (*Cursor, error) {
	pageIdx := t.RootPageIdx
	for depth := 0; depth <= maxTreeDepth; depth++ {
		aPage, err := t.readPage(ctx, pageIdx)
		if err != nil {
			return nil, fmt.Errorf("seek first: %w", err)
		}

		if aPage.LeafNode != nil {
			return &Cursor{
				Table:      t,
				PageIdx:    pageIdx,
				CellIdx:    0,
				EndOfTable: len(aPage.LeafNode.Cells) == 0,
			}, nil
		}

		pageIdx, err = aPage.InternalNode.Child(0)
		if err != nil {
			return nil, fmt.Errorf("seek first: %w", err)
		}
	}
	return nil, fmt.Errorf("seek first: %w", ErrCorruptFile)
}

// Seek the cursor for a key, if it does not exist then return the cursor
// for the page and cell where it should be inserted
func (t *Table) Seek(ctx context.Context, key uint32) (*Cursor, error) {
	pageIdx := t.RootPageIdx
	for depth := 0; depth <= maxTreeDepth; depth++ {
		aPage, err := t.readPage(ctx, pageIdx)
		if err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}

		if aPage.LeafNode != nil {
			cellIdx, _ := aPage.LeafNode.Find(key)
			return &Cursor{
				Table:   t,
				PageIdx: pageIdx,
				CellIdx: cellIdx,
			}, nil
		}

		childIdx := aPage.InternalNode.IndexOfChild(key)
		pageIdx, err = aPage.InternalNode.Child(childIdx)
		if err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
	}
	return nil, fmt.Errorf("seek: %w", ErrCorruptFile)
}

// Select returns a cursor for a full ordered scan. Every call starts over
// from the leftmost leaf.
func (t *Table) Select(ctx context.Context) (*Cursor, error) {
	return t.SeekFirst(ctx)
}

// GetMaxKey returns the largest key stored in the subtree rooted at aPage.
func (t *Table) GetMaxKey(ctx context.Context, aPage *Page) (uint32, error) {
	for depth := 0; depth <= maxTreeDepth; depth++ {
		if aPage.LeafNode != nil {
			maxKey, ok := aPage.LeafNode.MaxKey()
			if !ok {
				return 0, fmt.Errorf("get max key: leaf node %d has no cells", aPage.Index)
			}
			return maxKey, nil
		}
		if aPage.InternalNode.Header.RightChild == RIGHT_CHILD_NOT_SET {
			return 0, fmt.Errorf("get max key: internal node %d has no right child", aPage.Index)
		}
		var err error
		aPage, err = t.readPage(ctx, aPage.InternalNode.Header.RightChild)
		if err != nil {
			return 0, fmt.Errorf("get max key: %w", err)
		}
	}
	return 0, fmt.Errorf("get max key: %w", ErrCorruptFile)
}

// Handle splitting the root.
// Old root copied to new page, becomes left child.
// Address of right child passed in.
// Re-initialize root page to contain the new root node.
// New root node points to two children.
func (t *Table) CreateNewRoot(ctx context.Context, rightChildPageIdx uint32) (*Page, error) {
	oldRootPage, err := t.modifyPage(ctx, t.RootPageIdx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	rightChildPage, err := t.modifyPage(ctx, rightChildPageIdx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	leftChildPage, err := t.allocatePage(ctx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}
	leftChildPageIdx := leftChildPage.Index

	t.logger.Sugar().With(
		"left_child_index", int(leftChildPageIdx),
		"right_child_index", int(rightChildPageIdx),
	).Debug("create new root")

	// Copy all node contents to left child
	if oldRootPage.LeafNode != nil {
		leftChildPage.LeafNode = oldRootPage.LeafNode.Clone()
		leftChildPage.InternalNode = nil
	} else {
		// New pages by default are leafs so we need to reset left child page
		// as an internal node here
		leftChildPage.LeafNode = nil
		leftChildPage.InternalNode = oldRootPage.InternalNode.Clone()
		// Update parent for all child pages
		for _, childPageIdx := range leftChildPage.InternalNode.Children() {
			aChildPage, err := t.modifyPage(ctx, childPageIdx)
			if err != nil {
				return nil, fmt.Errorf("create new root: %w", err)
			}
			aChildPage.setParent(leftChildPageIdx)
		}
	}
	leftChildPage.setRoot(false)

	leftChildMaxKey, err := t.GetMaxKey(ctx, leftChildPage)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	// Change root node to a new internal node
	newRootNode := NewInternalNode()
	newRootNode.Header.IsRoot = true
	newRootNode.Header.RightChild = rightChildPageIdx
	newRootNode.InsertCell(0, ICell{Child: leftChildPageIdx, Key: leftChildMaxKey})
	oldRootPage.LeafNode = nil
	oldRootPage.InternalNode = newRootNode

	// Set parent for both left and right child
	leftChildPage.setParent(t.RootPageIdx)
	rightChildPage.setParent(t.RootPageIdx)

	return leftChildPage, nil
}

// InternalNodeInsert adds a new child/key pair to parent that corresponds to child.
func (t *Table) InternalNodeInsert(ctx context.Context, parentPageIdx, childPageIdx uint32) error {
	return t.internalNodeInsert(ctx, parentPageIdx, childPageIdx, 0)
}

func (t *Table) internalNodeInsert(ctx context.Context, parentPageIdx, childPageIdx uint32, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: %d levels", ErrSplitDepthExceeded, depth)
	}

	aParentPage, err := t.modifyPage(ctx, parentPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}
	if aParentPage.InternalNode == nil {
		return fmt.Errorf("internal node insert: page %d is not an internal node", parentPageIdx)
	}
	parent := aParentPage.InternalNode

	if uint32(len(parent.ICells)) >= t.maxICells {
		return t.internalNodeSplitInsert(ctx, parentPageIdx, childPageIdx, depth)
	}

	aChildPage, err := t.modifyPage(ctx, childPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}
	aChildPage.setParent(parentPageIdx)

	// An internal node without a right child is empty
	if parent.Header.RightChild == RIGHT_CHILD_NOT_SET {
		parent.Header.RightChild = childPageIdx
		return nil
	}

	childMaxKey, err := t.GetMaxKey(ctx, aChildPage)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}

	rightChildPageIdx := parent.Header.RightChild
	rightChildPage, err := t.readPage(ctx, rightChildPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}
	rightChildMaxKey, err := t.GetMaxKey(ctx, rightChildPage)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}

	if childMaxKey > rightChildMaxKey {
		// Replace right child
		parent.InsertCell(uint32(len(parent.ICells)), ICell{Child: rightChildPageIdx, Key: rightChildMaxKey})
		parent.Header.RightChild = childPageIdx
		return nil
	}

	parent.InsertCell(parent.IndexOfChild(childMaxKey), ICell{Child: childPageIdx, Key: childMaxKey})

	return nil
}

// Splits internal node. First, create a sibling node and move the upper half
// of the children (including the right child) to it. Second, update the
// parent to reflect the original node's new max key. Then insert the
// sibling into the parent, which could cause the parent to be split as well.
// If the original node is root, create new root instead.
func (t *Table) internalNodeSplitInsert(ctx context.Context, pageIdx, childPageIdx uint32, depth int) error {
	oldPageIdx := pageIdx
	aOldPage, err := t.modifyPage(ctx, oldPageIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	oldMaxKey, err := t.GetMaxKey(ctx, aOldPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	aChildPage, err := t.readPage(ctx, childPageIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	childMaxKey, err := t.GetMaxKey(ctx, aChildPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	// Create a new page, it will be on the same level as original node and to the right of it
	aNewPage, err := t.allocatePage(ctx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	aNewPage.LeafNode = nil
	aNewPage.InternalNode = NewInternalNode()
	newPageIdx := aNewPage.Index

	splittingRoot := aOldPage.IsRoot()

	t.logger.Sugar().With(
		"page_index", int(pageIdx),
		"new_page_index", int(newPageIdx),
		"splitting_root", splittingRoot,
		"depth", depth,
	).Debug("internal node split insert")

	var parentPageIdx uint32
	if splittingRoot {
		// Old node now lives on the new root's left child, the new page
		// is already the new root's right child
		aOldPage, err = t.CreateNewRoot(ctx, newPageIdx)
		if err != nil {
			return fmt.Errorf("internal node split insert: %w", err)
		}
		oldPageIdx = aOldPage.Index
		parentPageIdx = t.RootPageIdx
	} else {
		parentPageIdx = aOldPage.Parent()
		aNewPage.InternalNode.Header.Parent = parentPageIdx
	}
	oldNode := aOldPage.InternalNode

	// First put right child into new node and set right child of old node to invalid page number
	if err := t.internalNodeInsert(ctx, newPageIdx, oldNode.Header.RightChild, depth); err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	oldNode.Header.RightChild = RIGHT_CHILD_NOT_SET

	// For each key until you get to the middle key, move the key and the child to the new node
	keysNum := len(oldNode.ICells)
	for i := keysNum - 1; i > keysNum/2; i-- {
		if err := t.internalNodeInsert(ctx, newPageIdx, oldNode.ICells[i].Child, depth); err != nil {
			return fmt.Errorf("internal node split insert: %w", err)
		}
		oldNode.ICells = oldNode.ICells[:i]
		oldNode.Header.KeysNum = uint32(len(oldNode.ICells))
	}

	// Set child before middle key, which is now the highest key, to be node's right child,
	// and decrement number of keys
	oldNode.RemoveLastCell()

	maxAfterSplit, err := t.GetMaxKey(ctx, aOldPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	// Determine which of the two nodes after the split should contain the child to be inserted,
	// and insert the child
	destinationPageIdx := newPageIdx
	if childMaxKey < maxAfterSplit {
		destinationPageIdx = oldPageIdx
	}
	if err := t.internalNodeInsert(ctx, destinationPageIdx, childPageIdx, depth); err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	aParentPage, err := t.modifyPage(ctx, parentPageIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	oldNewMaxKey, err := t.GetMaxKey(ctx, aOldPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	aParentPage.InternalNode.UpdateKey(oldMaxKey, oldNewMaxKey)

	if splittingRoot {
		return nil
	}

	return t.internalNodeInsert(ctx, parentPageIdx, newPageIdx, depth+1)
}
