package rowstore

import (
	"context"
	"fmt"
	"slices"
)

// Batch collects copies of every page touched by a single insert. Nothing
// reaches the pager until Commit, so an insert that fails halfway through a
// split leaves the cached tree exactly as it was.
type Batch struct {
	pager     *Pager
	writeSet  map[uint32]*Page
	allocated uint32 // pages handed out past the pager's page count
}

func newBatch(aPager *Pager) *Batch {
	return &Batch{
		pager:    aPager,
		writeSet: make(map[uint32]*Page),
	}
}

type batchKeyType struct{}

var batchKey = batchKeyType{}

func WithBatch(ctx context.Context, b *Batch) context.Context {
	return context.WithValue(ctx, batchKey, b)
}

func BatchFromContext(ctx context.Context) *Batch {
	if b, ok := ctx.Value(batchKey).(*Batch); ok {
		return b
	}
	return nil
}

// ReadPage returns the batch copy of a page if it was modified, otherwise
// the page as cached by the pager.
func (b *Batch) ReadPage(ctx context.Context, pageIdx uint32) (*Page, error) {
	if modifiedPage, ok := b.writeSet[pageIdx]; ok {
		return modifiedPage, nil
	}
	return b.pager.GetPage(ctx, pageIdx)
}

// ModifyPage returns a private copy of a page, cloning it on first access.
func (b *Batch) ModifyPage(ctx context.Context, pageIdx uint32) (*Page, error) {
	if modifiedPage, ok := b.writeSet[pageIdx]; ok {
		return modifiedPage, nil
	}

	originalPage, err := b.pager.GetPage(ctx, pageIdx)
	if err != nil {
		return nil, err
	}

	modifiedPage := originalPage.Clone()
	b.writeSet[pageIdx] = modifiedPage

	return modifiedPage, nil
}

// AllocatePage hands out the next unused page index. The new page is an
// empty leaf until the caller turns it into something else.
func (b *Batch) AllocatePage(ctx context.Context) (*Page, error) {
	pageIdx := b.pager.UnusedPageIndex() + b.allocated
	if pageIdx >= b.pager.MaxPages() {
		return nil, fmt.Errorf("%w: page index %d reached limit of max pages %d", ErrTableFull, pageIdx, b.pager.MaxPages())
	}

	aPage := &Page{Index: pageIdx, LeafNode: NewLeafNode()}
	b.writeSet[pageIdx] = aPage
	b.allocated += 1

	return aPage, nil
}

// Commit saves all modified pages into the pager, lowest index first so new
// pages extend the page count without gaps.
func (b *Batch) Commit(ctx context.Context) error {
	indexes := make([]uint32, 0, len(b.writeSet))
	for pageIdx := range b.writeSet {
		indexes = append(indexes, pageIdx)
	}
	slices.Sort(indexes)

	for _, pageIdx := range indexes {
		if err := b.pager.SavePage(ctx, b.writeSet[pageIdx]); err != nil {
			return fmt.Errorf("commit page %d: %w", pageIdx, err)
		}
	}

	b.Discard()

	return nil
}

func (b *Batch) Discard() {
	b.writeSet = make(map[uint32]*Page)
	b.allocated = 0
}

func (b *Batch) Len() int {
	return len(b.writeSet)
}
