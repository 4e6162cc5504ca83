package rowstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type DBFile interface {
	io.ReaderAt
	io.WriterAt
	io.Seeker
	io.Closer
}

type Pager struct {
	maxPages   uint32
	totalPages uint32 // total number of pages, including ones not flushed yet

	// pages is indexed by page index, nil entries are not loaded yet
	pages []*Page
	dirty []bool

	file     DBFile
	fileSize int64
	logger   *zap.Logger
}

// NewPager measures the database file and prepares an empty page cache
// sized to maxPages. Pages are loaded lazily by GetPage.
func NewPager(file DBFile, maxPages int, logger *zap.Logger) (*Pager, error) {
	if maxPages <= 0 {
		maxPages = MaxPages
	}

	aPager := &Pager{
		maxPages: uint32(maxPages),
		pages:    make([]*Page, maxPages),
		dirty:    make([]bool, maxPages),
		file:     file,
		logger:   logger,
	}

	fileSize, err := aPager.file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &IOError{Op: "seek", Err: err}
	}
	aPager.fileSize = fileSize

	// Basic check to verify file size is a multiple of page size (4096B)
	if fileSize%PageSize != 0 {
		return nil, fmt.Errorf("%w: file size is not divisible by page size: %d", ErrCorruptFile, fileSize)
	}

	totalPages := fileSize / PageSize
	if totalPages > int64(maxPages) {
		return nil, fmt.Errorf("%w: file has %d pages, limit is %d", ErrTableFull, totalPages, maxPages)
	}
	aPager.totalPages = uint32(totalPages)

	logger.Sugar().With(
		"file_size", fileSize,
		"total_pages", totalPages,
		"max_pages", maxPages,
	).Debug("pager opened")

	return aPager, nil
}

func (p *Pager) TotalPages() uint32 {
	return p.totalPages
}

func (p *Pager) MaxPages() uint32 {
	return p.maxPages
}

// UnusedPageIndex returns the index the next allocated page will get.
// Pages are never freed so this is simply the page count.
func (p *Pager) UnusedPageIndex() uint32 {
	return p.totalPages
}

// GetPage returns a cached page, loading it from the file on a cache miss.
// Requesting the page right after the last one yields a fresh empty leaf.
func (p *Pager) GetPage(ctx context.Context, pageIdx uint32) (*Page, error) {
	if pageIdx >= p.maxPages {
		return nil, fmt.Errorf("%w: page index %d reached limit of max pages %d", ErrTableFull, pageIdx, p.maxPages)
	}

	if aPage := p.pages[pageIdx]; aPage != nil {
		return aPage, nil
	}

	if pageIdx > p.totalPages {
		return nil, fmt.Errorf("cannot skip index when getting page, index: %d, number of pages: %d", pageIdx, p.totalPages)
	}

	// Page was never written to the file, start with an empty leaf
	if int64(pageIdx)*PageSize >= p.fileSize {
		aPage := &Page{Index: pageIdx, LeafNode: NewLeafNode()}
		p.pages[pageIdx] = aPage
		p.dirty[pageIdx] = true
		if pageIdx >= p.totalPages {
			p.totalPages = pageIdx + 1
		}
		return aPage, nil
	}

	buf := make([]byte, PageSize)
	if _, err := p.file.ReadAt(buf, int64(pageIdx)*PageSize); err != nil && !errors.Is(err, io.EOF) {
		return nil, &IOError{Op: "read", Page: pageIdx, Err: err}
	}

	aPage, err := unmarshalPage(pageIdx, buf)
	if err != nil {
		return nil, err
	}
	p.pages[pageIdx] = aPage

	return aPage, nil
}

// SavePage installs a page into the cache and marks it dirty.
func (p *Pager) SavePage(ctx context.Context, aPage *Page) error {
	if aPage.Index >= p.maxPages {
		return fmt.Errorf("%w: page index %d reached limit of max pages %d", ErrTableFull, aPage.Index, p.maxPages)
	}
	if aPage.Index > p.totalPages {
		return fmt.Errorf("cannot skip index when saving page, index: %d, number of pages: %d", aPage.Index, p.totalPages)
	}

	p.pages[aPage.Index] = aPage
	p.dirty[aPage.Index] = true
	if aPage.Index >= p.totalPages {
		p.totalPages = aPage.Index + 1
	}

	return nil
}

func (p *Pager) Flush(ctx context.Context, pageIdx uint32) error {
	aPage := p.pages[pageIdx]
	if aPage == nil || !p.dirty[pageIdx] {
		return nil
	}

	buf := make([]byte, PageSize)
	if _, err := marshalPage(aPage, buf); err != nil {
		return fmt.Errorf("error flushing page %d: %w", pageIdx, err)
	}

	offset := int64(pageIdx) * PageSize
	if _, err := p.file.WriteAt(buf, offset); err != nil {
		return &IOError{Op: "write", Page: pageIdx, Err: err}
	}
	if end := offset + PageSize; end > p.fileSize {
		p.fileSize = end
	}
	p.dirty[pageIdx] = false

	return nil
}

// FlushAll writes every dirty page back to the file. A failing page does not
// stop the remaining ones from being written.
func (p *Pager) FlushAll(ctx context.Context) error {
	var (
		err     error
		flushed int
	)
	for pageIdx := uint32(0); pageIdx < p.totalPages; pageIdx++ {
		if p.pages[pageIdx] == nil || !p.dirty[pageIdx] {
			continue
		}
		if flushErr := p.Flush(ctx, pageIdx); flushErr != nil {
			err = multierr.Append(err, flushErr)
			continue
		}
		flushed += 1
	}

	p.logger.Sugar().With(
		"flushed_pages", flushed,
		"total_pages", int(p.totalPages),
	).Debug("flush all")

	return err
}

// Close flushes the cache and closes the file, both always run.
func (p *Pager) Close(ctx context.Context) error {
	err := p.FlushAll(ctx)
	if closeErr := p.file.Close(); closeErr != nil {
		err = multierr.Append(err, &IOError{Op: "close", Err: closeErr})
	}
	return err
}
