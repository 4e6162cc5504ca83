package rowstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Database owns the pager and the single table stored in it.
type Database struct {
	pager  *Pager
	table  *Table
	logger *zap.Logger
}

type Options struct {
	MaxPages             int
	InternalNodeMaxCells int
}

// Open wraps the file in a pager and makes sure page 0 holds a root node,
// initialising an empty root leaf for a brand new file.
func Open(ctx context.Context, logger *zap.Logger, file DBFile, opts Options) (*Database, error) {
	aPager, err := NewPager(file, opts.MaxPages, logger)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	var tableOpts []TableOption
	if opts.InternalNodeMaxCells > 0 {
		tableOpts = append(tableOpts, WithInternalNodeMaxCells(opts.InternalNodeMaxCells))
	}
	aTable := NewTable(logger, aPager, tableOpts...)

	aRootPage, err := aPager.GetPage(ctx, aTable.RootPageIdx)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	aRootPage.setRoot(true)

	logger.Sugar().With(
		"total_pages", int(aPager.TotalPages()),
		"root_is_leaf", aRootPage.LeafNode != nil,
	).Debug("database opened")

	return &Database{
		pager:  aPager,
		table:  aTable,
		logger: logger,
	}, nil
}

func (d *Database) Table() *Table {
	return d.table
}

func (d *Database) Pager() *Pager {
	return d.pager
}

// Close flushes every dirty page and closes the backing file.
func (d *Database) Close(ctx context.Context) error {
	err := d.pager.Close(ctx)
	d.logger.Sugar().With(
		"total_pages", int(d.pager.TotalPages()),
	).Debug("database closed")
	return err
}
