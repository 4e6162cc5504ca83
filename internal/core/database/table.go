package database

import (
	"context"

	"github.com/RichardKnop/rowstore/internal/core/rowstore"
)

type storeTable struct {
	*rowstore.Table
}

// NewTable exposes a rowstore table through the Table port.
func NewTable(aTable *rowstore.Table) Table {
	return storeTable{Table: aTable}
}

func (t storeTable) Select(ctx context.Context) (Rows, error) {
	aCursor, err := t.Table.Select(ctx)
	if err != nil {
		return nil, err
	}
	return aCursor, nil
}
