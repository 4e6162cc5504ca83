package database

import (
	"context"
	"io"

	"github.com/RichardKnop/rowstore/internal/core/rowstore"
)

type Rows interface {
	FetchRow(context.Context) (rowstore.Row, error)
}

type Table interface {
	Insert(context.Context, rowstore.Row) error
	Select(context.Context) (Rows, error)
	Describe(context.Context, io.Writer) error
}
