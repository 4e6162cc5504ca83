package rowstore

import (
	"os"

	"github.com/spf13/afero"
)

const memoryFileName = "rowstore.db"

// NewMemoryFile returns a database file living in an in-memory filesystem,
// used when the database is opened without a file name.
func NewMemoryFile() (afero.File, error) {
	return afero.NewMemMapFs().OpenFile(memoryFileName, os.O_RDWR|os.O_CREATE, 0600)
}
