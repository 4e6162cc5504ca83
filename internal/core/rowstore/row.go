package rowstore

import (
	"bytes"
	"fmt"
)

// Row is the single record type of the table.
type Row struct {
	ID       int32
	Username string
	Email    string
}

func (r Row) Key() uint32 {
	return uint32(r.ID)
}

func (r Row) Validate() error {
	if r.ID < 0 {
		return ErrNegativeID
	}
	if len(r.Username) > UsernameSize {
		return fmt.Errorf("%w: username has %d bytes, limit is %d", ErrStringTooLong, len(r.Username), UsernameSize)
	}
	if len(r.Email) > EmailSize {
		return fmt.Errorf("%w: email has %d bytes, limit is %d", ErrStringTooLong, len(r.Email), EmailSize)
	}
	return nil
}

// Marshal encodes the row into the first RowSize bytes of buf. Text columns
// are NUL padded and are not NUL terminated when they use the full width.
func (r Row) Marshal(buf []byte) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if len(buf) < RowSize {
		return fmt.Errorf("row buffer too small: %d", len(buf))
	}

	buf = buf[:RowSize]
	clear(buf)

	marshalUint32(buf, uint32(r.ID), IDOffset)
	copy(buf[UsernameOffset:UsernameOffset+UsernameSize], r.Username)
	copy(buf[EmailOffset:EmailOffset+EmailSize], r.Email)

	return nil
}

func UnmarshalRow(buf []byte, aRow *Row) {
	aRow.ID = int32(unmarshalUint32(buf, IDOffset))
	aRow.Username = unmarshalText(buf[UsernameOffset : UsernameOffset+UsernameSize])
	aRow.Email = unmarshalText(buf[EmailOffset : EmailOffset+EmailSize])
}

func unmarshalText(buf []byte) string {
	if idx := bytes.IndexByte(buf, 0); idx >= 0 {
		buf = buf[:idx]
	}
	return string(buf)
}

func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}
