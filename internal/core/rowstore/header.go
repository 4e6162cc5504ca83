package rowstore

import (
	"fmt"
)

const (
	PageTypeInternal = byte(0)
	PageTypeLeaf     = byte(1)
)

// Header is the common node header shared by leaf and internal nodes.
type Header struct {
	IsInternal bool
	IsRoot     bool
	Parent     uint32
}

func (h *Header) Size() uint64 {
	return CommonNodeHeaderSize
}

func (h *Header) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()
	if uint64(len(buf)) < size {
		return nil, fmt.Errorf("header buffer too small: %d", len(buf))
	}

	i := uint64(0)
	if h.IsInternal {
		buf[i] = PageTypeInternal
	} else {
		buf[i] = PageTypeLeaf
	}
	i += 1

	if h.IsRoot {
		buf[i] = 1
	} else {
		buf[i] = 0
	}
	i += 1

	marshalUint32(buf, h.Parent, i)

	return buf[:size], nil
}

func (h *Header) Unmarshal(buf []byte) (uint64, error) {
	if buf[0] != PageTypeLeaf && buf[0] != PageTypeInternal {
		return 0, fmt.Errorf("%w: unrecognised page type byte %d", ErrCorruptFile, buf[0])
	}
	h.IsInternal = buf[0] == PageTypeInternal
	h.IsRoot = buf[1] == 1
	h.Parent = unmarshalUint32(buf, 2)

	return h.Size(), nil
}
