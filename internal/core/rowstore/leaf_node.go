package rowstore

import (
	"fmt"
)

type LeafNodeHeader struct {
	Header
	Cells    uint32
	NextLeaf uint32 // 0 when this is the rightmost leaf
}

func (h *LeafNodeHeader) Size() uint64 {
	return h.Header.Size() + 8
}

func (h *LeafNodeHeader) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()

	i := uint64(0)

	hbuf, err := h.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	marshalUint32(buf, h.Cells, i)
	i += 4
	marshalUint32(buf, h.NextLeaf, i)

	return buf[:size], nil
}

func (h *LeafNodeHeader) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := h.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	h.Cells = unmarshalUint32(buf, i)
	i += 4
	h.NextLeaf = unmarshalUint32(buf, i)

	return h.Size(), nil
}

// Cell is a key plus an encoded row.
type Cell struct {
	Key   uint32
	Value [RowSize]byte
}

func (c *Cell) Size() uint64 {
	return LeafNodeCellSize
}

func (c *Cell) Marshal(buf []byte) ([]byte, error) {
	size := c.Size()

	marshalUint32(buf, c.Key, 0)
	copy(buf[LeafNodeKeySize:size], c.Value[:])

	return buf[:size], nil
}

func (c *Cell) Unmarshal(buf []byte) (uint64, error) {
	c.Key = unmarshalUint32(buf, 0)
	copy(c.Value[:], buf[LeafNodeKeySize:LeafNodeCellSize])

	return c.Size(), nil
}

type LeafNode struct {
	Header LeafNodeHeader
	Cells  []Cell
}

func NewLeafNode() *LeafNode {
	return &LeafNode{
		Cells: make([]Cell, 0, LeafNodeMaxCells),
	}
}

func (n *LeafNode) Clone() *LeafNode {
	aCopy := NewLeafNode()
	aCopy.Header = n.Header
	aCopy.Cells = append(aCopy.Cells, n.Cells...)
	return aCopy
}

func (n *LeafNode) Marshal(buf []byte) ([]byte, error) {
	if len(buf) < PageSize {
		return nil, fmt.Errorf("leaf node buffer too small: %d", len(buf))
	}
	if len(n.Cells) > LeafNodeMaxCells {
		return nil, fmt.Errorf("leaf node has %d cells, limit is %d", len(n.Cells), LeafNodeMaxCells)
	}

	i := uint64(0)

	n.Header.Cells = uint32(len(n.Cells))
	hbuf, err := n.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	for idx := range n.Cells {
		cbuf, err := n.Cells[idx].Marshal(buf[i:])
		if err != nil {
			return nil, err
		}
		i += uint64(len(cbuf))
	}

	return buf[:i], nil
}

func (n *LeafNode) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := n.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	if n.Header.Cells > LeafNodeMaxCells {
		return 0, fmt.Errorf("%w: leaf node has %d cells", ErrCorruptFile, n.Header.Cells)
	}

	n.Cells = make([]Cell, n.Header.Cells, LeafNodeMaxCells)
	for idx := range n.Cells {
		ci, err := n.Cells[idx].Unmarshal(buf[i:])
		if err != nil {
			return 0, err
		}
		i += ci
	}

	return i, nil
}

// Find binary searches the cells for key. It returns the index of the cell
// holding key, or the index where key should be inserted, and whether the key
// was found.
func (n *LeafNode) Find(key uint32) (uint32, bool) {
	var (
		minIdx uint32
		maxIdx = uint32(len(n.Cells))
	)
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		keyAtIdx := n.Cells[idx].Key
		if key == keyAtIdx {
			return idx, true
		}
		if key < keyAtIdx {
			maxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}
	return minIdx, false
}

func (n *LeafNode) InsertCell(idx uint32, aCell Cell) {
	n.Cells = append(n.Cells, Cell{})
	copy(n.Cells[idx+1:], n.Cells[idx:])
	n.Cells[idx] = aCell
	n.Header.Cells = uint32(len(n.Cells))
}

func (n *LeafNode) MaxKey() (uint32, bool) {
	if len(n.Cells) == 0 {
		return 0, false
	}
	return n.Cells[len(n.Cells)-1].Key, true
}

func (n *LeafNode) Keys() []uint32 {
	keys := make([]uint32, 0, len(n.Cells))
	for _, aCell := range n.Cells {
		keys = append(keys, aCell.Key)
	}
	return keys
}
