package rowstore

import (
	"fmt"
)

type InternalNodeHeader struct {
	Header
	KeysNum    uint32
	RightChild uint32
}

func (h *InternalNodeHeader) Size() uint64 {
	return h.Header.Size() + 8
}

func (h *InternalNodeHeader) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()

	i := uint64(0)

	hbuf, err := h.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	marshalUint32(buf, h.KeysNum, i)
	i += 4
	marshalUint32(buf, h.RightChild, i)

	return buf[:size], nil
}

func (h *InternalNodeHeader) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := h.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	h.KeysNum = unmarshalUint32(buf, i)
	i += 4
	h.RightChild = unmarshalUint32(buf, i)

	return h.Size(), nil
}

// ICell points at a child subtree whose keys are all <= Key.
type ICell struct {
	Child uint32
	Key   uint32
}

func (c *ICell) Size() uint64 {
	return InternalNodeCellSize
}

func (c *ICell) Marshal(buf []byte) ([]byte, error) {
	marshalUint32(buf, c.Child, 0)
	marshalUint32(buf, c.Key, 4)
	return buf[:c.Size()], nil
}

func (c *ICell) Unmarshal(buf []byte) (uint64, error) {
	c.Child = unmarshalUint32(buf, 0)
	c.Key = unmarshalUint32(buf, 4)
	return c.Size(), nil
}

type InternalNode struct {
	Header InternalNodeHeader
	ICells []ICell
}

func NewInternalNode() *InternalNode {
	return &InternalNode{
		Header: InternalNodeHeader{
			Header: Header{
				IsInternal: true,
			},
			RightChild: RIGHT_CHILD_NOT_SET,
		},
	}
}

func (n *InternalNode) Clone() *InternalNode {
	aCopy := NewInternalNode()
	aCopy.Header = n.Header
	aCopy.ICells = append(make([]ICell, 0, len(n.ICells)), n.ICells...)
	return aCopy
}

func (n *InternalNode) Marshal(buf []byte) ([]byte, error) {
	if len(buf) < PageSize {
		return nil, fmt.Errorf("internal node buffer too small: %d", len(buf))
	}
	if len(n.ICells) > InternalNodeMaxCells {
		return nil, fmt.Errorf("internal node has %d cells, limit is %d", len(n.ICells), InternalNodeMaxCells)
	}

	i := uint64(0)

	n.Header.KeysNum = uint32(len(n.ICells))
	hbuf, err := n.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	for idx := range n.ICells {
		icbuf, err := n.ICells[idx].Marshal(buf[i:])
		if err != nil {
			return nil, err
		}
		i += uint64(len(icbuf))
	}

	return buf[:i], nil
}

func (n *InternalNode) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := n.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	if n.Header.KeysNum > InternalNodeMaxCells {
		return 0, fmt.Errorf("%w: internal node has %d keys", ErrCorruptFile, n.Header.KeysNum)
	}

	n.ICells = make([]ICell, n.Header.KeysNum)
	for idx := range n.ICells {
		ci, err := n.ICells[idx].Unmarshal(buf[i:])
		if err != nil {
			return 0, err
		}
		i += ci
	}

	return i, nil
}

// IndexOfChild returns the index of the child which should contain the given key.
// For example, if node has 2 keys, this could return 0 for the leftmost child,
// 1 for the middle child or 2 for the rightmost child.
// The returned value is not a page index!
func (n *InternalNode) IndexOfChild(key uint32) uint32 {
	var (
		minIdx = uint32(0)
		maxIdx = uint32(len(n.ICells))
	)
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		rightKey := n.ICells[idx].Key
		if rightKey >= key {
			maxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}

	return minIdx
}

// Child returns a page index of nth child of the node
// (0 for the leftmost child, index equal to number of keys means the right child).
func (n *InternalNode) Child(childIdx uint32) (uint32, error) {
	keysNum := uint32(len(n.ICells))
	if childIdx > keysNum {
		return 0, fmt.Errorf("childIdx %d out of keysNum %d", childIdx, keysNum)
	}

	if childIdx == keysNum {
		if n.Header.RightChild == RIGHT_CHILD_NOT_SET {
			return 0, fmt.Errorf("internal node has no right child")
		}
		return n.Header.RightChild, nil
	}

	return n.ICells[childIdx].Child, nil
}

func (n *InternalNode) InsertCell(idx uint32, aCell ICell) {
	n.ICells = append(n.ICells, ICell{})
	copy(n.ICells[idx+1:], n.ICells[idx:])
	n.ICells[idx] = aCell
	n.Header.KeysNum = uint32(len(n.ICells))
}

// RemoveLastCell drops the last cell and promotes its child to the right child.
func (n *InternalNode) RemoveLastCell() {
	idx := len(n.ICells) - 1
	n.Header.RightChild = n.ICells[idx].Child
	n.ICells = n.ICells[:idx]
	n.Header.KeysNum = uint32(len(n.ICells))
}

// UpdateKey replaces the key of the child currently keyed by oldKey. A child
// reached through the right pointer has no stored key and is left alone.
func (n *InternalNode) UpdateKey(oldKey, newKey uint32) {
	idx := n.IndexOfChild(oldKey)
	if idx < uint32(len(n.ICells)) {
		n.ICells[idx].Key = newKey
	}
}

func (n *InternalNode) Keys() []uint32 {
	keys := make([]uint32, 0, len(n.ICells))
	for _, aCell := range n.ICells {
		keys = append(keys, aCell.Key)
	}
	return keys
}

func (n *InternalNode) Children() []uint32 {
	children := make([]uint32, 0, len(n.ICells)+1)
	for _, aCell := range n.ICells {
		children = append(children, aCell.Child)
	}
	if n.Header.RightChild != RIGHT_CHILD_NOT_SET {
		children = append(children, n.Header.RightChild)
	}
	return children
}
