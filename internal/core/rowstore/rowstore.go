package rowstore

import (
	"math"
)

const (
	PageSize = 4096 // 4 kilobytes
	MaxPages = 100  // default page limit of a table

	IDSize          = 4
	UsernameSize    = 32
	EmailSize       = 255
	RowReservedSize = 2

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize
	ReservedOffset = EmailOffset + EmailSize
	RowSize        = IDSize + UsernameSize + EmailSize + RowReservedSize

	CommonNodeHeaderSize = 1 + 1 + 4

	LeafNodeHeaderSize      = CommonNodeHeaderSize + 4 + 4
	LeafNodeKeySize         = 4
	LeafNodeCellSize        = LeafNodeKeySize + RowSize
	LeafNodeSpaceForCells   = PageSize - LeafNodeHeaderSize
	LeafNodeMaxCells        = LeafNodeSpaceForCells / LeafNodeCellSize
	LeafNodeRightSplitCount = (LeafNodeMaxCells + 1) / 2
	LeafNodeLeftSplitCount  = LeafNodeMaxCells + 1 - LeafNodeRightSplitCount

	InternalNodeHeaderSize = CommonNodeHeaderSize + 4 + 4
	InternalNodeCellSize   = 4 + 4
	InternalNodeMaxCells   = (PageSize - InternalNodeHeaderSize) / InternalNodeCellSize
	// Smallest fan-out that still splits into two non-empty halves
	InternalNodeMinMaxCells = 3

	// maxTreeDepth bounds split propagation, 100 pages can never get close
	maxTreeDepth = 32
)

// RIGHT_CHILD_NOT_SET marks an internal node that has no children yet
const RIGHT_CHILD_NOT_SET = math.MaxUint32

// Constant is a named layout constant printed by the constants meta command.
type Constant struct {
	Name  string
	Value int
}

// Constants returns the on-disk layout constants in their display order.
func Constants() []Constant {
	return []Constant{
		{Name: "ROW_SIZE", Value: RowSize},
		{Name: "COMMON_NODE_HEADER_SIZE", Value: CommonNodeHeaderSize},
		{Name: "LEAF_NODE_HEADER_SIZE", Value: LeafNodeHeaderSize},
		{Name: "LEAF_NODE_CELL_SIZE", Value: LeafNodeCellSize},
		{Name: "LEAF_NODE_SPACE_FOR_CELLS", Value: LeafNodeSpaceForCells},
		{Name: "LEAF_NODE_MAX_CELLS", Value: LeafNodeMaxCells},
		{Name: "INTERNAL_NODE_HEADER_SIZE", Value: InternalNodeHeaderSize},
		{Name: "INTERNAL_NODE_CELL_SIZE", Value: InternalNodeCellSize},
	}
}

func marshalUint32(buf []byte, n uint32, i uint64) []byte {
	buf[i+0] = byte(n >> 0)
	buf[i+1] = byte(n >> 8)
	buf[i+2] = byte(n >> 16)
	buf[i+3] = byte(n >> 24)
	return buf
}

func unmarshalUint32(buf []byte, i uint64) uint32 {
	return 0 |
		(uint32(buf[i+0]) << 0) |
		(uint32(buf[i+1]) << 8) |
		(uint32(buf[i+2]) << 16) |
		(uint32(buf[i+3]) << 24)
}
