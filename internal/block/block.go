// Package block implements the memory-budgeted partition of an image
// into row-slabs (the block planner), and the LIFO of pending row
// indices the dispatcher hands out within one slab (the row stack).
package block

import "fmt"

// MaxBlockSearch bounds the block-count search: k = 1, 2, ..., 64.
const MaxBlockSearch = 64

// RowSize returns the byte stride of one image row for the given width
// and bit depth: ceil(W*depth/8) for 1/8/24-bit schemes, or W for ASCII
// (one byte per character).
func RowSize(width uint, depthBits uint) uint {
	if depthBits == 0 {
		return width // ASCII: one byte per column
	}
	bits := width * depthBits
	return (bits + 7) / 8
}

// Plan is the output of the Block Planner: how many blocks the image is
// split into, and the row counts of a regular block and the (possibly
// smaller) remainder block.
type Plan struct {
	RowSize        uint
	Rows           uint // rows per regular block
	RemainderRows  uint // rows in the final, possibly-partial block
	BlockCount     uint // number of regular blocks (excludes the remainder step)
	BlockSize      uint // Rows * RowSize
	RemainderSize  uint // RemainderRows * RowSize
}

// PlanBlocks partitions an H-row image of the given row size into blocks
// that each fit within budget bytes, searching k = 1..MaxBlockSearch. It
// returns an error if no k in that range keeps every block within
// budget without the remainder exceeding the regular row count.
func PlanBlocks(height uint, rowSize uint, budget uint64) (Plan, error) {
	if height == 0 {
		return Plan{}, fmt.Errorf("block: height must be non-zero")
	}
	if rowSize == 0 {
		return Plan{}, fmt.Errorf("block: row size must be non-zero")
	}

	for k := uint(1); k <= MaxBlockSearch; k++ {
		rows := height / k
		if rows == 0 {
			continue
		}
		remainder := height % k

		if remainder > rows {
			// The last block would be larger than a regular one.
			continue
		}

		blockSize := uint64(rows) * uint64(rowSize)
		if blockSize > budget {
			continue
		}

		plan := Plan{
			RowSize:       rowSize,
			Rows:          rows,
			RemainderRows: remainder,
			BlockCount:    k,
			BlockSize:     uint(blockSize),
		}
		if remainder > 0 {
			plan.RemainderSize = remainder * rowSize
		}
		return plan, nil
	}

	return Plan{}, fmt.Errorf("block: no partition into <= %d blocks fits budget %d bytes (height=%d, rowSize=%d)", MaxBlockSearch, budget, height, rowSize)
}

// EffectiveBudget returns the caller-supplied memory budget if non-zero,
// else 80% of freeMemory, the free physical memory reported by the
// caller (package block has no platform access of its own).
func EffectiveBudget(requested uint64, freeMemory uint64) uint64 {
	if requested > 0 {
		return requested
	}
	return uint64(0.8 * float64(freeMemory))
}

// Block is a window of up to Rows consecutive image rows sharing one
// owning byte buffer. Only one of Rows/RemainderRows is the "active"
// count at a time, selected by Remainder.
type Block struct {
	ID            uint
	Rows          uint
	RemainderRows uint
	Remainder     bool
	RowSize       uint
	BlockSize     uint
	RemainderBlockSize uint
	Array         []byte
}

// ActiveRows returns the row count in effect for this block.
func (b *Block) ActiveRows() uint {
	if b.Remainder {
		return b.RemainderRows
	}
	return b.Rows
}

// ActiveSize returns the byte length in effect for this block.
func (b *Block) ActiveSize() uint {
	if b.Remainder {
		return b.RemainderBlockSize
	}
	return b.BlockSize
}

// NewBlock allocates a Block for plan step id (0-based), which owns its
// buffer: freeing the Block (letting it go out of scope) frees the buffer.
func NewBlock(plan Plan, id uint, remainder bool) *Block {
	b := &Block{
		ID:                 id,
		Rows:               plan.Rows,
		RemainderRows:      plan.RemainderRows,
		Remainder:          remainder,
		RowSize:            plan.RowSize,
		BlockSize:          plan.BlockSize,
		RemainderBlockSize: plan.RemainderSize,
	}
	b.Array = make([]byte, b.ActiveSize())
	return b
}

// NewSingleRowBlock allocates a Block sized for exactly one row, for
// worker mode, where buffering more rows than the one being computed is
// wasteful.
func NewSingleRowBlock(rowIndex uint, rowSize uint) *Block {
	b := &Block{
		ID:            rowIndex,
		Rows:          1,
		RemainderRows: 1,
		Remainder:     false,
		RowSize:       rowSize,
		BlockSize:     rowSize,
	}
	b.Array = make([]byte, rowSize)
	return b
}

// RowOffset returns the byte offset of the given row, local to this
// block, within Array.
func (b *Block) RowOffset(localRow uint) uint {
	return localRow * b.RowSize
}
