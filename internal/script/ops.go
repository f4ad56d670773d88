// Package script reads and writes the line-oriented allocator test scripts:
//
//	add <key> <base> <size>
//	alloc <id> <size> <alignment> [fail]
//	free <id>
//
// All numbers are base-10 unsigned integers. Blank lines and lines starting
// with "#" are ignored.
package script

// Op is one script line.
type Op interface{ isOp() }

// OpAdd registers the region [Base, Base+Size). Key echoes Base in generated
// scripts and is kept as a separate field for future region identifiers.
type OpAdd struct {
	Key  uint64
	Base uint64
	Size uint64
	Line int // source line, 0 for generated ops
}

func (OpAdd) isOp() {}

// OpAlloc requests Size bytes aligned to Align under ID. ExpectFail means the
// script expects the allocator to run out of space.
type OpAlloc struct {
	ID         uint64
	Size       uint64
	Align      uint64
	ExpectFail bool
	Line       int
}

func (OpAlloc) isOp() {}

// OpFree releases the allocation owned by ID.
type OpFree struct {
	ID   uint64
	Line int
}

func (OpFree) isOp() {}

// LineOf returns the source line of op, or 0 if unknown.
func LineOf(op Op) int {
	switch o := op.(type) {
	case OpAdd:
		return o.Line
	case OpAlloc:
		return o.Line
	case OpFree:
		return o.Line
	}
	return 0
}

// Counts tallies ops by kind.
type Counts struct {
	Add       int
	Alloc     int
	AllocFail int // alloc lines marked fail
	Free      int
}

// Count tallies ops by kind.
func Count(ops []Op) Counts {
	var c Counts
	for _, op := range ops {
		switch o := op.(type) {
		case OpAdd:
			c.Add++
		case OpAlloc:
			c.Alloc++
			if o.ExpectFail {
				c.AllocFail++
			}
		case OpFree:
			c.Free++
		}
	}
	return c
}
