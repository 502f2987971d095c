package jsbridge

import "context"

// Memory is a byte-addressable little-endian view over guest linear memory.
//
// The backing buffer may be replaced when the guest grows its memory, so a
// Memory must be re-obtained from the Guest after any call that can reenter
// guest code. Holding a view across such a call is a correctness bug.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of guest linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Guest is the export surface the bridge consumes from a guest instance.
type Guest interface {
	// Mem returns a fresh view over the guest's current linear memory.
	Mem() Memory

	// Run invokes the guest entry point with the argument count and the
	// address of the argv pointer vector. It returns when the guest's
	// scheduler parks or the guest exits.
	Run(ctx context.Context, argc, argv uint32) error

	// Resume hands control back to the guest's pending-event slot.
	Resume(ctx context.Context) error

	// StackPointer refetches the guest's current stack pointer. Required
	// after any host call that reentered guest code, since the guest stack
	// may have moved.
	StackPointer(ctx context.Context) (uint32, error)
}
