package sp1wasm

import "context"

// Memory represents guest linear memory as seen by the host.
//
// Read returns a write-through window, not a copy: bytes written into the
// returned slice are visible to the guest. The window is only valid until
// the next guest call, which may grow memory and detach it.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}

// Allocator allocates memory in guest linear memory.
//
// Memory obtained here is owned by the guest allocator. The host never
// frees it.
type Allocator interface {
	Alloc(ctx context.Context, size, align uint32) (uint32, error)
	Realloc(ctx context.Context, ptr, oldSize, newSize, align uint32) (uint32, error)
}
