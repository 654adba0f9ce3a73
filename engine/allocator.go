package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	sp1wasm "github.com/wippyai/sp1-wasm-verifier"
)

// guestAllocator implements sp1wasm.Allocator using the guest's exported
// malloc and realloc. Memory it hands out is never freed by the host.
type guestAllocator struct {
	malloc   api.Function
	realloc  api.Function
	stackBuf []uint64
}

func newGuestAllocator(malloc, realloc api.Function) *guestAllocator {
	return &guestAllocator{
		malloc:   malloc,
		realloc:  realloc,
		stackBuf: make([]uint64, 4),
	}
}

func (a *guestAllocator) Alloc(ctx context.Context, size, align uint32) (uint32, error) {
	a.stackBuf[0] = uint64(size)
	a.stackBuf[1] = uint64(align)
	if err := a.malloc.CallWithStack(ctx, a.stackBuf[:2]); err != nil {
		return 0, fault(ExportMalloc, err)
	}
	return uint32(a.stackBuf[0]), nil
}

func (a *guestAllocator) Realloc(ctx context.Context, ptr, oldSize, newSize, align uint32) (uint32, error) {
	a.stackBuf[0] = uint64(ptr)
	a.stackBuf[1] = uint64(oldSize)
	a.stackBuf[2] = uint64(newSize)
	a.stackBuf[3] = uint64(align)
	if err := a.realloc.CallWithStack(ctx, a.stackBuf[:4]); err != nil {
		return 0, fault(ExportRealloc, err)
	}
	return uint32(a.stackBuf[0]), nil
}

// Compile-time check that guestAllocator implements sp1wasm.Allocator
var _ sp1wasm.Allocator = (*guestAllocator)(nil)
