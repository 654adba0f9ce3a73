package engine

import (
	"github.com/tetratelabs/wazero/api"

	sp1wasm "github.com/wippyai/sp1-wasm-verifier"
	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// View is a scoped byte window over guest linear memory.
//
// Memory growth detaches earlier windows. Every access compares the cached
// window length with the live memory size and re-slices on mismatch, so a
// View stays valid across guest calls that grow memory. A View must not be
// used after Release.
type View struct {
	mem      api.Memory
	window   []byte
	released bool
}

func newView(mem api.Memory) *View {
	return &View{mem: mem}
}

// Read returns a write-through window of length bytes at offset. The slice
// is valid until the next guest call.
func (v *View) Read(offset, length uint32) ([]byte, error) {
	if err := v.refresh(); err != nil {
		return nil, err
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(len(v.window)) {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, length, uint32(len(v.window)))
	}
	return v.window[offset:end:end], nil
}

// Write copies data into guest memory at offset.
func (v *View) Write(offset uint32, data []byte) error {
	dst, err := v.Read(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Size returns the current memory size in bytes.
func (v *View) Size() uint32 {
	if v.released || v.mem == nil {
		return 0
	}
	return v.mem.Size()
}

// Release ends the view's scope.
func (v *View) Release() {
	v.released = true
	v.window = nil
}

func (v *View) refresh() error {
	if v.released || v.mem == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "memory view")
	}
	size := v.mem.Size()
	if len(v.window) != 0 && uint32(len(v.window)) == size {
		return nil
	}
	buf, ok := v.mem.Read(0, size)
	if !ok {
		return errors.OutOfBounds(errors.PhaseRuntime, nil, 0, size, size)
	}
	v.window = buf
	return nil
}

var _ sp1wasm.Memory = (*View)(nil)
