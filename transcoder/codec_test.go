package transcoder

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// fakeMemory reallocates its backing array on every growth, so a window
// taken before an allocation no longer aliases live memory afterwards.
type fakeMemory struct {
	buf []byte
}

func (m *fakeMemory) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, length, uint32(len(m.buf)))
	}
	return m.buf[offset:end], nil
}

func (m *fakeMemory) Write(offset uint32, data []byte) error {
	dst, err := m.Read(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (m *fakeMemory) Size() uint32 { return uint32(len(m.buf)) }

func (m *fakeMemory) grow(size uint32) {
	if size <= uint32(len(m.buf)) {
		return
	}
	next := make([]byte, size)
	copy(next, m.buf)
	m.buf = next
}

type fakeAllocator struct {
	mem      *fakeMemory
	next     uint32
	allocs   int
	reallocs int
	fail     bool
}

func newFake() (*fakeMemory, *fakeAllocator) {
	mem := &fakeMemory{buf: make([]byte, 64)}
	return mem, &fakeAllocator{mem: mem, next: 8}
}

func (a *fakeAllocator) bump(size uint32) uint32 {
	ptr := a.next
	a.next += size
	a.mem.grow(a.next)
	return ptr
}

func (a *fakeAllocator) Alloc(_ context.Context, size, _ uint32) (uint32, error) {
	if a.fail {
		return 0, fmt.Errorf("out of memory")
	}
	a.allocs++
	return a.bump(size), nil
}

func (a *fakeAllocator) Realloc(_ context.Context, ptr, oldSize, newSize, _ uint32) (uint32, error) {
	a.reallocs++
	if newSize <= oldSize {
		return ptr, nil
	}
	next := a.bump(newSize)
	copy(a.mem.buf[next:next+oldSize], a.mem.buf[ptr:ptr+oldSize])
	return next, nil
}

func TestPassBytes(t *testing.T) {
	ctx := context.Background()
	mem, alloc := newFake()
	c := New(mem, alloc)

	payload := []byte{0x00, 0xff, 0x10, 0x80, 0x7f}
	arg, err := c.PassBytes(ctx, payload)
	if err != nil {
		t.Fatalf("PassBytes failed: %v", err)
	}
	if arg.Len != uint32(len(payload)) {
		t.Fatalf("expected len %d, got %d", len(payload), arg.Len)
	}
	got, _ := mem.Read(arg.Ptr, arg.Len)
	if string(got) != string(payload) {
		t.Fatalf("expected %x, got %x", payload, got)
	}
}

func TestPassBytes_Empty(t *testing.T) {
	mem, alloc := newFake()
	c := New(mem, alloc)

	arg, err := c.PassBytes(context.Background(), nil)
	if err != nil {
		t.Fatalf("PassBytes failed: %v", err)
	}
	if arg.Len != 0 {
		t.Fatalf("expected zero length, got %d", arg.Len)
	}
	if alloc.allocs != 1 {
		t.Fatalf("expected one allocation, got %d", alloc.allocs)
	}
}

func TestPassBytes_IndependentArgs(t *testing.T) {
	ctx := context.Background()
	mem, alloc := newFake()
	c := New(mem, alloc)

	a, err := c.PassBytes(ctx, []byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.PassBytes(ctx, []byte("second!"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Len != 5 || b.Len != 7 {
		t.Fatalf("lengths clobbered: %d, %d", a.Len, b.Len)
	}
	got, _ := mem.Read(a.Ptr, a.Len)
	if string(got) != "first" {
		t.Fatalf("first arg overwritten: %q", got)
	}
}

func TestPassBytes_AllocationFailure(t *testing.T) {
	mem, alloc := newFake()
	alloc.fail = true
	c := New(mem, alloc)

	_, err := c.PassBytes(context.Background(), []byte("x"))
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAllocation {
		t.Fatalf("expected allocation error, got %v", err)
	}
}

func TestPassString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		reallocs int
	}{
		{"empty", "", 0},
		{"ascii", "0x00a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f", 0},
		{"latin", "café", 2},
		{"leading non-ascii", "Ωmega", 2},
		{"cjk", "検証キー", 2},
		{"emoji", "key-\U0001F511-hash", 2},
		{"only emoji", "\U0001F600\U0001F601", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, alloc := newFake()
			c := New(mem, alloc)

			arg, err := c.PassString(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("PassString failed: %v", err)
			}
			if arg.Len != uint32(len(tt.input)) {
				t.Fatalf("expected len %d, got %d", len(tt.input), arg.Len)
			}
			if alloc.reallocs != tt.reallocs {
				t.Fatalf("expected %d reallocs, got %d", tt.reallocs, alloc.reallocs)
			}

			got, err := DecodeString(mem, arg.Ptr, arg.Len)
			if err != nil {
				t.Fatalf("DecodeString failed: %v", err)
			}
			if got != tt.input {
				t.Fatalf("round trip: expected %q, got %q", tt.input, got)
			}
		})
	}
}

func TestPassString_InvalidUTF8(t *testing.T) {
	mem, alloc := newFake()
	c := New(mem, alloc)

	_, err := c.PassString(context.Background(), "bad\xff", "vkey")
	if !stderrors.Is(err, errors.New(errors.PhaseEncode, errors.KindInvalidUTF8).Build()) {
		t.Fatalf("expected invalid utf8 error, got %v", err)
	}
	if alloc.allocs != 0 {
		t.Fatalf("invalid input must not allocate, got %d allocations", alloc.allocs)
	}
}

func TestPassString_Overflow(t *testing.T) {
	mem, alloc := newFake()
	c := New(mem, alloc)

	_, err := c.PassString(context.Background(), strings.Repeat("a", MaxArgSize/3+1))
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOverflow {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestUTF16Len(t *testing.T) {
	tests := map[string]int{
		"":              0,
		"abc":           3,
		"é":             1,
		"検":             1,
		"\U0001F511":    2,
		"a\U0001F511b":  4,
	}
	for s, want := range tests {
		if got := utf16Len(s); got != want {
			t.Errorf("utf16Len(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestDecodeString_Strict(t *testing.T) {
	mem, _ := newFake()
	copy(mem.buf[4:], []byte{'o', 'k', 0xc3, 0x28})

	if _, err := DecodeString(mem, 4, 2); err != nil {
		t.Fatalf("valid prefix rejected: %v", err)
	}

	_, err := DecodeString(mem, 4, 4)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidUTF8 || e.Phase != errors.PhaseDecode {
		t.Fatalf("expected decode utf8 error, got %v", err)
	}
}

func TestDecodeString_OutOfBounds(t *testing.T) {
	mem, _ := newFake()

	_, err := DecodeString(mem, 60, 10)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOutOfBounds {
		t.Fatalf("expected out of bounds error, got %v", err)
	}
}

func TestDecodeMessage_AboveArgLimit(t *testing.T) {
	size := uint32(MaxArgSize + 16)
	mem := &fakeMemory{buf: make([]byte, size)}
	copy(mem.buf, "sp1: ")

	if _, err := DecodeString(mem, 0, size); !stderrors.Is(err, errors.New(errors.PhaseDecode, errors.KindOverflow).Build()) {
		t.Fatalf("expected DecodeString overflow, got %v", err)
	}

	msg, err := DecodeMessage(mem, 0, size, "message")
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if uint32(len(msg)) != size || !strings.HasPrefix(msg, "sp1: ") {
		t.Fatalf("unexpected message: len %d", len(msg))
	}
}

func TestDecodeMessage_Strict(t *testing.T) {
	mem, _ := newFake()
	copy(mem.buf[4:], []byte{'o', 'k', 0xc3, 0x28})

	_, err := DecodeMessage(mem, 4, 4, "message")
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidUTF8 || e.Phase != errors.PhaseDecode {
		t.Fatalf("expected decode utf8 error, got %v", err)
	}
	if _, err := DecodeMessage(mem, 60, 10); err == nil {
		t.Fatal("expected out of bounds error")
	}
}
