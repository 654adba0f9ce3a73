package transcoder

import (
	"context"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding"

	sp1wasm "github.com/wippyai/sp1-wasm-verifier"
	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// Safety limits to prevent memory exhaustion.
const (
	MaxArgSize = 16 << 20 // Maximum marshalled argument size (16 MB)
)

// maxBytesPerUnit is the worst-case UTF-8 length of one UTF-16 code unit.
const maxBytesPerUnit = 3

// Arg designates a region of guest memory holding a copy of host data.
type Arg struct {
	Ptr uint32
	Len uint32
}

// Codec marshals arguments through one guest memory and allocator.
type Codec struct {
	mem   sp1wasm.Memory
	alloc sp1wasm.Allocator
}

func New(mem sp1wasm.Memory, alloc sp1wasm.Allocator) *Codec {
	return &Codec{mem: mem, alloc: alloc}
}

// PassBytes copies b into freshly allocated guest memory.
func (c *Codec) PassBytes(ctx context.Context, b []byte, path ...string) (Arg, error) {
	if len(b) > MaxArgSize {
		return Arg{}, errors.Overflow(errors.PhaseEncode, path, len(b), MaxArgSize)
	}

	n := uint32(len(b))
	ptr, err := c.alloc.Alloc(ctx, n, 1)
	if err != nil {
		return Arg{}, errors.AllocationFailed(errors.PhaseEncode, n, 1, err)
	}

	if err := c.mem.Write(ptr, b); err != nil {
		return Arg{}, err
	}
	return Arg{Ptr: ptr, Len: n}, nil
}

// PassString copies s into guest memory as UTF-8.
func (c *Codec) PassString(ctx context.Context, s string, path ...string) (Arg, error) {
	if !utf8.ValidString(s) {
		return Arg{}, errors.InvalidUTF8(errors.PhaseEncode, path, []byte(s))
	}

	units := utf16Len(s)
	if units*maxBytesPerUnit > MaxArgSize {
		return Arg{}, errors.Overflow(errors.PhaseEncode, path, units*maxBytesPerUnit, MaxArgSize)
	}

	size := uint32(units)
	ptr, err := c.alloc.Alloc(ctx, size, 1)
	if err != nil {
		return Arg{}, errors.AllocationFailed(errors.PhaseEncode, size, 1, err)
	}

	dst, err := c.mem.Read(ptr, size)
	if err != nil {
		return Arg{}, err
	}

	// ASCII prefix: byte offset equals code-unit offset.
	offset := 0
	for ; offset < len(s) && offset < units; offset++ {
		ch := s[offset]
		if ch >= utf8.RuneSelf {
			break
		}
		dst[offset] = ch
	}

	if offset == len(s) {
		return Arg{Ptr: ptr, Len: uint32(offset)}, nil
	}

	rest := s[offset:]
	grown := uint32(offset + utf16Len(rest)*maxBytesPerUnit)
	ptr, err = c.alloc.Realloc(ctx, ptr, size, grown, 1)
	if err != nil {
		return Arg{}, errors.AllocationFailed(errors.PhaseEncode, grown, 1, err)
	}

	tail, err := c.mem.Read(ptr+uint32(offset), grown-uint32(offset))
	if err != nil {
		return Arg{}, err
	}

	src := unsafe.Slice(unsafe.StringData(rest), len(rest))
	written, read, _ := encoding.UTF8Validator.Transform(tail, src, true)
	if read != len(rest) {
		return Arg{}, errors.EncodeInvariant(path, read, len(rest))
	}

	total := uint32(offset + written)
	ptr, err = c.alloc.Realloc(ctx, ptr, grown, total, 1)
	if err != nil {
		return Arg{}, errors.AllocationFailed(errors.PhaseEncode, total, 1, err)
	}
	return Arg{Ptr: ptr, Len: total}, nil
}

// DecodeString reads length bytes at ptr and decodes them as strict UTF-8.
// Lengths above MaxArgSize are rejected.
func DecodeString(mem sp1wasm.Memory, ptr, length uint32, path ...string) (string, error) {
	if length > MaxArgSize {
		return "", errors.Overflow(errors.PhaseDecode, path, int(length), MaxArgSize)
	}
	return decodeString(mem, ptr, length, path)
}

// DecodeMessage decodes a message the guest already holds in its memory,
// such as a fault message. Only the memory bounds limit its length.
func DecodeMessage(mem sp1wasm.Memory, ptr, length uint32, path ...string) (string, error) {
	return decodeString(mem, ptr, length, path)
}

func decodeString(mem sp1wasm.Memory, ptr, length uint32, path []string) (string, error) {
	data, err := mem.Read(ptr, length)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, path, data)
	}

	return string(data), nil
}

// utf16Len counts UTF-16 code units in s. Runes above U+FFFF take two.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
