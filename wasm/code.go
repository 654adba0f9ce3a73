package wasm

import "bytes"

// Opcodes used by Code
const (
	OpUnreachable  byte = 0x00
	OpBlock        byte = 0x02
	OpLoop         byte = 0x03
	OpIf           byte = 0x04
	OpEnd          byte = 0x0B
	OpBr           byte = 0x0C
	OpBrIf         byte = 0x0D
	OpCall         byte = 0x10
	OpDrop         byte = 0x1A
	OpSelect       byte = 0x1B
	OpLocalGet     byte = 0x20
	OpLocalSet     byte = 0x21
	OpLocalTee     byte = 0x22
	OpGlobalGet    byte = 0x23
	OpGlobalSet    byte = 0x24
	OpI32Load8U    byte = 0x2D
	OpI32Store8    byte = 0x3A
	OpMemorySize   byte = 0x3F
	OpMemoryGrow   byte = 0x40
	OpI32Const     byte = 0x41
	OpI32Eqz       byte = 0x45
	OpI32Eq        byte = 0x46
	OpI32Ne        byte = 0x47
	OpI32LtU       byte = 0x49
	OpI32GtU       byte = 0x4B
	OpI32LeU       byte = 0x4D
	OpI32GeU       byte = 0x4F
	OpI32Add       byte = 0x6A
	OpI32Sub       byte = 0x6B
	OpI32And       byte = 0x71
	OpI32Or        byte = 0x72
	OpI32Xor       byte = 0x73
	OpI32Shl       byte = 0x74
	OpI32ShrU      byte = 0x76
	OpPrefixFC     byte = 0xFC
	OpMemoryCopyFC byte = 0x0A // after OpPrefixFC

	BlockEmpty byte = 0x40
)

// Code builds a function body or constant expression.
type Code struct {
	buf bytes.Buffer
}

// NewCode returns an empty builder
func NewCode() *Code {
	return &Code{}
}

// Op appends raw opcodes with no immediates
func (c *Code) Op(ops ...byte) *Code {
	c.buf.Write(ops)
	return c
}

// I32Const pushes v
func (c *Code) I32Const(v int32) *Code {
	c.buf.WriteByte(OpI32Const)
	WriteLEB128s(&c.buf, v)
	return c
}

func (c *Code) LocalGet(idx uint32) *Code { return c.indexed(OpLocalGet, idx) }
func (c *Code) LocalSet(idx uint32) *Code { return c.indexed(OpLocalSet, idx) }
func (c *Code) LocalTee(idx uint32) *Code { return c.indexed(OpLocalTee, idx) }

func (c *Code) GlobalGet(idx uint32) *Code { return c.indexed(OpGlobalGet, idx) }
func (c *Code) GlobalSet(idx uint32) *Code { return c.indexed(OpGlobalSet, idx) }

func (c *Code) Call(fn uint32) *Code { return c.indexed(OpCall, fn) }

func (c *Code) Br(depth uint32) *Code   { return c.indexed(OpBr, depth) }
func (c *Code) BrIf(depth uint32) *Code { return c.indexed(OpBrIf, depth) }

// Block, Loop and If open a structured instruction with an empty block type
func (c *Code) Block() *Code { return c.Op(OpBlock, BlockEmpty) }
func (c *Code) Loop() *Code  { return c.Op(OpLoop, BlockEmpty) }
func (c *Code) If() *Code    { return c.Op(OpIf, BlockEmpty) }

func (c *Code) End() *Code { return c.Op(OpEnd) }

// Load8U loads one byte from memory 0 at the address on the stack plus offset
func (c *Code) Load8U(offset uint32) *Code {
	c.buf.WriteByte(OpI32Load8U)
	WriteLEB128u(&c.buf, 0) // align
	WriteLEB128u(&c.buf, offset)
	return c
}

// Store8 stores the low byte of the value on the stack
func (c *Code) Store8(offset uint32) *Code {
	c.buf.WriteByte(OpI32Store8)
	WriteLEB128u(&c.buf, 0)
	WriteLEB128u(&c.buf, offset)
	return c
}

func (c *Code) MemorySize() *Code { return c.Op(OpMemorySize, 0x00) }
func (c *Code) MemoryGrow() *Code { return c.Op(OpMemoryGrow, 0x00) }

// MemoryCopy copies within memory 0 (dst, src, n on the stack)
func (c *Code) MemoryCopy() *Code {
	c.buf.WriteByte(OpPrefixFC)
	WriteLEB128u(&c.buf, uint32(OpMemoryCopyFC))
	c.buf.WriteByte(0x00)
	c.buf.WriteByte(0x00)
	return c
}

// Bytes returns the body terminated by end
func (c *Code) Bytes() []byte {
	out := make([]byte, c.buf.Len()+1)
	copy(out, c.buf.Bytes())
	out[len(out)-1] = OpEnd
	return out
}

func (c *Code) indexed(op byte, idx uint32) *Code {
	c.buf.WriteByte(op)
	WriteLEB128u(&c.buf, idx)
	return c
}
