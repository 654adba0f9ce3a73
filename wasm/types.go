package wasm

// Binary format header
const (
	Magic   uint32 = 0x6D736100 // \0asm
	Version uint32 = 0x01
)

// Section IDs
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionTable    byte = 4
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionStart    byte = 8
	SectionCode     byte = 10
	SectionData     byte = 11
)

// External kinds for imports and exports
const (
	KindFunc   byte = 0x00
	KindTable  byte = 0x01
	KindMemory byte = 0x02
	KindGlobal byte = 0x03
)

// ValType is a value type byte
type ValType byte

const (
	ValI32       ValType = 0x7F
	ValI64       ValType = 0x7E
	ValFuncRef   ValType = 0x70
	ValExternRef ValType = 0x6F
)

// String returns the text format name
func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValFuncRef:
		return "funcref"
	case ValExternRef:
		return "externref"
	default:
		return "unknown"
	}
}

const funcTypeByte = 0x60

// FuncType is a function signature
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Limits bounds a table or memory
type Limits struct {
	Max *uint32
	Min uint32
}

// Import is a function import
type Import struct {
	Module string
	Name   string
	Type   uint32
}

// Func is a defined function. Body holds the expression including the
// final end opcode.
type Func struct {
	Locals []ValType
	Body   []byte
	Type   uint32
}

// Table is a table definition
type Table struct {
	Limits
	Elem ValType
}

// Global is a mutable or immutable i32 global with a constant initializer
type Global struct {
	Init    int32
	Mutable bool
}

// Export names a definition
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Data is an active segment for memory 0
type Data struct {
	Init   []byte
	Offset int32
}

// Module is a core module under construction
type Module struct {
	Start    *uint32
	Types    []FuncType
	Imports  []Import
	Funcs    []Func
	Tables   []Table
	Memories []Limits
	Globals  []Global
	Exports  []Export
	Data     []Data
}

// FuncIndex returns the function index space position of the i-th
// defined function.
func (m *Module) FuncIndex(i int) uint32 {
	return uint32(len(m.Imports) + i)
}

// Export looks up an export by name
func (m *Module) Export(name string) (*Export, bool) {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return &m.Exports[i], true
		}
	}
	return nil, false
}

// RemoveExport drops an export by name. It reports whether one was removed.
func (m *Module) RemoveExport(name string) bool {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			m.Exports = append(m.Exports[:i], m.Exports[i+1:]...)
			return true
		}
	}
	return false
}
