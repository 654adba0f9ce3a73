package wasm

import (
	"bytes"
	"encoding/binary"
)

// Encode encodes the module to WebAssembly binary format
func (m *Module) Encode() []byte {
	var w bytes.Buffer

	// Magic number and version
	writeU32LE(&w, Magic)
	writeU32LE(&w, Version)

	// Type section
	if len(m.Types) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.WriteByte(funcTypeByte)
			writeValTypes(&sec, ft.Params)
			writeValTypes(&sec, ft.Results)
		}
		writeSection(&w, SectionType, sec.Bytes())
	}

	// Import section
	if len(m.Imports) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			writeName(&sec, imp.Module)
			writeName(&sec, imp.Name)
			sec.WriteByte(KindFunc)
			WriteLEB128u(&sec, imp.Type)
		}
		writeSection(&w, SectionImport, sec.Bytes())
	}

	// Function section
	if len(m.Funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			WriteLEB128u(&sec, f.Type)
		}
		writeSection(&w, SectionFunction, sec.Bytes())
	}

	// Table section
	if len(m.Tables) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Tables)))
		for _, t := range m.Tables {
			sec.WriteByte(byte(t.Elem))
			writeLimits(&sec, t.Limits)
		}
		writeSection(&w, SectionTable, sec.Bytes())
	}

	// Memory section
	if len(m.Memories) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			writeLimits(&sec, mem)
		}
		writeSection(&w, SectionMemory, sec.Bytes())
	}

	// Global section
	if len(m.Globals) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Globals)))
		for _, g := range m.Globals {
			sec.WriteByte(byte(ValI32))
			if g.Mutable {
				sec.WriteByte(1)
			} else {
				sec.WriteByte(0)
			}
			writeConstExpr(&sec, g.Init)
		}
		writeSection(&w, SectionGlobal, sec.Bytes())
	}

	// Export section
	if len(m.Exports) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			writeName(&sec, exp.Name)
			sec.WriteByte(exp.Kind)
			WriteLEB128u(&sec, exp.Idx)
		}
		writeSection(&w, SectionExport, sec.Bytes())
	}

	// Start section
	if m.Start != nil {
		var sec bytes.Buffer
		WriteLEB128u(&sec, *m.Start)
		writeSection(&w, SectionStart, sec.Bytes())
	}

	// Code section
	if len(m.Funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			var body bytes.Buffer
			writeLocals(&body, f.Locals)
			body.Write(f.Body)
			WriteLEB128u(&sec, uint32(body.Len()))
			sec.Write(body.Bytes())
		}
		writeSection(&w, SectionCode, sec.Bytes())
	}

	// Data section
	if len(m.Data) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Data)))
		for _, d := range m.Data {
			WriteLEB128u(&sec, 0) // active, memory 0
			writeConstExpr(&sec, d.Offset)
			WriteLEB128u(&sec, uint32(len(d.Init)))
			sec.Write(d.Init)
		}
		writeSection(&w, SectionData, sec.Bytes())
	}

	return w.Bytes()
}

func writeU32LE(w *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

func writeSection(w *bytes.Buffer, id byte, data []byte) {
	w.WriteByte(id)
	WriteLEB128u(w, uint32(len(data)))
	w.Write(data)
}

func writeName(w *bytes.Buffer, name string) {
	WriteLEB128u(w, uint32(len(name)))
	w.WriteString(name)
}

func writeValTypes(w *bytes.Buffer, types []ValType) {
	WriteLEB128u(w, uint32(len(types)))
	for _, t := range types {
		w.WriteByte(byte(t))
	}
}

func writeLimits(w *bytes.Buffer, l Limits) {
	if l.Max != nil {
		w.WriteByte(0x01)
		WriteLEB128u(w, l.Min)
		WriteLEB128u(w, *l.Max)
		return
	}
	w.WriteByte(0x00)
	WriteLEB128u(w, l.Min)
}

func writeConstExpr(w *bytes.Buffer, v int32) {
	w.WriteByte(OpI32Const)
	WriteLEB128s(w, v)
	w.WriteByte(OpEnd)
}

// writeLocals groups consecutive locals of one type into a single entry.
func writeLocals(w *bytes.Buffer, locals []ValType) {
	type group struct {
		n uint32
		t ValType
	}
	var groups []group
	for _, l := range locals {
		if len(groups) > 0 && groups[len(groups)-1].t == l {
			groups[len(groups)-1].n++
			continue
		}
		groups = append(groups, group{n: 1, t: l})
	}
	WriteLEB128u(w, uint32(len(groups)))
	for _, g := range groups {
		WriteLEB128u(w, g.n)
		w.WriteByte(byte(g.t))
	}
}
