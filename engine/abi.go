package engine

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// Host import module used by wasm-bindgen output.
const HostModule = "__wbindgen_placeholder__"

// Imports the guest expects from the host
const (
	ImportThrow        = "__wbindgen_throw"
	ImportInitRefTable = "__wbindgen_init_externref_table"
)

// Guest exports
const (
	ExportMemory        = "memory"
	ExportMalloc        = "__wbindgen_malloc"
	ExportRealloc       = "__wbindgen_realloc"
	ExportStart         = "__wbindgen_start"
	ExportVerifyGroth16 = "verify_groth16"
	ExportVerifyPlonk   = "verify_plonk"
)

type signature struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

func i32s(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = api.ValueTypeI32
	}
	return out
}

var (
	hostImports = map[string]signature{
		ImportThrow:        {params: i32s(2)},
		ImportInitRefTable: {},
	}

	requiredExports = []signature{
		{name: ExportMalloc, params: i32s(2), results: i32s(1)},
		{name: ExportRealloc, params: i32s(4), results: i32s(1)},
		{name: ExportVerifyGroth16, params: i32s(6), results: i32s(1)},
		{name: ExportVerifyPlonk, params: i32s(6), results: i32s(1)},
	}

	optionalExports = []signature{
		{name: ExportStart},
	}
)

func (s signature) matches(def api.FunctionDefinition) bool {
	return sameTypes(s.params, def.ParamTypes()) && sameTypes(s.results, def.ResultTypes())
}

func (s signature) String() string {
	return formatSignature(s.params, s.results)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatSignature(params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(") -> (")
	for i, r := range results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}

// abiDefinitions is the subset of wazero.CompiledModule the ABI check reads.
type abiDefinitions interface {
	ImportedFunctions() []api.FunctionDefinition
	ExportedFunctions() map[string]api.FunctionDefinition
	ExportedMemories() map[string]api.MemoryDefinition
}

// validateABI checks that a compiled module speaks the verifier ABI: every
// import is one the host provides with the expected signature, and every
// required export is present with the expected signature.
func validateABI(m abiDefinitions) error {
	for _, def := range m.ImportedFunctions() {
		module, name, _ := def.Import()
		sig, ok := hostImports[name]
		if module != HostModule || !ok {
			return errors.MissingImport(module, name)
		}
		if !sig.matches(def) {
			return errors.SignatureMismatch(name, sig.String(), formatSignature(def.ParamTypes(), def.ResultTypes()))
		}
	}

	if _, ok := m.ExportedMemories()[ExportMemory]; !ok {
		return errors.MissingExport(ExportMemory)
	}

	exports := m.ExportedFunctions()
	for _, sig := range requiredExports {
		def, ok := exports[sig.name]
		if !ok {
			return errors.MissingExport(sig.name)
		}
		if !sig.matches(def) {
			return errors.SignatureMismatch(sig.name, sig.String(), formatSignature(def.ParamTypes(), def.ResultTypes()))
		}
	}
	for _, sig := range optionalExports {
		if def, ok := exports[sig.name]; ok && !sig.matches(def) {
			return errors.SignatureMismatch(sig.name, sig.String(), formatSignature(def.ParamTypes(), def.ResultTypes()))
		}
	}
	return nil
}
