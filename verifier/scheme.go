package verifier

import (
	"strings"

	"github.com/wippyai/sp1-wasm-verifier/engine"
	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// Scheme selects the proof system.
type Scheme string

const (
	Groth16 Scheme = "groth16"
	Plonk   Scheme = "plonk"
)

// Schemes lists the supported proof systems.
var Schemes = []Scheme{Groth16, Plonk}

// ParseScheme accepts a scheme name in any case.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case Groth16:
		return Groth16, nil
	case Plonk:
		return Plonk, nil
	}
	return "", errors.New(errors.PhaseValidate, errors.KindInvalidInput).
		Path("scheme").
		Value(s).
		Detail("unknown scheme %q (want groth16 or plonk)", s).
		Build()
}

// Entry returns the module export implementing the scheme, or "" for an
// unknown scheme.
func (s Scheme) Entry() string {
	switch s {
	case Groth16:
		return engine.ExportVerifyGroth16
	case Plonk:
		return engine.ExportVerifyPlonk
	}
	return ""
}

func (s Scheme) String() string {
	return string(s)
}

func schemeForEntry(entry string) (Scheme, bool) {
	for _, s := range Schemes {
		if s.Entry() == entry {
			return s, true
		}
	}
	return "", false
}
