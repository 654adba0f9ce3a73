package fixture

import (
	"crypto/sha256"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

// SelectorSize is the length of the verifier selector prefix on SP1 proofs.
const SelectorSize = 4

// Inspection summarizes a request without verifying it.
type Inspection struct {
	Scheme           verifier.Scheme
	Selector         string // 0x-hex of the proof prefix, empty when the proof is shorter
	ProofSize        int
	PublicInputsSize int

	// PublicValuesDigest is sha256(public inputs) with the top three bits
	// cleared, as committed in the proof's public input.
	PublicValuesDigest string
	DigestElement      string // decimal BN254 scalar

	// VKeyElement is the verifying key hash as a decimal BN254 scalar.
	VKeyElement string
}

// Inspect decodes the public parts of req. The verifying key hash must be
// a canonical 32-byte BN254 scalar.
func Inspect(req verifier.Request) (Inspection, error) {
	in := Inspection{
		Scheme:           req.Scheme,
		ProofSize:        len(req.Proof),
		PublicInputsSize: len(req.PublicInputs),
	}
	if len(req.Proof) >= SelectorSize {
		in.Selector = hexutil.Encode(req.Proof[:SelectorSize])
	}

	digest := PublicValuesDigest(req.PublicInputs)
	in.PublicValuesDigest = hexutil.Encode(digest[:])
	var d fr.Element
	if err := d.SetBytesCanonical(digest[:]); err != nil {
		return in, errors.Wrap(errors.PhaseValidate, errors.KindInvalidData, err, "public values digest out of field")
	}
	in.DigestElement = d.String()

	raw, err := hexutil.Decode(req.VerifyingKeyHash)
	if err != nil {
		return in, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("vkey_hash").
			Cause(err).
			Detail("invalid hex").
			Build()
	}
	var vk fr.Element
	if err := vk.SetBytesCanonical(raw); err != nil {
		return in, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("vkey_hash").
			Cause(err).
			Detail("not a canonical BN254 scalar").
			Build()
	}
	in.VKeyElement = vk.String()
	return in, nil
}

// PublicValuesDigest hashes public values the way SP1 commits them: sha256
// with the top three bits cleared so the digest fits the BN254 scalar field.
func PublicValuesDigest(publicValues []byte) [32]byte {
	d := sha256.Sum256(publicValues)
	d[0] &= 0x1f
	return d
}
