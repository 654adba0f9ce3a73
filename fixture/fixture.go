// Package fixture loads SP1 proof fixtures from disk or over HTTP and turns
// them into verification requests.
//
// A fixture is a YAML or JSON document:
//
//	name: fibonacci
//	scheme: groth16
//	proof: 0x...
//	public_inputs: 0x...
//	vkey_hash: 0x00...
//
// Byte fields are 0x-prefixed hex.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

// Fixture is a stored verification request.
type Fixture struct {
	Name         string `yaml:"name" json:"name"`
	Scheme       string `yaml:"scheme" json:"scheme"`
	Proof        string `yaml:"proof" json:"proof"`
	PublicInputs string `yaml:"public_inputs" json:"public_inputs"`
	VKeyHash     string `yaml:"vkey_hash" json:"vkey_hash"`
}

var extensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Load reads one fixture file. JSON is accepted as YAML. The name defaults
// to the file name without extension.
func Load(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, fmt.Sprintf("read fixture %q", path))
	}

	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, fmt.Sprintf("parse fixture %q", path))
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &f, nil
}

// LoadDir loads every fixture file in dir, sorted by name. A missing
// directory yields no fixtures.
func LoadDir(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, fmt.Sprintf("read fixture dir %q", dir))
	}

	var out []*Fixture
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		f, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save writes f as YAML to dir/<name>.yaml and returns the path.
func (f *Fixture) Save(dir string) (string, error) {
	if f.Name == "" || strings.ContainsAny(f.Name, `/\`) {
		return "", errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("invalid fixture name %q", f.Name))
	}
	raw, err := yaml.Marshal(f)
	if err != nil {
		return "", errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "encode fixture")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "create fixture dir")
	}
	path := filepath.Join(dir, f.Name+".yaml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "write fixture")
	}
	return path, nil
}

// Request decodes the fixture into a verification request.
func (f *Fixture) Request() (verifier.Request, error) {
	scheme, err := verifier.ParseScheme(f.Scheme)
	if err != nil {
		return verifier.Request{}, err
	}
	proof, err := DecodeHex("proof", f.Proof)
	if err != nil {
		return verifier.Request{}, err
	}
	inputs, err := DecodeHex("public_inputs", f.PublicInputs)
	if err != nil {
		return verifier.Request{}, err
	}
	if f.VKeyHash == "" {
		return verifier.Request{}, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(f.Name, "vkey_hash").
			Detail("missing verifying key hash").
			Build()
	}

	return verifier.Request{
		Scheme:           scheme,
		Proof:            proof,
		PublicInputs:     inputs,
		VerifyingKeyHash: f.VKeyHash,
	}, nil
}

// DecodeHex decodes a 0x-prefixed hex field. An empty string is empty bytes.
func DecodeHex(field, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(field).
			Cause(err).
			Detail("invalid hex").
			Build()
	}
	return b, nil
}
