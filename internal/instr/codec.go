package instr

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Magic and FormatVersion identify the artifact format.
const (
	Magic         = "veil-instr"
	FormatVersion = 1
)

// ErrBadArtifact reports an artifact with a wrong header.
var ErrBadArtifact = errors.New("not a veil instruction artifact")

type artifact struct {
	Magic   string   `msgpack:"magic"`
	Version int      `msgpack:"version"`
	Program *Program `msgpack:"program"`
}

// Encode writes p as a msgpack artifact. Identical programs encode to
// identical bytes.
func Encode(w io.Writer, p *Program) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(artifact{Magic: Magic, Version: FormatVersion, Program: p})
}

// Marshal is Encode into a byte slice.
func Marshal(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an artifact written by Encode.
func Decode(r io.Reader) (*Program, error) {
	var a artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Magic != Magic {
		return nil, ErrBadArtifact
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadArtifact, a.Version, FormatVersion)
	}
	if a.Program == nil {
		return nil, fmt.Errorf("%w: empty program", ErrBadArtifact)
	}
	return a.Program, nil
}
