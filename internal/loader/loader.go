// Package loader handles compiled bytecode file loading operations.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
)

// Loader reads compiled bytecode files of one bytecode version.
type Loader struct {
	opc *opcode.Table
}

// New creates a new bytecode file loader.
func New(table *opcode.Table) *Loader {
	return &Loader{opc: table}
}

// LoadFile loads and deserializes a compiled bytecode file from disk.
func (l *Loader) LoadFile(path string) (*codeunit.CodeUnit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	cu, err := l.Load(file)
	if err != nil {
		return nil, fmt.Errorf("loading file %s: %w", path, err)
	}
	return cu, nil
}

// Load deserializes a compiled bytecode stream: the magic word, the
// modification timestamp and the serialized module code object.
func (l *Loader) Load(r io.Reader) (*codeunit.CodeUnit, error) {
	d := &decoder{
		r:   bufio.NewReader(r),
		opc: l.opc,
	}

	magic, err := d.readUint32()
	if err != nil {
		return nil, fmt.Errorf("reading magic word: %w", err)
	}
	if magic != l.opc.Magic {
		return nil, fmt.Errorf("unsupported magic word 0x%08x, version %s expects 0x%08x",
			magic, l.opc.Version, l.opc.Magic)
	}

	// the embedded source modification time carries no information for
	// disassembly
	if _, err := d.readUint32(); err != nil {
		return nil, fmt.Errorf("reading modification time: %w", err)
	}

	obj, err := d.readObject()
	if err != nil {
		return nil, err
	}
	if obj.Kind != codeunit.KindCode {
		return nil, fmt.Errorf("top level object is not a code object")
	}
	return obj.Code, nil
}
