// Package options contains the program options.
package options

// Defaults applied before flags and config files are read.
const (
	DefaultFormat  = "text"
	DefaultVersion = "2.7"
)

// Program options of the disassembler.
type Program struct {
	Input  string // compiled bytecode file to disassemble
	Output string // output file, stdout if empty
	Config string // optional TOML config file

	Format  string // token stream output format: text, json, cbor
	Version string // bytecode version selecting the opcode table

	Debug bool
	Quiet bool
}
