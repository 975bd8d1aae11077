package riscv

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pattyshack/rvdis/elf"
)

const (
	instructionSize = 4

	// Width of the "<label>" column.  Longer labels push the mnemonic right.
	labelWidth = 9

	mnemonicWidth = 8
)

type Option func(*Disassembler)

// WithDemangledNames renders c++ / rust symbol names in demangled form.
func WithDemangledNames() Option {
	return func(disassembler *Disassembler) {
		disassembler.demangle = true
	}
}

// Line is a single listing line.
type Line struct {
	Address uint64
	DecodedInstruction

	Operands []string

	// Name of the function symbol starting at Address, if any.
	Label string

	// Absolute target of jal / branch instructions.
	HasTarget   bool
	Target      uint64
	TargetLabel string
}

func (line Line) String() string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "%08X:", line.Address)

	if line.Label != "" {
		fmt.Fprintf(builder, "%*s", labelWidth, "<"+line.Label+">")
	} else {
		builder.WriteString(strings.Repeat(" ", labelWidth))
	}

	fmt.Fprintf(builder, "%*s", mnemonicWidth, line.Mnemonic)

	if len(line.Operands) > 0 {
		builder.WriteString("\t")
		builder.WriteString(strings.Join(line.Operands, ", "))
	}

	if line.HasTarget {
		fmt.Fprintf(builder, "\t#0x%08X", line.Target)
		if line.TargetLabel != "" {
			builder.WriteString(" <" + line.TargetLabel + ">")
		}
	}

	return builder.String()
}

// Disassembler decodes the .text section of a 32-bit risc-v elf file.
//
// Like elf.File, a Disassembler is not safe for concurrent use.
type Disassembler struct {
	file *elf.File
	text elf.Section

	demangle bool
}

func New(file *elf.File, options ...Option) (*Disassembler, error) {
	if file.Class != elf.Class32 {
		return nil, fmt.Errorf(
			"%w: expected 32-bit elf file, found %s",
			ErrUnsupportedFile,
			file.Class)
	}

	if file.MachineArchitecture != elf.MachineArchitectureRISCV {
		return nil, fmt.Errorf(
			"%w: expected risc-v elf file, found %s",
			ErrUnsupportedFile,
			file.MachineArchitecture)
	}

	text, err := file.FirstSectionByName(elf.TextSectionName)
	if err != nil {
		return nil, err
	}

	if text == nil {
		return nil, fmt.Errorf(
			"%w: %s section not found",
			ErrUnsupportedFile,
			elf.TextSectionName)
	}

	header := text.Header()
	if header.SectionType == elf.SectionTypeNoSpace {
		return nil, fmt.Errorf(
			"%w: %s section has no file content",
			ErrUnsupportedFile,
			elf.TextSectionName)
	}

	if header.Size%instructionSize != 0 {
		return nil, fmt.Errorf(
			"%w: %s section size (%d) is not a multiple of %d",
			ErrUnsupportedFile,
			elf.TextSectionName,
			header.Size,
			instructionSize)
	}

	disassembler := &Disassembler{
		file: file,
		text: text,
	}

	for _, option := range options {
		option(disassembler)
	}

	return disassembler, nil
}

// TextRange returns the .text section's [start, end) virtual address range.
func (disassembler *Disassembler) TextRange() (uint64, uint64) {
	header := disassembler.text.Header()
	return header.Address, header.Address + header.Size
}

// Disassemble decodes the whole .text section.  Any undecodable word aborts
// the pass.
func (disassembler *Disassembler) Disassemble() ([]Line, error) {
	start, end := disassembler.TextRange()
	return disassembler.disassemble(start, int((end-start)/instructionSize))
}

// DisassembleRange decodes up to count instructions starting at address,
// stopping early at the end of .text.
func (disassembler *Disassembler) DisassembleRange(
	address uint64,
	count int,
) (
	[]Line,
	error,
) {
	if count < 0 {
		return nil, fmt.Errorf(
			"%w: invalid number of instructions to disassemble: %d",
			elf.ErrInvalidValue,
			count)
	}

	start, end := disassembler.TextRange()
	if address < start || address >= end {
		return nil, fmt.Errorf(
			"%w: address %#x is outside of %s [%#x, %#x)",
			elf.ErrAddressNotMapped,
			address,
			elf.TextSectionName,
			start,
			end)
	}

	if (address-start)%instructionSize != 0 {
		return nil, fmt.Errorf(
			"%w: address %#x is not instruction aligned",
			elf.ErrInvalidValue,
			address)
	}

	remaining := int((end - address) / instructionSize)
	if count > remaining {
		count = remaining
	}

	return disassembler.disassemble(address, count)
}

func (disassembler *Disassembler) disassemble(
	address uint64,
	count int,
) (
	[]Line,
	error,
) {
	header := disassembler.text.Header()
	reader := disassembler.file.Reader()

	result := make([]Line, 0, count)
	for idx := 0; idx < count; idx++ {
		// The reader's cursor is shared.  Symbol resolution may move it.
		err := reader.Seek(header.Offset + (address - header.Address))
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read instruction at 0x%08x: %w",
				address,
				err)
		}

		word, err := reader.U32()
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read instruction at 0x%08x: %w",
				address,
				err)
		}

		line, err := disassembler.decodeLine(address, word)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to disassemble instruction at 0x%08x: %w",
				address,
				err)
		}

		result = append(result, line)
		address += instructionSize
	}

	return result, nil
}

func (disassembler *Disassembler) decodeLine(address uint64, word uint32) (Line, error) {
	decoded, err := Decode(word)
	if err != nil {
		return Line{}, err
	}

	operands, err := decoded.Operands()
	if err != nil {
		return Line{}, err
	}

	line := Line{
		Address:            address,
		DecodedInstruction: decoded,
		Operands:           operands,
	}

	line.Label, err = disassembler.functionName(address)
	if err != nil {
		return Line{}, err
	}

	line.Target, line.HasTarget = decoded.Target(address)
	if line.HasTarget {
		line.TargetLabel, err = disassembler.functionName(line.Target)
		if err != nil {
			return Line{}, err
		}
	}

	return line, nil
}

// functionName returns the name of the function symbol whose value is
// exactly address, or an empty string.
func (disassembler *Disassembler) functionName(address uint64) (string, error) {
	symbol, err := disassembler.file.FunctionSymbolAt(address)
	if err != nil || symbol == nil {
		return "", err
	}

	if disassembler.demangle {
		return symbol.PrettyName()
	}
	return symbol.Name()
}

// WriteListing writes the whole .text listing, one instruction per line.
// Nothing is written if any instruction fails to decode.
func (disassembler *Disassembler) WriteListing(output io.Writer) error {
	lines, err := disassembler.Disassemble()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(output)
	for _, line := range lines {
		_, err := writer.WriteString(line.String() + "\n")
		if err != nil {
			return err
		}
	}

	return writer.Flush()
}
