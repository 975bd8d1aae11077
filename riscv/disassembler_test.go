package riscv_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/internal/elftest"
	"github.com/pattyshack/rvdis/riscv"
)

type function struct {
	name    string
	address uint64
}

func newProgram(
	address uint64,
	words []uint32,
	functions ...function,
) *elftest.Builder {
	builder := elftest.NewRISCV32()
	builder.Entry = address
	builder.AddSection(
		elftest.Section{
			Name:      elf.TextSectionName,
			Type:      elf.SectionTypeProgramDefinedInfo,
			Flags:     elf.SectionOccupiesMemory | elf.SectionContainsInstructions,
			Address:   address,
			Alignment: 4,
			Content:   builder.EncodeU32s(words...),
		})

	if len(functions) > 0 {
		symbols := elftest.NewSymbolTable(nil)
		for _, function := range functions {
			symbols.AddFunction(function.name, function.address, 4)
		}
		builder.AddSymbolTable(elf.SectionTypeSymbolTable, symbols)
	}

	return builder
}

func parseProgram(t *testing.T, builder *elftest.Builder) *elf.File {
	file, err := elf.ParseBytes(builder.Build())
	expect.Nil(t, err)
	return file
}

func newDisassembler(
	t *testing.T,
	builder *elftest.Builder,
	options ...riscv.Option,
) *riscv.Disassembler {
	disassembler, err := riscv.New(parseProgram(t, builder), options...)
	expect.Nil(t, err)
	return disassembler
}

func listing(t *testing.T, disassembler *riscv.Disassembler) string {
	buffer := &bytes.Buffer{}
	err := disassembler.WriteListing(buffer)
	expect.Nil(t, err)
	return buffer.String()
}

type DisassemblerSuite struct{}

func TestDisassembler(t *testing.T) {
	suite.RunTests(t, &DisassemblerSuite{})
}

func (DisassemblerSuite) TestSingleInstruction(t *testing.T) {
	disassembler := newDisassembler(t, newProgram(0x1000, []uint32{0x00150513}))

	expect.Equal(t, "00001000:             addi\ta0, a0, 1\n", listing(t, disassembler))
}

func (DisassemblerSuite) TestJumpToFunction(t *testing.T) {
	words := []uint32{
		0x010000ef,                // jal ra, 16
		encodeB(1, 10, 0, -4),     // bne a0, zero, -4
		0x00000073,                // ecall
		encodeI(0x13, 0, 0, 0, 0), // addi zero, zero, 0
		0x00008067,                // jalr zero, ra, 0
	}

	disassembler := newDisassembler(
		t,
		newProgram(
			0x2000,
			words,
			function{"main", 0x2000},
			function{"foo", 0x2010}))

	expected := strings.Join(
		[]string{
			"00002000:   <main>     jal\tra, 16\t#0x00002010 <foo>",
			"00002004:              bne\ta0, zero, -4\t#0x00002000 <main>",
			"00002008:            ecall",
			"0000200C:             addi\tzero, zero, 0",
			"00002010:    <foo>    jalr\tzero, ra, 0",
			"",
		},
		"\n")

	expect.Equal(t, expected, listing(t, disassembler))
}

func (DisassemblerSuite) TestUppercaseHex(t *testing.T) {
	disassembler := newDisassembler(
		t,
		newProgram(
			0xabc0,
			[]uint32{0x00150513, encodeJ(0, 0x40)},
			function{"f", 0xabc4}))

	expected := "0000ABC0:             addi\ta0, a0, 1\n" +
		"0000ABC4:      <f>     jal\tzero, 64\t#0x0000AC04\n"
	expect.Equal(t, expected, listing(t, disassembler))
}

func (DisassemblerSuite) TestTargetWithoutSymbol(t *testing.T) {
	disassembler := newDisassembler(
		t,
		newProgram(0x1000, []uint32{encodeJ(0, 0x100)}))

	lines, err := disassembler.Disassemble()
	expect.Nil(t, err)
	expect.Equal(t, 1, len(lines))

	line := lines[0]
	expect.True(t, line.HasTarget)
	expect.Equal(t, uint64(0x1100), line.Target)
	expect.Equal(t, "", line.TargetLabel)
	expect.Equal(t, "00001000:              jal\tzero, 256\t#0x00001100", line.String())
}

func (DisassemblerSuite) TestLongLabel(t *testing.T) {
	disassembler := newDisassembler(
		t,
		newProgram(
			0x1000,
			[]uint32{0x00000073},
			function{"initialize", 0x1000}))

	expect.Equal(t, "00001000:<initialize>   ecall\n", listing(t, disassembler))
}

func (DisassemblerSuite) TestDemangledNames(t *testing.T) {
	builder := newProgram(
		0x1000,
		[]uint32{encodeJ(1, 4), 0x00000073},
		function{"_ZN3foo3barEv", 0x1004})

	lines, err := newDisassembler(t, builder).Disassemble()
	expect.Nil(t, err)
	expect.Equal(t, "_ZN3foo3barEv", lines[0].TargetLabel)
	expect.Equal(t, "_ZN3foo3barEv", lines[1].Label)

	disassembler := newDisassembler(t, builder, riscv.WithDemangledNames())
	lines, err = disassembler.Disassemble()
	expect.Nil(t, err)
	expect.Equal(t, "foo::bar()", lines[0].TargetLabel)
	expect.Equal(t, "foo::bar()", lines[1].Label)
}

func (DisassemblerSuite) TestUnknownInstruction(t *testing.T) {
	disassembler := newDisassembler(
		t,
		newProgram(0x1000, []uint32{0x00150513, 0xffffffff, 0x00000073}))

	buffer := &bytes.Buffer{}
	err := disassembler.WriteListing(buffer)
	expect.Error(t, err, "at 0x00001004")
	expect.True(t, errors.Is(err, riscv.ErrUnknownInstruction))
	expect.Equal(t, 0, buffer.Len())
}

func (DisassemblerSuite) TestBigEndianText(t *testing.T) {
	builder := elftest.New(elf.Class32, elf.DataEncodingTwosComplementBigEndian)
	builder.Machine = elf.MachineArchitectureRISCV
	builder.AddSection(
		elftest.Section{
			Name:    elf.TextSectionName,
			Type:    elf.SectionTypeProgramDefinedInfo,
			Address: 0x1000,
			Content: builder.EncodeU32s(0x00150513),
		})

	disassembler := newDisassembler(t, builder)
	expect.Equal(t, "00001000:             addi\ta0, a0, 1\n", listing(t, disassembler))
}

func (DisassemblerSuite) TestDisassembleRange(t *testing.T) {
	words := []uint32{
		0x00150513,
		encodeR(riscv.OpcodeArithmetic, 0, 1, 10, 10, 11), // mul a0, a0, a1
		encodeS(riscv.OpcodeStore, 2, 2, 10, 4),           // sw a0, 4(sp)
		0x00000073,
	}
	disassembler := newDisassembler(t, newProgram(0x1000, words))

	start, end := disassembler.TextRange()
	expect.Equal(t, uint64(0x1000), start)
	expect.Equal(t, uint64(0x1010), end)

	lines, err := disassembler.DisassembleRange(0x1004, 2)
	expect.Nil(t, err)
	expect.Equal(t, 2, len(lines))
	expect.Equal(t, "mul a0, a0, a1", lines[0].DecodedInstruction.String())
	expect.Equal(t, "sw a0, 4(sp)", lines[1].DecodedInstruction.String())
	expect.Equal(t, uint64(0x1008), lines[1].Address)

	lines, err = disassembler.DisassembleRange(0x1008, 100)
	expect.Nil(t, err)
	expect.Equal(t, 2, len(lines))
	expect.Equal(t, "ecall", lines[1].Mnemonic)

	lines, err = disassembler.DisassembleRange(0x1000, 0)
	expect.Nil(t, err)
	expect.Equal(t, 0, len(lines))

	_, err = disassembler.DisassembleRange(0x1010, 1)
	expect.True(t, errors.Is(err, elf.ErrAddressNotMapped))

	_, err = disassembler.DisassembleRange(0xffc, 1)
	expect.True(t, errors.Is(err, elf.ErrAddressNotMapped))

	_, err = disassembler.DisassembleRange(0x1002, 1)
	expect.True(t, errors.Is(err, elf.ErrInvalidValue))

	_, err = disassembler.DisassembleRange(0x1000, -1)
	expect.True(t, errors.Is(err, elf.ErrInvalidValue))
}

func (DisassemblerSuite) TestEmptyText(t *testing.T) {
	disassembler := newDisassembler(t, newProgram(0x1000, nil))
	expect.Equal(t, "", listing(t, disassembler))
}

func (DisassemblerSuite) TestUnsupportedFiles(t *testing.T) {
	builder := newProgram(0x1000, []uint32{0x73})
	builder.Class = elf.Class64
	_, err := riscv.New(parseProgram(t, builder))
	expect.Error(t, err, "expected 32-bit elf file")
	expect.True(t, errors.Is(err, riscv.ErrUnsupportedFile))

	builder = newProgram(0x1000, []uint32{0x73})
	builder.Machine = elf.MachineArchitectureX86_64
	_, err = riscv.New(parseProgram(t, builder))
	expect.Error(t, err, "expected risc-v elf file")
	expect.True(t, errors.Is(err, riscv.ErrUnsupportedFile))

	builder = elftest.NewRISCV32()
	builder.AddSection(
		elftest.Section{
			Name:    ".data",
			Type:    elf.SectionTypeProgramDefinedInfo,
			Content: []byte{1, 2, 3, 4},
		})
	_, err = riscv.New(parseProgram(t, builder))
	expect.Error(t, err, ".text section not found")
	expect.True(t, errors.Is(err, riscv.ErrUnsupportedFile))

	builder = elftest.NewRISCV32()
	builder.AddSection(
		elftest.Section{
			Name:    elf.TextSectionName,
			Type:    elf.SectionTypeNoSpace,
			Address: 0x1000,
			Size:    16,
		})
	_, err = riscv.New(parseProgram(t, builder))
	expect.Error(t, err, "has no file content")
	expect.True(t, errors.Is(err, riscv.ErrUnsupportedFile))

	builder = elftest.NewRISCV32()
	builder.AddSection(
		elftest.Section{
			Name:    elf.TextSectionName,
			Type:    elf.SectionTypeProgramDefinedInfo,
			Address: 0x1000,
			Content: []byte{0x73, 0, 0, 0, 0x13, 0},
		})
	_, err = riscv.New(parseProgram(t, builder))
	expect.Error(t, err, "is not a multiple of 4")
	expect.True(t, errors.Is(err, riscv.ErrUnsupportedFile))
}
