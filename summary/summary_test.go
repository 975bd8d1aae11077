package summary_test

import (
	"strings"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
	"gopkg.in/yaml.v3"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/internal/elftest"
	"github.com/pattyshack/rvdis/summary"
)

type SummarySuite struct{}

func TestSummary(t *testing.T) {
	suite.RunTests(t, &SummarySuite{})
}

const interpreter = "/lib/ld-linux-riscv32-ilp32d.so.1"

func buildFile(t *testing.T) *elf.File {
	builder := elftest.NewRISCV32()
	builder.FileType = elf.FileTypeSharedObject
	builder.Entry = 0x1000

	builder.AddSection(
		elftest.Section{
			Name:      elf.TextSectionName,
			Type:      elf.SectionTypeProgramDefinedInfo,
			Flags:     elf.SectionOccupiesMemory | elf.SectionContainsInstructions,
			Address:   0x1000,
			Alignment: 4,
			Content:   builder.EncodeU32s(0x00150513, 0x00008067),
		})

	builder.AddSection(
		elftest.Section{
			Name:    ".interp",
			Type:    elf.SectionTypeProgramDefinedInfo,
			Flags:   elf.SectionOccupiesMemory,
			Address: 0x400,
			Content: []byte(interpreter + "\x00"),
		})
	builder.AddSegment(
		elftest.Segment{
			Type:    elf.ProgramInterpreterPath,
			Flags:   elf.ProgramFlagReadableBit,
			Section: ".interp",
		})

	names := elftest.NewStringTable()
	libc := names.Add("libc.so.6")
	soname := names.Add("libfoo.so.1")
	builder.AddSection(
		elftest.Section{
			Name:    elf.DynamicStringTableName,
			Type:    elf.SectionTypeStringTable,
			Flags:   elf.SectionOccupiesMemory,
			Address: 0x3000,
			Content: names.Bytes(),
		})
	builder.AddSegment(
		elftest.Segment{
			Type:      elf.ProgramLoadable,
			Flags:     elf.ProgramFlagReadableBit,
			Section:   elf.DynamicStringTableName,
			Alignment: 0x1000,
		})

	builder.AddSection(
		elftest.Section{
			Name:      ".dynamic",
			Type:      elf.SectionTypeDynamic,
			Link:      builder.SectionIndex(elf.DynamicStringTableName),
			EntrySize: builder.DynamicEntrySize(),
			Content: builder.EncodeDynamic(
				[]elf.DynamicEntry{
					{elf.DynamicTagNeeded, uint64(libc)},
					{elf.DynamicTagSharedObjectName, uint64(soname)},
					{elf.DynamicTagStringTable, 0x3000},
					{elf.DynamicTagStringTableSize, uint64(len(names.Bytes()))},
					{elf.DynamicTagFlags, uint64(elf.DynamicFlagBindNow)},
					{elf.DynamicTagNull, 0},
				}),
		})

	builder.AddSection(
		elftest.Section{
			Name: ".note.gnu.build-id",
			Type: elf.SectionTypeNote,
			Content: builder.EncodeNote(
				"GNU",
				uint32(elf.NoteTypeGNUBuildID),
				[]byte{0xde, 0xad, 0xbe, 0xef}),
		})

	symbols := elftest.NewSymbolTable(nil)
	symbols.AddFunction("main", 0x1000, 8)
	symbols.AddFunction("_ZN3foo3barEv", 0x1004, 4)
	builder.AddSymbolTable(elf.SectionTypeSymbolTable, symbols)

	file, err := elf.ParseBytes(builder.Build())
	expect.Nil(t, err)
	return file
}

func (SummarySuite) TestReport(t *testing.T) {
	report, err := summary.New(buildFile(t))
	expect.Nil(t, err)

	expect.Equal(t, "Class32", report.Header.Class)
	expect.Equal(t, "SharedObject", report.Header.FileType)
	expect.Equal(t, "risc-v", report.Header.MachineArchitecture)
	expect.Equal(t, "0x1000", report.Header.EntryPointAddress)
	expect.Equal(t, interpreter, report.Interpreter)

	// null section, 6 added sections, .shstrtab
	expect.Equal(t, 8, len(report.Sections))
	expect.Equal(t, "", report.Sections[0].Name)
	expect.Equal(t, elf.TextSectionName, report.Sections[1].Name)
	expect.Equal(t, "0x1000", report.Sections[1].Address)
	expect.Equal(t, uint64(8), report.Sections[1].Size)
	expect.Equal(t, ".shstrtab", report.Sections[7].Name)

	expect.Equal(t, 2, len(report.Segments))
	expect.Equal(t, "r--", report.Segments[0].Flags)
	expect.Equal(t, "0x400", report.Segments[0].VirtualAddress)

	expect.Equal(t, 1, len(report.Symbols))
	table := report.Symbols[0]
	expect.Equal(t, ".symtab", table.Section)
	expect.Equal(t, 3, len(table.Symbols))
	expect.Equal(t, "main", table.Symbols[1].Name)
	expect.Equal(t, "", table.Symbols[1].Demangled)
	expect.Equal(t, "foo::bar()", table.Symbols[2].Demangled)
	expect.Equal(t, "0x1004", table.Symbols[2].Value)

	expect.NotNil(t, report.Dynamic)
	expect.Equal(t, []string{"libc.so.6"}, report.Dynamic.Needed)
	expect.Equal(t, "libfoo.so.1", report.Dynamic.SharedObjectName)
	expect.Equal(t, "", report.Dynamic.RunPath)
	expect.Equal(t, "BIND_NOW", report.Dynamic.Flags)
	expect.Equal(t, 6, report.Dynamic.NumEntries)

	expect.Equal(t, 1, len(report.Notes))
	expect.Equal(t, "GNU", report.Notes[0].Owner)
	expect.Equal(t, "GNUBuildID", report.Notes[0].Type)
	expect.Equal(t, "deadbeef", report.BuildID)
	expect.Equal(t, "", report.ABITag)
}

func (SummarySuite) TestMarshal(t *testing.T) {
	report, err := summary.New(buildFile(t))
	expect.Nil(t, err)

	content, err := report.Marshal()
	expect.Nil(t, err)

	text := string(content)
	expect.True(t, strings.Contains(text, "soname: libfoo.so.1"))
	expect.True(t, strings.Contains(text, "interpreter: "+interpreter))
	expect.True(t, strings.Contains(text, "build_id: deadbeef"))
	expect.False(t, strings.Contains(text, "abi_tag"))

	decoded := &summary.Report{}
	err = yaml.Unmarshal(content, decoded)
	expect.Nil(t, err)
	expect.Equal(t, *report, *decoded)
}
