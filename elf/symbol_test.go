package elf_test

import (
	"errors"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/internal/elftest"
)

type SymbolSuite struct{}

func TestSymbol(t *testing.T) {
	suite.RunTests(t, &SymbolSuite{})
}

func buildSymbolTables(builder *elftest.Builder) {
	dynamic := elftest.NewSymbolTable(nil)
	dynamic.AddFunction("shared", 0x2000, 0x10)
	dynamic.Add(
		elftest.Symbol{
			Name:    "environ",
			Value:   0x3000,
			Size:    8,
			Binding: elf.SymbolBindingWeak,
			Type:    elf.SymbolTypeObject,
			Other:   byte(elf.SymbolVisibilityProtected),
		})
	builder.AddSymbolTable(elf.SectionTypeDynamicSymbolTable, dynamic)

	static := elftest.NewSymbolTable(nil)
	static.Add(
		elftest.Symbol{
			Name:    "file.c",
			Type:    elf.SymbolTypeSourceFile,
			Binding: elf.SymbolBindingLocal,
		})
	static.AddFunction("main", 0x1000, 0x20)
	static.AddFunction("helper", 0x1020, 0x10)
	static.AddFunction("shared", 0x2000, 0x10)
	static.AddFunction("_ZN3foo3barEv", 0x1030, 0x8)
	static.Add(
		elftest.Symbol{
			Name:  "broken",
			Value: 0x5000,
			Other: 7,
		})
	builder.AddSymbolTable(elf.SectionTypeSymbolTable, static)
}

func (SymbolSuite) TestSymbolTables(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		buildSymbolTables(builder)
		file := parse(t, builder)

		dynsym, err := file.DynamicSymbolTable()
		expect.Nil(t, err)
		expect.Equal(t, 3, len(dynsym.Symbols))
		expect.Equal(t, elf.SectionTypeDynamicSymbolTable, dynsym.SectionType)

		symtab, err := file.SymbolTable()
		expect.Nil(t, err)
		expect.Equal(t, 7, len(symtab.Symbols))

		null := symtab.Symbols[0]
		name, err := null.Name()
		expect.Nil(t, err)
		expect.Equal(t, "", name)

		environ := dynsym.Symbols[2]
		name, err = environ.Name()
		expect.Nil(t, err)
		expect.Equal(t, "environ", name)
		expect.Equal(t, 0x3000, environ.Value)
		expect.Equal(t, 8, environ.Size)
		expect.Equal(t, elf.SymbolTypeObject, environ.Type())
		expect.Equal(t, elf.SymbolBindingWeak, environ.Binding())
		expect.Equal(t, 2, environ.Index)

		visibility, err := environ.Visibility()
		expect.Nil(t, err)
		expect.Equal(t, elf.SymbolVisibilityProtected, visibility)

		source := symtab.Symbols[1]
		expect.Equal(t, elf.SymbolTypeSourceFile, source.Type())
		expect.Equal(t, elf.SymbolBindingLocal, source.Binding())

		broken := symtab.Symbols[6]
		_, err = broken.Visibility()
		expect.True(t, errors.Is(err, elf.ErrInvalidValue))
	})
}

func (SymbolSuite) TestSymbolByName(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		buildSymbolTables(builder)
		file := parse(t, builder)

		dynsym, err := file.DynamicSymbolTable()
		expect.Nil(t, err)

		symtab, err := file.SymbolTable()
		expect.Nil(t, err)

		// dynamic symbols take precedence
		symbol, err := file.SymbolByName("shared")
		expect.Nil(t, err)
		expect.True(t, symbol == dynsym.Symbols[1])

		symbol, err = file.SymbolByName("helper")
		expect.Nil(t, err)
		expect.True(t, symbol == symtab.Symbols[3])

		// Without any hash table, lookup is a plain scan.
		symbol, err = file.LookupSymbol("helper")
		expect.Nil(t, err)
		expect.True(t, symbol == symtab.Symbols[3])

		symbol, err = file.SymbolByName("missing")
		expect.Nil(t, err)
		expect.True(t, symbol == nil)

		symbol, err = file.SymbolByName("")
		expect.Nil(t, err)
		expect.True(t, symbol == nil)
	})
}

func (SymbolSuite) TestSymbolByAddress(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		buildSymbolTables(builder)
		file := parse(t, builder)

		for _, addr := range []uint64{0x1000, 0x1008, 0x101f} {
			symbol, err := file.SymbolSpanning(addr)
			expect.Nil(t, err)

			name, err := symbol.Name()
			expect.Nil(t, err)
			expect.Equal(t, "main", name)
		}

		symbol, err := file.SymbolSpanning(0x1020)
		expect.Nil(t, err)

		name, err := symbol.Name()
		expect.Nil(t, err)
		expect.Equal(t, "helper", name)

		symbol, err = file.SymbolSpanning(0x2004)
		expect.Nil(t, err)
		expect.Equal(t, elf.SectionTypeDynamicSymbolTable, symbol.Parent.SectionType)

		symbol, err = file.SymbolSpanning(0x4000)
		expect.Nil(t, err)
		expect.True(t, symbol == nil)

		symbol, err = file.FunctionSymbolAt(0x1020)
		expect.Nil(t, err)

		name, err = symbol.Name()
		expect.Nil(t, err)
		expect.Equal(t, "helper", name)

		// Only exact function symbol matches
		symbol, err = file.FunctionSymbolAt(0x1024)
		expect.Nil(t, err)
		expect.True(t, symbol == nil)

		symbol, err = file.FunctionSymbolAt(0x3000)
		expect.Nil(t, err)
		expect.True(t, symbol == nil)
	})
}

func (SymbolSuite) TestDemangle(t *testing.T) {
	builder := elftest.NewRISCV32()
	buildSymbolTables(builder)
	file := parse(t, builder)

	symbol, err := file.SymbolByName("_ZN3foo3barEv")
	expect.Nil(t, err)

	demangled, err := symbol.DemangledName()
	expect.Nil(t, err)
	expect.Equal(t, "foo::bar()", demangled)

	pretty, err := symbol.PrettyName()
	expect.Nil(t, err)
	expect.Equal(t, "foo::bar()", pretty)

	symbol, err = file.SymbolByName("main")
	expect.Nil(t, err)

	demangled, err = symbol.DemangledName()
	expect.Nil(t, err)
	expect.Equal(t, "", demangled)

	pretty, err = symbol.PrettyName()
	expect.Nil(t, err)
	expect.Equal(t, "main", pretty)
}

func (SymbolSuite) TestMissingStringTable(t *testing.T) {
	builder := elftest.NewRISCV32()
	symbols := elftest.NewSymbolTable(nil)
	symbols.AddFunction("main", 0x1000, 4)
	builder.AddSection(
		elftest.Section{
			Name:      ".symtab",
			Type:      elf.SectionTypeSymbolTable,
			EntrySize: elf.Elf32SymbolEntrySize,
			Content:   builder.EncodeSymbols(symbols),
		})

	file := parse(t, builder)

	symtab, err := file.SymbolTable()
	expect.Nil(t, err)

	_, err = symtab.Symbols[1].Name()
	expect.True(t, errors.Is(err, elf.ErrSectionNotFound))
}
