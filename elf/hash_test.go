package elf_test

import (
	"fmt"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/internal/elftest"
)

type HashSuite struct{}

func TestHash(t *testing.T) {
	suite.RunTests(t, &HashSuite{})
}

var hashedNames = []string{
	"printf",
	"exit",
	"syscall",
	"main",
	"malloc",
	"free",
	"memcpy",
	"strlen",
	"_start",
	"__libc_start_main",
	"_ZN3foo3barEv",
	"environ",
}

func (HashSuite) TestHashFunctions(t *testing.T) {
	expect.Equal(t, 0x1505, elf.GNUHash(""))
	expect.Equal(t, 0x156b2bb8, elf.GNUHash("printf"))
	expect.Equal(t, 0x7c967e3f, elf.GNUHash("exit"))
	expect.Equal(t, 0xbac212a0, elf.GNUHash("syscall"))
	// "\u00e9" is hashed as its two utf-8 bytes, 0xc3 0xa9.
	expect.Equal(t, 0x598411, elf.GNUHash("\u00e9"))

	expect.Equal(t, 0, elf.SysVHash(""))
	expect.Equal(t, 0x077905a6, elf.SysVHash("printf"))
	expect.Equal(t, 0x0006cf04, elf.SysVHash("exit"))
	expect.Equal(t, 0x0b09985c, elf.SysVHash("syscall"))
}

func buildGNUHashed(
	builder *elftest.Builder,
	numBuckets uint32,
) (
	[]string,
	uint32,
) {
	const symbolOffset = 2

	ordered := elftest.GNUHashLayout(hashedNames, numBuckets)

	dynamic := elftest.NewSymbolTable(nil)
	dynamic.Add(
		elftest.Symbol{
			Name:    "unhashed",
			Binding: elf.SymbolBindingGlobal,
			Type:    elf.SymbolTypeFunction,
		})
	for idx, name := range ordered {
		dynamic.AddFunction(name, 0x1000+uint64(idx)*0x10, 0x10)
	}
	dynsymIndex := builder.AddSymbolTable(
		elf.SectionTypeDynamicSymbolTable,
		dynamic)

	builder.AddSection(
		elftest.Section{
			Name:      ".gnu.hash",
			Type:      elf.SectionTypeGNUHashTable,
			Link:      dynsymIndex,
			Alignment: 8,
			Content: builder.EncodeGNUHashTable(
				ordered,
				symbolOffset,
				numBuckets,
				2,
				6),
		})

	return ordered, symbolOffset
}

func (HashSuite) TestGNUHashLookup(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		buildGNUHashed(builder, 4)
		file := parse(t, builder)

		section, err := file.FirstSectionByType(elf.SectionTypeGNUHashTable)
		expect.Nil(t, err)

		table, ok := section.(*elf.GNUHashTableSection)
		expect.True(t, ok)
		expect.Equal(t, 2, table.SymbolOffset)
		expect.Equal(t, 6, table.BloomShift)
		expect.Equal(t, 2, len(table.BloomFilter))
		expect.Equal(t, 4, len(table.Buckets))

		for _, name := range hashedNames {
			expect.True(t, table.MayContain(name))

			hashed, err := table.Lookup(name)
			expect.Nil(t, err)
			expect.NotNil(t, hashed)

			scanned, err := file.SymbolByName(name)
			expect.Nil(t, err)
			expect.True(t, hashed == scanned)

			looked, err := file.LookupSymbol(name)
			expect.Nil(t, err)
			expect.True(t, looked == scanned)
		}

		// Symbols below symoffset are not hashed.
		symbol, err := table.Lookup("unhashed")
		expect.Nil(t, err)
		expect.True(t, symbol == nil)

		rejected := 0
		for idx := 0; idx < 64; idx++ {
			name := fmt.Sprintf("absent_%d", idx)

			symbol, err := table.Lookup(name)
			expect.Nil(t, err)
			expect.True(t, symbol == nil)

			if !table.MayContain(name) {
				rejected++
			}

			scanned, err := file.SymbolByName(name)
			expect.Nil(t, err)
			expect.True(t, scanned == nil)
		}
		expect.True(t, rejected > 0)
	})
}

func (HashSuite) TestGNUHashSingleBucket(t *testing.T) {
	builder := elftest.NewRISCV32()
	buildGNUHashed(builder, 1)
	file := parse(t, builder)

	for _, name := range hashedNames {
		symbol, err := file.LookupSymbol(name)
		expect.Nil(t, err)
		expect.NotNil(t, symbol)

		symbolName, err := symbol.Name()
		expect.Nil(t, err)
		expect.Equal(t, name, symbolName)
	}
}

func (HashSuite) TestGNUHashBadSymbolOffset(t *testing.T) {
	builder := elftest.NewRISCV32()

	dynamic := elftest.NewSymbolTable(nil)
	dynamic.AddFunction("printf", 0x1000, 4)
	dynsymIndex := builder.AddSymbolTable(
		elf.SectionTypeDynamicSymbolTable,
		dynamic)

	builder.AddSection(
		elftest.Section{
			Name:    ".gnu.hash",
			Type:    elf.SectionTypeGNUHashTable,
			Link:    dynsymIndex,
			Content: builder.EncodeGNUHashTable([]string{"printf"}, 5, 1, 1, 5),
		})

	file := parse(t, builder)

	_, err := file.LookupSymbol("printf")
	expect.Error(t, err, "symoffset")
}

func (HashSuite) TestSysVHashLookup(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		names := append([]string{""}, hashedNames...)

		dynamic := elftest.NewSymbolTable(nil)
		for _, name := range hashedNames {
			dynamic.AddFunction(name, 0x1000, 4)
		}
		dynsymIndex := builder.AddSymbolTable(
			elf.SectionTypeDynamicSymbolTable,
			dynamic)

		builder.AddSection(
			elftest.Section{
				Name:    ".hash",
				Type:    elf.SectionTypeSymbolHashTable,
				Link:    dynsymIndex,
				Content: builder.EncodeSysVHashTable(names, 3),
			})

		file := parse(t, builder)

		section, err := file.FirstSectionByType(elf.SectionTypeSymbolHashTable)
		expect.Nil(t, err)

		table, ok := section.(*elf.HashTableSection)
		expect.True(t, ok)
		expect.Equal(t, 3, len(table.Buckets))
		expect.Equal(t, len(names), len(table.Chains))

		for idx, name := range hashedNames {
			symbol, err := table.Lookup(name)
			expect.Nil(t, err)
			expect.NotNil(t, symbol)
			expect.Equal(t, idx+1, symbol.Index)

			looked, err := file.LookupSymbol(name)
			expect.Nil(t, err)
			expect.True(t, looked == symbol)
		}

		symbol, err := table.Lookup("absent")
		expect.Nil(t, err)
		expect.True(t, symbol == nil)
	})
}

func (HashSuite) TestSysVHashCorruptedChain(t *testing.T) {
	builder := elftest.NewRISCV32()

	dynamic := elftest.NewSymbolTable(nil)
	dynamic.AddFunction("a", 0x1000, 4)
	dynsymIndex := builder.AddSymbolTable(
		elf.SectionTypeDynamicSymbolTable,
		dynamic)

	// bucket -> 1, chain[1] -> 1, ...
	builder.AddSection(
		elftest.Section{
			Name:    ".hash",
			Type:    elf.SectionTypeSymbolHashTable,
			Link:    dynsymIndex,
			Content: builder.EncodeU32s(1, 2, 1, 0, 1),
		})

	file := parse(t, builder)

	_, err := file.LookupSymbol("b")
	expect.Error(t, err, "corrupted hash chain")
}
