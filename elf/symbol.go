package elf

import (
	"fmt"

	"github.com/ianlancetaylor/demangle"
)

type Symbol struct {
	SymbolEntry

	Parent *SymbolTableSection
	Index  int
}

func (symbol *Symbol) Type() SymbolType {
	return SymbolInfoToType(symbol.Info)
}

func (symbol *Symbol) Binding() SymbolBinding {
	return SymbolInfoToBinding(symbol.Info)
}

func (symbol *Symbol) Visibility() (SymbolVisibility, error) {
	if symbol.Other > byte(SymbolVisibilityProtected) {
		return 0, fmt.Errorf(
			"%w: unsupported symbol visibility (st_other = %d)",
			ErrInvalidValue,
			symbol.Other)
	}

	return SymbolVisibility(symbol.Other), nil
}

// Name resolves st_name through .strtab for SHT_SYMTAB symbols and through
// .dynstr for SHT_DYNSYM symbols.  Unnamed symbols (st_name = 0) return an
// empty string.
func (symbol *Symbol) Name() (string, error) {
	if symbol.NameIndex == 0 {
		return "", nil
	}

	file := symbol.Parent.file

	var table *StringTableSection
	var err error
	switch symbol.Parent.SectionType {
	case SectionTypeSymbolTable:
		table, err = file.StringTable()
	case SectionTypeDynamicSymbolTable:
		table, err = file.DynamicStringTable()
	}

	if err != nil {
		return "", fmt.Errorf("failed to resolve symbol name: %w", err)
	}

	if table == nil {
		return "", fmt.Errorf(
			"%w: no string table for %s symbols",
			ErrSectionNotFound,
			symbol.Parent.SectionType)
	}

	return table.Get(symbol.NameIndex)
}

// DemangledName returns the human readable c++ / rust name, or an empty
// string if the name is not mangled.
func (symbol *Symbol) DemangledName() (string, error) {
	name, err := symbol.Name()
	if err != nil {
		return "", err
	}

	demangled, err := demangle.ToString(name)
	if err != nil {
		return "", nil
	}

	return demangled, nil
}

func (symbol *Symbol) PrettyName() (string, error) {
	demangled, err := symbol.DemangledName()
	if err != nil {
		return "", err
	}

	if demangled != "" {
		return demangled, nil
	}

	return symbol.Name()
}

func (symbol *Symbol) Spans(address uint64) bool {
	return symbol.Value <= address && address-symbol.Value < symbol.Size
}

type SymbolTableSection struct {
	BaseSection

	Symbols []*Symbol
}

func (file *File) parseSymbolTable(
	header SectionHeaderEntry,
) (
	*SymbolTableSection,
	error,
) {
	if header.EntrySize == 0 {
		return nil, fmt.Errorf(
			"%w: symbol table has zero entry size",
			ErrInvalidFormat)
	}

	table := &SymbolTableSection{
		BaseSection: newBaseSection(file, header),
	}

	numEntries := header.Size / header.EntrySize
	if numEntries*header.EntrySize > file.reader.Len() {
		return nil, fmt.Errorf(
			"%w: symbol table too large (%d entries)",
			ErrTruncated,
			numEntries)
	}

	table.Symbols = make([]*Symbol, 0, numEntries)
	for idx := uint64(0); idx < numEntries; idx++ {
		entry, err := file.parseSymbolEntry(header.Offset + idx*header.EntrySize)
		if err != nil {
			return nil, fmt.Errorf("failed to parse symbol %d: %w", idx, err)
		}

		table.Symbols = append(
			table.Symbols,
			&Symbol{
				SymbolEntry: entry,
				Parent:      table,
				Index:       int(idx),
			})
	}

	return table, nil
}

func (file *File) parseSymbolEntry(offset uint64) (SymbolEntry, error) {
	entry := SymbolEntry{}
	reader := file.reader

	err := reader.Seek(offset)
	if err != nil {
		return entry, err
	}

	entry.NameIndex, err = reader.U32()
	if err != nil {
		return entry, err
	}

	// Elf32_Sym places st_value / st_size before st_info, Elf64_Sym after
	// st_shndx.
	if file.Class == Class32 {
		entry.Value, err = reader.WordOrDword()
		if err != nil {
			return entry, err
		}

		entry.Size, err = reader.WordOrDword()
		if err != nil {
			return entry, err
		}
	}

	entry.Info, err = reader.U8()
	if err != nil {
		return entry, err
	}

	entry.Other, err = reader.U8()
	if err != nil {
		return entry, err
	}

	sectionIndex, err := reader.U16()
	if err != nil {
		return entry, err
	}
	entry.SectionIndex = SectionIndex(sectionIndex)

	if file.Class == Class64 {
		entry.Value, err = reader.WordOrDword()
		if err != nil {
			return entry, err
		}

		entry.Size, err = reader.WordOrDword()
		if err != nil {
			return entry, err
		}
	}

	return entry, nil
}

func (table *SymbolTableSection) SymbolByName(name string) (*Symbol, error) {
	for _, symbol := range table.Symbols {
		if symbol.NameIndex == 0 {
			continue
		}

		symbolName, err := symbol.Name()
		if err != nil {
			return nil, err
		}

		if symbolName == name {
			return symbol, nil
		}
	}

	return nil, nil
}

// SymbolSpans returns the first symbol whose [st_value, st_value + st_size)
// range contains address.
func (table *SymbolTableSection) SymbolSpans(address uint64) *Symbol {
	for _, symbol := range table.Symbols {
		if symbol.Spans(address) {
			return symbol
		}
	}

	return nil
}

// FunctionAt returns the first function symbol whose value is address.
func (table *SymbolTableSection) FunctionAt(address uint64) *Symbol {
	for _, symbol := range table.Symbols {
		if symbol.Type() == SymbolTypeFunction && symbol.Value == address {
			return symbol
		}
	}

	return nil
}
