package elf

import (
	"fmt"
)

// Elf32_Rel / Elf32_Rela / Elf64_Rel / Elf64_Rela
type Relocation struct {
	Offset uint64 // r_offset
	Info   uint64 // r_info
	Addend int64  // r_addend.  Always zero for SHT_REL entries.

	class Class
}

// SymbolIndex returns ELF32_R_SYM / ELF64_R_SYM.
func (relocation Relocation) SymbolIndex() uint32 {
	if relocation.class == Class64 {
		return uint32(relocation.Info >> 32)
	}
	return uint32(relocation.Info >> 8)
}

// Type returns the machine specific ELF32_R_TYPE / ELF64_R_TYPE.
func (relocation Relocation) Type() uint32 {
	if relocation.class == Class64 {
		return uint32(relocation.Info)
	}
	return uint32(relocation.Info & 0xff)
}

// SHT_RELA / SHT_REL
type RelocationSection struct {
	BaseSection

	Entries []Relocation
}

func (section *RelocationSection) HasAddends() bool {
	return section.SectionType == SectionTypeRelocationWithAddends
}

// SymbolTable returns the sh_link symbol table the entries' symbol indices
// refer to.
func (section *RelocationSection) SymbolTable() (*SymbolTableSection, error) {
	linked, err := section.file.Section(int(section.Link))
	if err != nil {
		return nil, err
	}

	table, ok := linked.(*SymbolTableSection)
	if !ok {
		return nil, fmt.Errorf(
			"%w: relocation section's link (%d) is not a symbol table",
			ErrInvalidFormat,
			section.Link)
	}

	return table, nil
}

// Symbol returns the symbol referenced by relocation, or nil for
// relocations without a symbol (index 0).
func (section *RelocationSection) Symbol(relocation Relocation) (*Symbol, error) {
	idx := relocation.SymbolIndex()
	if idx == 0 {
		return nil, nil
	}

	table, err := section.SymbolTable()
	if err != nil {
		return nil, err
	}

	if int(idx) >= len(table.Symbols) {
		return nil, fmt.Errorf(
			"%w: relocation symbol index out of bound (%d >= %d)",
			ErrInvalidValue,
			idx,
			len(table.Symbols))
	}

	return table.Symbols[idx], nil
}

func (file *File) parseRelocations(
	header SectionHeaderEntry,
) (
	*RelocationSection,
	error,
) {
	section := &RelocationSection{
		BaseSection: newBaseSection(file, header),
	}

	wordSize := uint64(file.Class.WordSize())
	entrySize := 2 * wordSize
	if section.HasAddends() {
		entrySize += wordSize
	}

	if header.EntrySize != 0 && header.EntrySize != entrySize {
		return nil, fmt.Errorf(
			"%w: unexpected relocation entry size (%d != %d)",
			ErrInvalidFormat,
			header.EntrySize,
			entrySize)
	}

	reader := file.reader
	err := reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relocations: %w", err)
	}

	numEntries := header.Size / entrySize
	if numEntries*entrySize > reader.Len()-reader.Position() {
		return nil, fmt.Errorf(
			"%w: relocation section too large (%d entries)",
			ErrTruncated,
			numEntries)
	}

	section.Entries = make([]Relocation, 0, numEntries)
	for idx := uint64(0); idx < numEntries; idx++ {
		relocation := Relocation{
			class: file.Class,
		}

		relocation.Offset, err = reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse relocation %d: %w", idx, err)
		}

		relocation.Info, err = reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse relocation %d: %w", idx, err)
		}

		if section.HasAddends() {
			addend, err := reader.WordOrDword()
			if err != nil {
				return nil, fmt.Errorf("failed to parse relocation %d: %w", idx, err)
			}
			relocation.Addend = signExtendWord(file.Class, addend)
		}

		section.Entries = append(section.Entries, relocation)
	}

	return section, nil
}
