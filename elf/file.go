package elf

import (
	"bytes"
	"fmt"
)

// Resources:
// https://refspecs.linuxfoundation.org/

// File is a lazily parsed elf image.  Only the elf header is decoded up
// front; each section and segment is decoded on first access and cached for
// the file's lifetime.
//
// File is not safe for concurrent use (see Reader).
type File struct {
	ElfHeader

	reader *Reader

	sections []*Lazy[Section]
	segments []*Lazy[*Segment]

	stringTable        *Lazy[*StringTableSection]
	dynamicStringTable *Lazy[*StringTableSection]
	symbolTable        *Lazy[*SymbolTableSection]
	dynamicSymbolTable *Lazy[*SymbolTableSection]
	dynamic            *Lazy[*DynamicSection]

	release func() error
}

func ParseBytes(content []byte) (*File, error) {
	file := &File{}

	err := file.parseIdentifier(content)
	if err != nil {
		return nil, err
	}

	err = file.parseHeader()
	if err != nil {
		return nil, err
	}

	file.initialize()
	return file, nil
}

// Close releases the file's backing memory mapping, if any.  The file and
// everything derived from it must not be used afterward.
func (file *File) Close() error {
	if file.release == nil {
		return nil
	}

	release := file.release
	file.release = nil
	return release()
}

func (file *File) Reader() *Reader {
	return file.reader
}

func (file *File) parseIdentifier(content []byte) error {
	if len(content) < len(IdentifierMagic) ||
		!bytes.Equal(content[:len(IdentifierMagic)], IdentifierMagic) {

		return fmt.Errorf("%w: invalid elf magic number", ErrInvalidFormat)
	}

	if len(content) < ElfIdentifierSize {
		return fmt.Errorf(
			"%w: failed to parse identifier (%d bytes)",
			ErrTruncated,
			len(content))
	}

	id := &file.Identifier
	copy(id.Magic[:], content)
	id.Class = Class(content[4])
	id.DataEncoding = DataEncoding(content[5])
	id.IdentifierVersion = content[6]
	id.OperatingSystemABI = OperatingSystemABI(content[7])
	id.ABIVersion = content[8]

	if id.Class != Class32 && id.Class != Class64 {
		return fmt.Errorf("%w: unsupported elf class: %s", ErrInvalidFormat, id.Class)
	}

	if id.DataEncoding != DataEncodingTwosComplementLittleEndian &&
		id.DataEncoding != DataEncodingTwosComplementBigEndian {

		return fmt.Errorf(
			"%w: unsupported data encoding: %s",
			ErrInvalidFormat,
			id.DataEncoding)
	}

	if id.IdentifierVersion != IdentifierVersion {
		return fmt.Errorf(
			"%w: unsupported identifier version: %d",
			ErrInvalidFormat,
			id.IdentifierVersion)
	}

	file.reader = NewReader(id.Class, id.DataEncoding, content)
	return nil
}

func (file *File) parseHeader() error {
	reader := file.reader
	hdr := &file.ElfHeader

	err := reader.Seek(ElfIdentifierSize)
	if err != nil {
		return err
	}

	fileType, err := reader.U16()
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}
	hdr.FileType = FileType(fileType)

	machine, err := reader.U16()
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}
	hdr.MachineArchitecture = MachineArchitecture(machine)

	hdr.FormatVersion, err = reader.U32()
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	for _, field := range []*uint64{
		&hdr.EntryPointAddress,
		&hdr.ProgramHeaderOffset,
		&hdr.SectionHeaderOffset,
	} {
		*field, err = reader.WordOrDword()
		if err != nil {
			return fmt.Errorf("failed to parse header: %w", err)
		}
	}

	hdr.ArchitectureFlags, err = reader.U32()
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	var shstrndx uint16
	for _, field := range []*uint16{
		&hdr.ElfHeaderSize,
		&hdr.ProgramHeaderEntrySize,
		&hdr.NumProgramHeaderEntries,
		&hdr.SectionHeaderEntrySize,
		&hdr.NumSectionHeaderEntries,
		&shstrndx,
	} {
		*field, err = reader.U16()
		if err != nil {
			return fmt.Errorf("failed to parse header: %w", err)
		}
	}
	hdr.SectionStringTableIndex = SectionIndex(shstrndx)

	if hdr.FormatVersion != FormatVersion {
		return fmt.Errorf(
			"%w: unsupported format version: %d",
			ErrInvalidFormat,
			hdr.FormatVersion)
	}

	// The real section count / section name table index would live in section
	// 0's sh_size / sh_link.  Neither indirection is supported.
	if hdr.NumSectionHeaderEntries == 0 {
		return fmt.Errorf(
			"%w: extended section header count (e_shnum = 0) not supported",
			ErrInvalidFormat)
	}

	if hdr.SectionStringTableIndex == SectionStringTableIndexExtended {
		return fmt.Errorf(
			"%w: extended section name table index (SHN_XINDEX) not supported",
			ErrInvalidFormat)
	}

	return nil
}

func (file *File) initialize() {
	file.sections = make([]*Lazy[Section], file.NumSectionHeaderEntries)
	for idx := range file.sections {
		offset := file.SectionHeaderOffset +
			uint64(idx)*uint64(file.SectionHeaderEntrySize)
		file.sections[idx] = NewLazy(func() (Section, error) {
			section, err := file.parseSection(offset)
			if err != nil {
				return nil, fmt.Errorf("failed to parse section %d: %w", idx, err)
			}
			return section, nil
		})
	}

	file.segments = make([]*Lazy[*Segment], file.NumProgramHeaderEntries)
	for idx := range file.segments {
		offset := file.ProgramHeaderOffset +
			uint64(idx)*uint64(file.ProgramHeaderEntrySize)
		file.segments[idx] = NewLazy(func() (*Segment, error) {
			segment, err := file.parseSegment(offset)
			if err != nil {
				return nil, fmt.Errorf("failed to parse segment %d: %w", idx, err)
			}
			return segment, nil
		})
	}

	file.stringTable = NewLazy(func() (*StringTableSection, error) {
		return file.stringTableWithName(StringTableName)
	})
	file.dynamicStringTable = NewLazy(func() (*StringTableSection, error) {
		return file.stringTableWithName(DynamicStringTableName)
	})
	file.symbolTable = NewLazy(func() (*SymbolTableSection, error) {
		return file.firstSymbolTable(SectionTypeSymbolTable)
	})
	file.dynamicSymbolTable = NewLazy(func() (*SymbolTableSection, error) {
		return file.firstSymbolTable(SectionTypeDynamicSymbolTable)
	})
	file.dynamic = NewLazy(func() (*DynamicSection, error) {
		section, err := file.FirstSectionByType(SectionTypeDynamic)
		if err != nil || section == nil {
			return nil, err
		}
		return section.(*DynamicSection), nil
	})
}

func (file *File) NumSections() int {
	return len(file.sections)
}

func (file *File) NumSegments() int {
	return len(file.segments)
}

func (file *File) Section(idx int) (Section, error) {
	if idx < 0 || idx >= len(file.sections) {
		return nil, fmt.Errorf(
			"%w: section index out of bound (%d >= %d)",
			ErrInvalidValue,
			idx,
			len(file.sections))
	}

	return file.sections[idx].Get()
}

func (file *File) Segment(idx int) (*Segment, error) {
	if idx < 0 || idx >= len(file.segments) {
		return nil, fmt.Errorf(
			"%w: segment index out of bound (%d >= %d)",
			ErrInvalidValue,
			idx,
			len(file.segments))
	}

	return file.segments[idx].Get()
}

// SectionsOfType returns all sections of the given type.  Section 0 (SHN_UNDEF)
// is never included.
func (file *File) SectionsOfType(sectionType SectionType) ([]Section, error) {
	result := []Section{}
	for idx := 1; idx < len(file.sections); idx++ {
		section, err := file.Section(idx)
		if err != nil {
			return nil, err
		}

		if section.Header().SectionType == sectionType {
			result = append(result, section)
		}
	}

	return result, nil
}

// FirstSectionByType returns nil (without error) when no section matches.
func (file *File) FirstSectionByType(
	sectionType SectionType,
) (
	Section,
	error,
) {
	for idx := 1; idx < len(file.sections); idx++ {
		section, err := file.Section(idx)
		if err != nil {
			return nil, err
		}

		if section.Header().SectionType == sectionType {
			return section, nil
		}
	}

	return nil, nil
}

// FirstSectionByName returns nil (without error) when no section matches.
func (file *File) FirstSectionByName(name string) (Section, error) {
	for idx := 1; idx < len(file.sections); idx++ {
		section, err := file.Section(idx)
		if err != nil {
			return nil, err
		}

		sectionName, err := section.Name()
		if err != nil {
			return nil, err
		}

		if sectionName == name {
			return section, nil
		}
	}

	return nil, nil
}

// SectionNameStringTable returns nil when e_shstrndx is SHN_UNDEF.
func (file *File) SectionNameStringTable() (*StringTableSection, error) {
	idx := int(file.SectionStringTableIndex)
	if idx == SectionStringTableIndexNotDefined {
		return nil, nil
	}

	section, err := file.Section(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to get section name table: %w", err)
	}

	table, ok := section.(*StringTableSection)
	if !ok {
		return nil, fmt.Errorf(
			"%w: section name index (%d) does not point to a string table",
			ErrInvalidFormat,
			idx)
	}

	return table, nil
}

// StringTable returns the first string table named .strtab, or nil.
func (file *File) StringTable() (*StringTableSection, error) {
	return file.stringTable.Get()
}

// DynamicStringTable returns the first string table named .dynstr, or nil.
func (file *File) DynamicStringTable() (*StringTableSection, error) {
	return file.dynamicStringTable.Get()
}

func (file *File) stringTableWithName(name string) (*StringTableSection, error) {
	section, err := file.FirstSectionByName(name)
	if err != nil || section == nil {
		return nil, err
	}

	table, ok := section.(*StringTableSection)
	if !ok {
		return nil, fmt.Errorf(
			"%w: section %s is not a string table (%s)",
			ErrInvalidFormat,
			name,
			section.Header().SectionType)
	}

	return table, nil
}

// SymbolTable returns the first SHT_SYMTAB section, or nil.
func (file *File) SymbolTable() (*SymbolTableSection, error) {
	return file.symbolTable.Get()
}

// DynamicSymbolTable returns the first SHT_DYNSYM section, or nil.
func (file *File) DynamicSymbolTable() (*SymbolTableSection, error) {
	return file.dynamicSymbolTable.Get()
}

func (file *File) firstSymbolTable(
	sectionType SectionType,
) (
	*SymbolTableSection,
	error,
) {
	section, err := file.FirstSectionByType(sectionType)
	if err != nil || section == nil {
		return nil, err
	}

	return section.(*SymbolTableSection), nil
}

// Dynamic returns the first SHT_DYNAMIC section, or nil.
func (file *File) Dynamic() (*DynamicSection, error) {
	return file.dynamic.Get()
}

// InterpreterPath returns the PT_INTERP segment's path.  ok is false when the
// file has no interpreter segment.
func (file *File) InterpreterPath() (string, bool, error) {
	for idx := range file.segments {
		segment, err := file.Segment(idx)
		if err != nil {
			return "", false, err
		}

		if segment.ProgramType != ProgramInterpreterPath {
			continue
		}

		path, err := segment.Interpreter()
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	}

	return "", false, nil
}

// VirtualAddressToFileOffset translates through the first segment whose
// memory image contains address.  Addresses in the zero filled tail of a
// segment (p_filesz <= offset < p_memsz) have no file backing.
func (file *File) VirtualAddressToFileOffset(address uint64) (uint64, error) {
	for idx := range file.segments {
		segment, err := file.Segment(idx)
		if err != nil {
			return 0, err
		}

		if !segment.Contains(address) {
			continue
		}

		relative := address - segment.VirtualAddress
		if relative >= segment.FileImageSize {
			return 0, fmt.Errorf(
				"%w: cannot convert virtual address %#x to file offset. "+
					"found segment (%s) but address maps outside the file image",
				ErrAddressNotMapped,
				address,
				segment)
		}

		return segment.ContentOffset + relative, nil
	}

	return 0, fmt.Errorf(
		"%w: cannot find segment for virtual address %#x",
		ErrAddressNotMapped,
		address)
}

// symbolTables returns the dynamic symbol table followed by the static symbol
// table, skipping the ones that don't exist.
func (file *File) symbolTables() ([]*SymbolTableSection, error) {
	result := make([]*SymbolTableSection, 0, 2)

	dynsym, err := file.DynamicSymbolTable()
	if err != nil {
		return nil, err
	}
	if dynsym != nil {
		result = append(result, dynsym)
	}

	symtab, err := file.SymbolTable()
	if err != nil {
		return nil, err
	}
	if symtab != nil {
		result = append(result, symtab)
	}

	return result, nil
}

// SymbolByName linearly scans the dynamic symbol table, then the static
// symbol table, and returns the first symbol named name, or nil.
func (file *File) SymbolByName(name string) (*Symbol, error) {
	if name == "" {
		return nil, nil
	}

	tables, err := file.symbolTables()
	if err != nil {
		return nil, err
	}

	for _, table := range tables {
		symbol, err := table.SymbolByName(name)
		if err != nil || symbol != nil {
			return symbol, err
		}
	}

	return nil, nil
}

// LookupSymbol resolves name through the GNU hash table (or the classic hash
// table when there is no GNU hash table).  Since hash tables only index the
// dynamic symbol table, a miss falls back to scanning the static symbol
// table.  Without any hash table, this is equivalent to SymbolByName.
func (file *File) LookupSymbol(name string) (*Symbol, error) {
	symbol, hashed, err := file.lookupHashed(name)
	if err != nil || symbol != nil {
		return symbol, err
	}

	if !hashed {
		return file.SymbolByName(name)
	}

	symtab, err := file.SymbolTable()
	if err != nil || symtab == nil {
		return nil, err
	}

	return symtab.SymbolByName(name)
}

func (file *File) lookupHashed(name string) (*Symbol, bool, error) {
	section, err := file.FirstSectionByType(SectionTypeGNUHashTable)
	if err != nil {
		return nil, false, err
	}

	if section != nil {
		symbol, err := section.(*GNUHashTableSection).Lookup(name)
		return symbol, true, err
	}

	section, err = file.FirstSectionByType(SectionTypeSymbolHashTable)
	if err != nil {
		return nil, false, err
	}

	if section != nil {
		symbol, err := section.(*HashTableSection).Lookup(name)
		return symbol, true, err
	}

	return nil, false, nil
}

// SymbolSpanning returns the first symbol (dynamic symbol table first) whose
// [st_value, st_value + st_size) range contains address, or nil.
func (file *File) SymbolSpanning(address uint64) (*Symbol, error) {
	tables, err := file.symbolTables()
	if err != nil {
		return nil, err
	}

	for _, table := range tables {
		symbol := table.SymbolSpans(address)
		if symbol != nil {
			return symbol, nil
		}
	}

	return nil, nil
}

// FunctionSymbolAt returns the first function symbol (dynamic symbol table
// first) whose value is exactly address, or nil.
func (file *File) FunctionSymbolAt(address uint64) (*Symbol, error) {
	tables, err := file.symbolTables()
	if err != nil {
		return nil, err
	}

	for _, table := range tables {
		symbol := table.FunctionAt(address)
		if symbol != nil {
			return symbol, nil
		}
	}

	return nil, nil
}
