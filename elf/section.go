package elf

import (
	"bytes"
	"fmt"
)

// Section is one of *RawSection, *StringTableSection, *SymbolTableSection,
// *DynamicSection, *HashTableSection, *GNUHashTableSection, *NoteSection or
// *RelocationSection, selected by the section header's type.
type Section interface {
	Header() SectionHeaderEntry

	// Name resolves the section name through the section name string table.
	// Unnamed sections return an empty string.
	Name() (string, error)

	// RawContent returns the section's bytes.  SHT_NOBITS sections have no
	// content.
	RawContent() ([]byte, error)

	File() *File
}

type BaseSection struct {
	SectionHeaderEntry

	file *File
}

func newBaseSection(file *File, header SectionHeaderEntry) BaseSection {
	return BaseSection{
		SectionHeaderEntry: header,
		file:               file,
	}
}

func (base *BaseSection) Header() SectionHeaderEntry {
	return base.SectionHeaderEntry
}

func (base *BaseSection) File() *File {
	return base.file
}

func (base *BaseSection) Name() (string, error) {
	if base.NameIndex == 0 || base.file == nil {
		return "", nil
	}

	table, err := base.file.SectionNameStringTable()
	if err != nil || table == nil {
		return "", err
	}

	return table.Get(base.NameIndex)
}

func (base *BaseSection) RawContent() ([]byte, error) {
	if base.SectionType == SectionTypeNoSpace || base.Size == 0 {
		return nil, nil
	}

	reader := base.file.reader
	err := reader.Seek(base.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read section content: %w", err)
	}

	content, err := reader.Bytes(base.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to read section content: %w", err)
	}

	return content, nil
}

// Contains reports whether the section's memory image contains address.
func (base *BaseSection) Contains(address uint64) bool {
	return base.Address <= address && address-base.Address < base.Size
}

// A section without further structure.
type RawSection struct {
	BaseSection
}

type StringTableSection struct {
	BaseSection

	Content []byte
}

func NewStringTableSection(
	file *File,
	header SectionHeaderEntry,
	content []byte,
) *StringTableSection {
	return &StringTableSection{
		BaseSection: newBaseSection(file, header),
		Content:     content,
	}
}

// Get returns the null terminated string starting at byte offset index.
func (table *StringTableSection) Get(index uint32) (string, error) {
	if index >= uint32(len(table.Content)) {
		return "", fmt.Errorf(
			"%w: string table index out of bound (%d >= %d)",
			ErrInvalidValue,
			index,
			len(table.Content))
	}

	chunk := table.Content[index:]
	end := bytes.IndexByte(chunk, 0)
	if end == -1 {
		return "", fmt.Errorf(
			"%w: string at string table index %d not terminated",
			ErrInvalidFormat,
			index)
	}

	return string(chunk[:end]), nil
}

// NumEntries returns the number of null terminators in the table.
func (table *StringTableSection) NumEntries() int {
	return bytes.Count(table.Content, []byte{0})
}

func (file *File) parseSectionHeader(offset uint64) (SectionHeaderEntry, error) {
	header := SectionHeaderEntry{}
	reader := file.reader

	err := reader.Seek(offset)
	if err != nil {
		return header, err
	}

	header.NameIndex, err = reader.U32()
	if err != nil {
		return header, err
	}

	sectionType, err := reader.U32()
	if err != nil {
		return header, err
	}
	header.SectionType = SectionType(sectionType)

	flags, err := reader.WordOrDword()
	if err != nil {
		return header, err
	}
	header.SectionFlags = SectionFlags(flags)

	for _, field := range []*uint64{
		&header.Address,
		&header.Offset,
		&header.Size,
	} {
		*field, err = reader.WordOrDword()
		if err != nil {
			return header, err
		}
	}

	header.Link, err = reader.U32()
	if err != nil {
		return header, err
	}

	header.Info, err = reader.U32()
	if err != nil {
		return header, err
	}

	header.AddressAlignment, err = reader.WordOrDword()
	if err != nil {
		return header, err
	}

	header.EntrySize, err = reader.WordOrDword()
	if err != nil {
		return header, err
	}

	return header, nil
}

func (file *File) parseSection(offset uint64) (Section, error) {
	header, err := file.parseSectionHeader(offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse section header: %w", err)
	}

	switch header.SectionType {
	case SectionTypeStringTable:
		content, err := file.readSectionContent(header)
		if err != nil {
			return nil, err
		}
		return NewStringTableSection(file, header, content), nil
	case SectionTypeSymbolTable, SectionTypeDynamicSymbolTable:
		return file.parseSymbolTable(header)
	case SectionTypeDynamic:
		return file.parseDynamic(header)
	case SectionTypeSymbolHashTable:
		return file.parseHashTable(header)
	case SectionTypeGNUHashTable:
		return file.parseGNUHashTable(header)
	case SectionTypeNote:
		return file.parseNote(header)
	case SectionTypeRelocationWithAddends, SectionTypeRelocationNoAddends:
		return file.parseRelocations(header)
	default:
		return &RawSection{
			BaseSection: newBaseSection(file, header),
		}, nil
	}
}

func (file *File) readSectionContent(header SectionHeaderEntry) ([]byte, error) {
	if header.SectionType == SectionTypeNoSpace {
		return nil, nil
	}

	err := file.reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("out of bound section offset: %w", err)
	}

	content, err := file.reader.Bytes(header.Size)
	if err != nil {
		return nil, fmt.Errorf("out of bound section: %w", err)
	}

	return content, nil
}
