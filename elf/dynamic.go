package elf

import (
	"fmt"
	"math"
)

type DynamicEntry struct {
	Tag   DynamicTag // d_tag
	Value uint64     // d_val / d_ptr
}

type DynamicSection struct {
	BaseSection

	// Entries up to, and including, the DT_NULL terminator (if present within
	// the section).
	Entries []DynamicEntry

	StringTableAddress uint64 // DT_STRTAB
	StringTableSize    uint32 // DT_STRSZ

	stringTable *Lazy[*StringTableSection]
}

func (file *File) parseDynamic(header SectionHeaderEntry) (*DynamicSection, error) {
	section := &DynamicSection{
		BaseSection: newBaseSection(file, header),
	}

	reader := file.reader
	err := reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dynamic section: %w", err)
	}

	entrySize := uint64(2 * file.Class.WordSize())
	numEntries := header.Size / entrySize

	for idx := uint64(0); idx < numEntries; idx++ {
		tag, err := reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse dynamic entry %d: %w", idx, err)
		}

		value, err := reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse dynamic entry %d: %w", idx, err)
		}

		entry := DynamicEntry{
			Tag:   DynamicTag(signExtendWord(file.Class, tag)),
			Value: value,
		}
		section.Entries = append(section.Entries, entry)

		if entry.Tag == DynamicTagNull {
			break
		}

		switch entry.Tag {
		case DynamicTagStringTable:
			section.StringTableAddress = value
			section.stringTable = NewLazy(section.resolveStringTable)
		case DynamicTagStringTableSize:
			if value > math.MaxInt32 {
				return nil, fmt.Errorf(
					"%w: dynamic string table size too large (%d)",
					ErrInvalidFormat,
					value)
			}
			section.StringTableSize = uint32(value)
		}
	}

	return section, nil
}

func signExtendWord(class Class, value uint64) int64 {
	if class == Class32 {
		return int64(int32(uint32(value)))
	}
	return int64(value)
}

func (section *DynamicSection) resolveStringTable() (*StringTableSection, error) {
	file := section.file

	offset, err := file.VirtualAddressToFileOffset(section.StringTableAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to locate dynamic string table: %w", err)
	}

	err = file.reader.Seek(offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read dynamic string table: %w", err)
	}

	content, err := file.reader.Bytes(uint64(section.StringTableSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read dynamic string table: %w", err)
	}

	return NewStringTableSection(file, SectionHeaderEntry{}, content), nil
}

// StringTable returns the string table referenced by DT_STRTAB, located via
// the segment table.
func (section *DynamicSection) StringTable() (*StringTableSection, error) {
	if section.stringTable == nil {
		return nil, fmt.Errorf(
			"%w: dynamic section has no DT_STRTAB entry",
			ErrSectionNotFound)
	}

	return section.stringTable.Get()
}

func (section *DynamicSection) FirstEntryWithTag(tag DynamicTag) (DynamicEntry, bool) {
	for _, entry := range section.Entries {
		if entry.Tag == tag {
			return entry, true
		}
	}

	return DynamicEntry{}, false
}

func (section *DynamicSection) stringEntry(tag DynamicTag) (string, bool, error) {
	entry, ok := section.FirstEntryWithTag(tag)
	if !ok {
		return "", false, nil
	}

	table, err := section.StringTable()
	if err != nil {
		return "", false, err
	}

	value, err := table.Get(uint32(entry.Value))
	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

// NeededLibraries returns the names of all DT_NEEDED entries, in order.
func (section *DynamicSection) NeededLibraries() ([]string, error) {
	result := []string{}
	for _, entry := range section.Entries {
		if entry.Tag != DynamicTagNeeded {
			continue
		}

		table, err := section.StringTable()
		if err != nil {
			return nil, err
		}

		name, err := table.Get(uint32(entry.Value))
		if err != nil {
			return nil, err
		}

		result = append(result, name)
	}

	return result, nil
}

func (section *DynamicSection) RunPath() (string, bool, error) {
	return section.stringEntry(DynamicTagRunPath)
}

func (section *DynamicSection) RPath() (string, bool, error) {
	return section.stringEntry(DynamicTagRPath)
}

func (section *DynamicSection) SharedObjectName() (string, bool, error) {
	return section.stringEntry(DynamicTagSharedObjectName)
}

func (section *DynamicSection) Flags() DynamicFlags {
	entry, _ := section.FirstEntryWithTag(DynamicTagFlags)
	return DynamicFlags(entry.Value)
}

func (section *DynamicSection) Flags1() DynamicFlags1 {
	entry, _ := section.FirstEntryWithTag(DynamicTagFlags1)
	return DynamicFlags1(entry.Value)
}
