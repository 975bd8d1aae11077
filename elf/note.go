package elf

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const gnuNoteOwner = "GNU"

// NT_GNU_ABI_TAG descriptor: the earliest compatible kernel version.
type GNUABITag struct {
	OperatingSystem NoteOperatingSystem
	Major           uint32
	Minor           uint32
	SubMinor        uint32
}

func (tag GNUABITag) String() string {
	return fmt.Sprintf(
		"%s %d.%d.%d",
		tag.OperatingSystem,
		tag.Major,
		tag.Minor,
		tag.SubMinor)
}

type NoteEntry struct {
	NoteHeader

	// The owner name without its trailing null terminator.
	Name string

	// Description has no standard format and may be unreadable.
	Description []byte

	// Only set for "GNU" owned NT_GNU_ABI_TAG entries.
	ABITag *GNUABITag
}

func (entry NoteEntry) NoteType() NoteType {
	return NoteType(entry.Type)
}

func (entry NoteEntry) IsGNU() bool {
	return entry.Name == gnuNoteOwner
}

type NoteSection struct {
	BaseSection

	Entries []NoteEntry
}

// ABITag returns the first GNU ABI tag in the section, or nil.
func (section *NoteSection) ABITag() *GNUABITag {
	for _, entry := range section.Entries {
		if entry.ABITag != nil {
			return entry.ABITag
		}
	}
	return nil
}

// BuildID returns the hex encoded NT_GNU_BUILD_ID descriptor.  ok is false
// when the section has no build id note.
func (section *NoteSection) BuildID() (string, bool) {
	for _, entry := range section.Entries {
		if entry.IsGNU() && entry.NoteType() == NoteTypeGNUBuildID {
			return hex.EncodeToString(entry.Description), true
		}
	}
	return "", false
}

func alignTo4(size uint32) uint64 {
	return ((uint64(size) + 3) / 4) * 4
}

// NOTE: even though Elf64_Nhdr is defined, it looks like tools continue to
// use Elf32_Nhdr / 4-byte aligned note entries.
func (file *File) parseNote(header SectionHeaderEntry) (*NoteSection, error) {
	section := &NoteSection{
		BaseSection: newBaseSection(file, header),
	}

	if header.SectionType == SectionTypeNoSpace || header.Size == 0 {
		return section, nil
	}

	reader := file.reader
	err := reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse note section: %w", err)
	}

	end := header.Offset + header.Size
	if end < header.Offset || end > reader.Len() {
		return nil, fmt.Errorf(
			"%w: note section exceeds file content (%d > %d)",
			ErrTruncated,
			end,
			reader.Len())
	}

	for reader.Position()+NoteHeaderSize <= end {
		entry, err := file.parseNoteEntry(end)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to parse note entry %d: %w",
				len(section.Entries),
				err)
		}

		section.Entries = append(section.Entries, entry)
	}

	return section, nil
}

func (file *File) parseNoteEntry(end uint64) (NoteEntry, error) {
	entry := NoteEntry{}
	reader := file.reader

	for _, field := range []*uint32{
		&entry.NameSize,
		&entry.DescriptionSize,
		&entry.Type,
	} {
		val, err := reader.U32()
		if err != nil {
			return entry, err
		}
		*field = val
	}

	nameStart := reader.Position()
	descriptionStart := nameStart + alignTo4(entry.NameSize)
	entryEnd := descriptionStart + alignTo4(entry.DescriptionSize)

	// The final entry's description padding may be omitted.
	if descriptionStart+uint64(entry.DescriptionSize) > end {
		return entry, fmt.Errorf(
			"%w: note (name size %d, description size %d) exceeds section",
			ErrInvalidFormat,
			entry.NameSize,
			entry.DescriptionSize)
	}

	name, err := reader.Bytes(uint64(entry.NameSize))
	if err != nil {
		return entry, err
	}
	entry.Name = strings.TrimRight(string(name), "\x00")

	err = reader.Seek(descriptionStart)
	if err != nil {
		return entry, err
	}

	if entry.IsGNU() &&
		entry.NoteType() == NoteTypeGNUABITag &&
		entry.DescriptionSize >= 16 {

		fields := make([]uint32, 4)
		for idx := range fields {
			fields[idx], err = reader.U32()
			if err != nil {
				return entry, err
			}
		}

		entry.ABITag = &GNUABITag{
			OperatingSystem: NoteOperatingSystem(fields[0]),
			Major:           fields[1],
			Minor:           fields[2],
			SubMinor:        fields[3],
		}

		err = reader.Seek(descriptionStart)
		if err != nil {
			return entry, err
		}
	}

	entry.Description, err = reader.Bytes(uint64(entry.DescriptionSize))
	if err != nil {
		return entry, err
	}

	if entryEnd > end {
		entryEnd = end
	}

	return entry, reader.Seek(entryEnd)
}
