// Package elftest assembles small synthetic elf images for tests.
package elftest

import (
	"encoding/binary"

	"github.com/pattyshack/rvdis/elf"
)

type Section struct {
	Name      string
	Type      elf.SectionType
	Flags     elf.SectionFlags
	Address   uint64
	Link      uint32
	Info      uint32
	Alignment uint64
	EntrySize uint64
	Content   []byte

	// Size overrides len(Content) when non-zero.  SHT_NOBITS sections use Size
	// without Content.
	Size uint64
}

type Segment struct {
	Type  elf.ProgramType
	Flags elf.ProgramFlags

	// When set, the segment's file range is the named section's file range and
	// VirtualAddress defaults to the section's address.
	Section string

	Offset         uint64
	VirtualAddress uint64
	FileSize       uint64
	MemorySize     uint64 // defaults to FileSize
	Alignment      uint64
}

// Builder lays out the image as: elf header, program headers, section
// contents (8-byte aligned, in order), .shstrtab, section headers.
type Builder struct {
	Class    elf.Class
	Encoding elf.DataEncoding
	FileType elf.FileType
	Machine  elf.MachineArchitecture
	Entry    uint64

	Sections []Section
	Segments []Segment

	// Skip emitting .shstrtab.  e_shstrndx is SHN_UNDEF.
	NoSectionNames bool

	// Called on the computed header right before it is encoded.
	PatchHeader func(header *elf.ElfHeader)
}

func New(class elf.Class, encoding elf.DataEncoding) *Builder {
	return &Builder{
		Class:    class,
		Encoding: encoding,
		FileType: elf.FileTypeExecutable,
		Machine:  elf.MachineArchitectureX86_64,
	}
}

// NewRISCV32 returns a builder for little endian 32-bit risc-v executables.
func NewRISCV32() *Builder {
	builder := New(elf.Class32, elf.DataEncodingTwosComplementLittleEndian)
	builder.Machine = elf.MachineArchitectureRISCV
	return builder
}

// AddSection appends section and returns its section header index.
func (builder *Builder) AddSection(section Section) uint32 {
	builder.Sections = append(builder.Sections, section)
	return uint32(len(builder.Sections))
}

func (builder *Builder) AddSegment(segment Segment) {
	builder.Segments = append(builder.Segments, segment)
}

// SectionIndex returns the header index of the first section named name, or
// 0.
func (builder *Builder) SectionIndex(name string) uint32 {
	for idx, section := range builder.Sections {
		if section.Name == name {
			return uint32(idx + 1)
		}
	}
	return 0
}

func (builder *Builder) wordSize() uint64 {
	return uint64(builder.Class.WordSize())
}

func (builder *Builder) headerSize() uint64 {
	if builder.Class == elf.Class64 {
		return 64
	}
	return 52
}

func (builder *Builder) programHeaderSize() uint64 {
	if builder.Class == elf.Class64 {
		return 56
	}
	return 32
}

func (builder *Builder) sectionHeaderSize() uint64 {
	if builder.Class == elf.Class64 {
		return 64
	}
	return 40
}

func (builder *Builder) SymbolEntrySize() uint64 {
	if builder.Class == elf.Class64 {
		return elf.Elf64SymbolEntrySize
	}
	return elf.Elf32SymbolEntrySize
}

func (builder *Builder) DynamicEntrySize() uint64 {
	return 2 * builder.wordSize()
}

func (builder *Builder) newEncoder() *Encoder {
	return NewEncoder(builder.Class, builder.Encoding)
}

func alignUp(value uint64, alignment uint64) uint64 {
	if alignment <= 1 {
		return value
	}
	return ((value + alignment - 1) / alignment) * alignment
}

func (section Section) size() uint64 {
	if section.Size != 0 {
		return section.Size
	}
	return uint64(len(section.Content))
}

func (builder *Builder) Build() []byte {
	sections := append([]Section{}, builder.Sections...)

	names := NewStringTable()
	nameIndices := make([]uint32, len(sections)+1)
	for idx, section := range sections {
		if section.Name != "" {
			nameIndices[idx] = names.Add(section.Name)
		}
	}

	shstrndx := uint16(elf.SectionStringTableIndexNotDefined)
	if !builder.NoSectionNames {
		nameIndices[len(sections)] = names.Add(elf.SectionStringTableName)
		sections = append(
			sections,
			Section{
				Name:    elf.SectionStringTableName,
				Type:    elf.SectionTypeStringTable,
				Content: names.Bytes(),
			})
		shstrndx = uint16(len(sections))
	}

	programHeaderOffset := builder.headerSize()
	contentStart := programHeaderOffset +
		uint64(len(builder.Segments))*builder.programHeaderSize()

	// Section contents
	offsets := make([]uint64, len(sections))
	position := contentStart
	for idx, section := range sections {
		alignment := section.Alignment
		if alignment < 8 {
			alignment = 8
		}
		position = alignUp(position, alignment)
		offsets[idx] = position

		if section.Type != elf.SectionTypeNoSpace {
			position += uint64(len(section.Content))
		}
	}

	sectionHeaderOffset := alignUp(position, 8)

	header := elf.ElfHeader{
		Identifier: elf.Identifier{
			Class:             builder.Class,
			DataEncoding:      builder.Encoding,
			IdentifierVersion: elf.IdentifierVersion,
		},
		FileType:                builder.FileType,
		MachineArchitecture:     builder.Machine,
		FormatVersion:           elf.FormatVersion,
		EntryPointAddress:       builder.Entry,
		SectionHeaderOffset:     sectionHeaderOffset,
		ElfHeaderSize:           uint16(builder.headerSize()),
		ProgramHeaderEntrySize:  uint16(builder.programHeaderSize()),
		NumProgramHeaderEntries: uint16(len(builder.Segments)),
		SectionHeaderEntrySize:  uint16(builder.sectionHeaderSize()),
		NumSectionHeaderEntries: uint16(len(sections) + 1),
		SectionStringTableIndex: elf.SectionIndex(shstrndx),
	}
	copy(header.Magic[:], elf.IdentifierMagic)

	if len(builder.Segments) > 0 {
		header.ProgramHeaderOffset = programHeaderOffset
	}

	if builder.PatchHeader != nil {
		builder.PatchHeader(&header)
	}

	encoder := builder.newEncoder()
	builder.encodeHeader(encoder, header)

	for _, segment := range builder.Segments {
		builder.encodeSegment(encoder, sections, offsets, segment)
	}

	for idx, section := range sections {
		encoder.PadTo(offsets[idx])
		if section.Type != elf.SectionTypeNoSpace {
			encoder.Bytes(section.Content)
		}
	}

	encoder.PadTo(sectionHeaderOffset)
	encoder.Zeros(builder.sectionHeaderSize()) // SHN_UNDEF
	for idx, section := range sections {
		encoder.U32(nameIndices[idx])
		encoder.U32(uint32(section.Type))
		encoder.Word(uint64(section.Flags))
		encoder.Word(section.Address)
		encoder.Word(offsets[idx])
		encoder.Word(section.size())
		encoder.U32(section.Link)
		encoder.U32(section.Info)
		encoder.Word(section.Alignment)
		encoder.Word(section.EntrySize)
	}

	return encoder.Content()
}

func (builder *Builder) encodeHeader(encoder *Encoder, header elf.ElfHeader) {
	ident := make([]byte, elf.ElfIdentifierSize)
	copy(ident, header.Magic[:])
	ident[4] = byte(header.Class)
	ident[5] = byte(header.DataEncoding)
	ident[6] = header.IdentifierVersion
	ident[7] = byte(header.OperatingSystemABI)
	ident[8] = header.ABIVersion
	encoder.Bytes(ident)

	encoder.U16(uint16(header.FileType))
	encoder.U16(uint16(header.MachineArchitecture))
	encoder.U32(header.FormatVersion)
	encoder.Word(header.EntryPointAddress)
	encoder.Word(header.ProgramHeaderOffset)
	encoder.Word(header.SectionHeaderOffset)
	encoder.U32(header.ArchitectureFlags)
	encoder.U16(header.ElfHeaderSize)
	encoder.U16(header.ProgramHeaderEntrySize)
	encoder.U16(header.NumProgramHeaderEntries)
	encoder.U16(header.SectionHeaderEntrySize)
	encoder.U16(header.NumSectionHeaderEntries)
	encoder.U16(uint16(header.SectionStringTableIndex))
}

func (builder *Builder) encodeSegment(
	encoder *Encoder,
	sections []Section,
	offsets []uint64,
	segment Segment,
) {
	offset := segment.Offset
	fileSize := segment.FileSize
	vaddr := segment.VirtualAddress
	if segment.Section != "" {
		for idx, section := range sections {
			if section.Name != segment.Section {
				continue
			}

			offset = offsets[idx]
			if section.Type != elf.SectionTypeNoSpace {
				fileSize = uint64(len(section.Content))
			}
			if vaddr == 0 {
				vaddr = section.Address
			}
			break
		}
	}

	memSize := segment.MemorySize
	if memSize == 0 {
		memSize = fileSize
	}

	encoder.U32(uint32(segment.Type))
	if builder.Class == elf.Class64 {
		encoder.U32(uint32(segment.Flags))
	}
	encoder.Word(offset)
	encoder.Word(vaddr)
	encoder.Word(vaddr) // p_paddr
	encoder.Word(fileSize)
	encoder.Word(memSize)
	if builder.Class == elf.Class32 {
		encoder.U32(uint32(segment.Flags))
	}
	encoder.Word(segment.Alignment)
}

// Encoder appends class / byte order dependent fields.
type Encoder struct {
	class   elf.Class
	order   binary.AppendByteOrder
	content []byte
}

func NewEncoder(class elf.Class, encoding elf.DataEncoding) *Encoder {
	var order binary.AppendByteOrder = binary.LittleEndian
	if encoding == elf.DataEncodingTwosComplementBigEndian {
		order = binary.BigEndian
	}

	return &Encoder{
		class: class,
		order: order,
	}
}

func (encoder *Encoder) Content() []byte {
	return encoder.content
}

func (encoder *Encoder) Bytes(content []byte) {
	encoder.content = append(encoder.content, content...)
}

func (encoder *Encoder) Zeros(count uint64) {
	encoder.content = append(encoder.content, make([]byte, count)...)
}

func (encoder *Encoder) PadTo(offset uint64) {
	if uint64(len(encoder.content)) < offset {
		encoder.Zeros(offset - uint64(len(encoder.content)))
	}
}

func (encoder *Encoder) U8(value uint8) {
	encoder.content = append(encoder.content, value)
}

func (encoder *Encoder) U16(value uint16) {
	encoder.content = encoder.order.AppendUint16(encoder.content, value)
}

func (encoder *Encoder) U32(value uint32) {
	encoder.content = encoder.order.AppendUint32(encoder.content, value)
}

func (encoder *Encoder) U64(value uint64) {
	encoder.content = encoder.order.AppendUint64(encoder.content, value)
}

func (encoder *Encoder) Word(value uint64) {
	if encoder.class == elf.Class64 {
		encoder.U64(value)
	} else {
		encoder.U32(uint32(value))
	}
}
