package elf

import (
	"fmt"
)

type Segment struct {
	ProgramHeaderEntry

	file *File

	// Only set for PT_INTERP segments.
	interpreter *Lazy[string]
}

func (file *File) parseSegment(offset uint64) (*Segment, error) {
	entry := ProgramHeaderEntry{}
	reader := file.reader

	err := reader.Seek(offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse program header: %w", err)
	}

	programType, err := reader.U32()
	if err != nil {
		return nil, fmt.Errorf("failed to parse program header: %w", err)
	}
	entry.ProgramType = ProgramType(programType)

	// Elf64_Phdr moves p_flags up for alignment.
	if file.Class == Class64 {
		flags, err := reader.U32()
		if err != nil {
			return nil, fmt.Errorf("failed to parse program header: %w", err)
		}
		entry.ProgramFlags = ProgramFlags(flags)
	}

	for _, field := range []*uint64{
		&entry.ContentOffset,
		&entry.VirtualAddress,
		&entry.PhysicalAddress,
		&entry.FileImageSize,
		&entry.MemoryImageSize,
	} {
		*field, err = reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse program header: %w", err)
		}
	}

	if file.Class == Class32 {
		flags, err := reader.U32()
		if err != nil {
			return nil, fmt.Errorf("failed to parse program header: %w", err)
		}
		entry.ProgramFlags = ProgramFlags(flags)
	}

	entry.Alignment, err = reader.WordOrDword()
	if err != nil {
		return nil, fmt.Errorf("failed to parse program header: %w", err)
	}

	segment := &Segment{
		ProgramHeaderEntry: entry,
		file:               file,
	}

	if entry.ProgramType == ProgramInterpreterPath {
		segment.interpreter = NewLazy(segment.readInterpreter)
	}

	return segment, nil
}

func (segment *Segment) readInterpreter() (string, error) {
	reader := segment.file.reader
	err := reader.Seek(segment.ContentOffset)
	if err != nil {
		return "", fmt.Errorf("failed to read interpreter path: %w", err)
	}

	path, err := reader.CString()
	if err != nil {
		return "", fmt.Errorf("failed to read interpreter path: %w", err)
	}

	return path, nil
}

// Interpreter returns the null terminated path stored in a PT_INTERP
// segment.
func (segment *Segment) Interpreter() (string, error) {
	if segment.interpreter == nil {
		return "", fmt.Errorf(
			"%w: %s segment has no interpreter path",
			ErrInvalidValue,
			segment.ProgramType)
	}

	return segment.interpreter.Get()
}

// Contains reports whether the segment's memory image
// [p_vaddr, p_vaddr + p_memsz) contains address.
func (segment *Segment) Contains(address uint64) bool {
	return segment.VirtualAddress <= address &&
		address-segment.VirtualAddress < segment.MemoryImageSize
}

func (segment *Segment) IsReadable() bool {
	return segment.ProgramFlags&ProgramFlagReadableBit != 0
}

func (segment *Segment) IsWriteable() bool {
	return segment.ProgramFlags&ProgramFlagWritableBit != 0
}

func (segment *Segment) IsExecutable() bool {
	return segment.ProgramFlags&ProgramFlagExecutableBit != 0
}

func (segment *Segment) String() string {
	return fmt.Sprintf(
		"%s %s offset=%#x vaddr=%#x filesz=%#x memsz=%#x",
		segment.ProgramType,
		segment.ProgramFlags,
		segment.ContentOffset,
		segment.VirtualAddress,
		segment.FileImageSize,
		segment.MemoryImageSize)
}
