package elf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Parse reads the whole elf image from reader.  The magic number is checked
// on the first bytes, before the rest of the content is buffered.
func Parse(reader io.Reader) (*File, error) {
	magic := make([]byte, len(IdentifierMagic))
	_, err := io.ReadFull(reader, magic)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: failed to read elf magic number: %w",
			ErrTruncated,
			err)
	}

	if !bytes.Equal(magic, IdentifierMagic) {
		return nil, fmt.Errorf("%w: invalid elf magic number", ErrInvalidFormat)
	}

	rest, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read elf file: %w", err)
	}

	return ParseBytes(append(magic, rest...))
}

// Open memory maps the named file read-only and parses it.  The mapping is
// released by File.Close.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open elf file: %w", err)
	}
	defer osFile.Close()

	info, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat elf file (%s): %w", path, err)
	}

	size := info.Size()
	if size < ElfIdentifierSize {
		return nil, fmt.Errorf(
			"%w: elf file (%s) too small (%d bytes)",
			ErrTruncated,
			path,
			size)
	}

	if int64(int(size)) != size {
		return nil, fmt.Errorf(
			"%w: elf file (%s) too large to map (%d bytes)",
			ErrInvalidFormat,
			path,
			size)
	}

	content, err := unix.Mmap(
		int(osFile.Fd()),
		0,
		int(size),
		unix.PROT_READ,
		unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap elf file (%s): %w", path, err)
	}

	file, err := ParseBytes(content)
	if err != nil {
		_ = unix.Munmap(content)
		return nil, err
	}

	file.release = func() error {
		return unix.Munmap(content)
	}
	return file, nil
}

// ReadFile reads the named file into memory and parses it.
func ReadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read elf file: %w", err)
	}

	return ParseBytes(content)
}
