package elf

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Reader is the single shared cursor over an elf file's content.  Lazily
// realized structures must Seek to their own start offset before reading;
// the position left behind by a previous realization is meaningless.
type Reader struct {
	Class
	DataEncoding

	content  []byte
	position uint64
}

func NewReader(
	class Class,
	encoding DataEncoding,
	content []byte,
) *Reader {
	return &Reader{
		Class:        class,
		DataEncoding: encoding,
		content:      content,
	}
}

func (reader *Reader) Len() uint64 {
	return uint64(len(reader.content))
}

func (reader *Reader) Position() uint64 {
	return reader.position
}

func (reader *Reader) Seek(offset uint64) error {
	if offset > uint64(len(reader.content)) {
		return fmt.Errorf(
			"%w: out of bound seek (%d > %d)",
			ErrTruncated,
			offset,
			len(reader.content))
	}

	reader.position = offset
	return nil
}

func (reader *Reader) Skip(size uint64) error {
	remaining := uint64(len(reader.content)) - reader.position
	if size > remaining {
		return fmt.Errorf(
			"%w: out of bound skip (%d + %d > %d)",
			ErrTruncated,
			reader.position,
			size,
			len(reader.content))
	}

	reader.position += size
	return nil
}

// Bytes returns the next size bytes without copying.  The returned slice
// aliases the file content and must not be modified.
func (reader *Reader) Bytes(size uint64) ([]byte, error) {
	remaining := uint64(len(reader.content)) - reader.position
	if size > remaining {
		return nil, fmt.Errorf(
			"%w: cannot read %d bytes at %d (content size %d)",
			ErrTruncated,
			size,
			reader.position,
			len(reader.content))
	}

	start := reader.position
	reader.position += size
	return reader.content[start:reader.position], nil
}

// Read fills out completely or fails without advancing.
func (reader *Reader) Read(out []byte) error {
	chunk, err := reader.Bytes(uint64(len(out)))
	if err != nil {
		return err
	}

	copy(out, chunk)
	return nil
}

// CString reads a null terminated string and consumes the terminator.
func (reader *Reader) CString() (string, error) {
	start := reader.position
	for idx := start; idx < uint64(len(reader.content)); idx++ {
		if reader.content[idx] == 0 {
			reader.position = idx + 1
			return string(reader.content[start:idx]), nil
		}
	}

	return "", fmt.Errorf("%w: string at %d not terminated", ErrTruncated, start)
}

// Typed reads compose the value in big endian order, then byte swap if the
// file is little endian.

func (reader *Reader) U8() (uint8, error) {
	chunk, err := reader.Bytes(1)
	if err != nil {
		return 0, err
	}

	return chunk[0], nil
}

func (reader *Reader) U16() (uint16, error) {
	chunk, err := reader.Bytes(2)
	if err != nil {
		return 0, err
	}

	val := binary.BigEndian.Uint16(chunk)
	if reader.isLittleEndian() {
		val = bits.ReverseBytes16(val)
	}
	return val, nil
}

func (reader *Reader) U32() (uint32, error) {
	chunk, err := reader.Bytes(4)
	if err != nil {
		return 0, err
	}

	val := binary.BigEndian.Uint32(chunk)
	if reader.isLittleEndian() {
		val = bits.ReverseBytes32(val)
	}
	return val, nil
}

func (reader *Reader) U64() (uint64, error) {
	chunk, err := reader.Bytes(8)
	if err != nil {
		return 0, err
	}

	val := binary.BigEndian.Uint64(chunk)
	if reader.isLittleEndian() {
		val = bits.ReverseBytes64(val)
	}
	return val, nil
}

// WordOrDword reads an address sized field: 32 bits for Class32 and 64 bits
// for Class64.
func (reader *Reader) WordOrDword() (uint64, error) {
	if reader.Class == Class64 {
		return reader.U64()
	}

	val, err := reader.U32()
	return uint64(val), err
}

func (reader *Reader) isLittleEndian() bool {
	return reader.DataEncoding == DataEncodingTwosComplementLittleEndian
}

func (reader *Reader) ByteOrder() binary.ByteOrder {
	if reader.isLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
