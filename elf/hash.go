package elf

import (
	"fmt"
)

// GNUHash is the DT_GNU_HASH string hash (djb2: h = h*33 + c, seeded with
// 5381) over the name's bytes.  Non-ASCII names are hashed by UTF-8 byte.
func GNUHash(name string) uint32 {
	h := uint32(5381)
	for idx := 0; idx < len(name); idx++ {
		h = (h << 5) + h + uint32(name[idx])
	}
	return h
}

// SysVHash is the classic DT_HASH string hash from the System V ABI.
func SysVHash(name string) uint32 {
	h := uint32(0)
	for idx := 0; idx < len(name); idx++ {
		h = (h << 4) + uint32(name[idx])
		g := h & 0xf0000000
		if g != 0 {
			h ^= g >> 24
		}
		h &^= g
	}
	return h
}

// hashedSymbolTable returns the symbol table a hash section indexes: the
// sh_link section if it is a symbol table, otherwise the dynamic symbol
// table.
func hashedSymbolTable(base *BaseSection) (*SymbolTableSection, error) {
	file := base.file

	if base.Link != 0 && int(base.Link) < file.NumSections() {
		section, err := file.Section(int(base.Link))
		if err != nil {
			return nil, err
		}

		table, ok := section.(*SymbolTableSection)
		if ok {
			return table, nil
		}
	}

	table, err := file.DynamicSymbolTable()
	if err != nil {
		return nil, err
	}

	if table == nil {
		return nil, fmt.Errorf(
			"%w: no symbol table for hash section",
			ErrSectionNotFound)
	}

	return table, nil
}

func matchSymbol(
	table *SymbolTableSection,
	symbolIndex uint32,
	name string,
) (
	*Symbol,
	error,
) {
	if int(symbolIndex) >= len(table.Symbols) {
		return nil, fmt.Errorf(
			"%w: hashed symbol index out of bound (%d >= %d)",
			ErrInvalidFormat,
			symbolIndex,
			len(table.Symbols))
	}

	symbol := table.Symbols[symbolIndex]
	symbolName, err := symbol.Name()
	if err != nil {
		return nil, err
	}

	if symbolName == name {
		return symbol, nil
	}

	return nil, nil
}

// SHT_HASH
type HashTableSection struct {
	BaseSection

	Buckets []uint32
	Chains  []uint32
}

func (file *File) parseHashTable(header SectionHeaderEntry) (*HashTableSection, error) {
	section := &HashTableSection{
		BaseSection: newBaseSection(file, header),
	}

	reader := file.reader
	err := reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hash table: %w", err)
	}

	numBuckets, err := reader.U32()
	if err != nil {
		return nil, fmt.Errorf("failed to parse hash table: %w", err)
	}

	numChains, err := reader.U32()
	if err != nil {
		return nil, fmt.Errorf("failed to parse hash table: %w", err)
	}

	if 4*(2+uint64(numBuckets)+uint64(numChains)) > header.Size {
		return nil, fmt.Errorf(
			"%w: hash table (%d buckets, %d chains) exceeds section size (%d)",
			ErrInvalidFormat,
			numBuckets,
			numChains,
			header.Size)
	}

	section.Buckets, err = readU32s(reader, numBuckets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hash table buckets: %w", err)
	}

	section.Chains, err = readU32s(reader, numChains)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hash table chains: %w", err)
	}

	return section, nil
}

func readU32s(reader *Reader, count uint32) ([]uint32, error) {
	if 4*uint64(count) > reader.Len()-reader.Position() {
		return nil, fmt.Errorf("%w: %d words at %d", ErrTruncated, count, reader.Position())
	}

	result := make([]uint32, count)
	for idx := range result {
		val, err := reader.U32()
		if err != nil {
			return nil, err
		}
		result[idx] = val
	}

	return result, nil
}

// Lookup returns the symbol named name, or nil if the table doesn't contain
// it.
func (section *HashTableSection) Lookup(name string) (*Symbol, error) {
	if len(section.Buckets) == 0 || name == "" {
		return nil, nil
	}

	table, err := hashedSymbolTable(&section.BaseSection)
	if err != nil {
		return nil, err
	}

	h := SysVHash(name)
	idx := section.Buckets[h%uint32(len(section.Buckets))]

	// Each chain step visits a distinct index in a well formed table.
	for steps := 0; idx != 0; steps++ {
		if steps > len(section.Chains) || int(idx) >= len(section.Chains) {
			return nil, fmt.Errorf(
				"%w: corrupted hash chain at symbol %d",
				ErrInvalidFormat,
				idx)
		}

		symbol, err := matchSymbol(table, idx, name)
		if err != nil || symbol != nil {
			return symbol, err
		}

		idx = section.Chains[idx]
	}

	return nil, nil
}

// SHT_GNU_HASH
//
// https://flapenguin.me/elf-dt-gnu-hash
type GNUHashTableSection struct {
	BaseSection

	SymbolOffset uint32 // symoffset; index of the first hashed symbol
	BloomShift   uint32
	BloomFilter  []uint64 // ELFCLASS_BITS wide words
	Buckets      []uint32

	chainOffset uint64
	chain       *Lazy[[]uint32]
}

func (file *File) parseGNUHashTable(
	header SectionHeaderEntry,
) (
	*GNUHashTableSection,
	error,
) {
	section := &GNUHashTableSection{
		BaseSection: newBaseSection(file, header),
	}

	reader := file.reader
	err := reader.Seek(header.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gnu hash table: %w", err)
	}

	fields := make([]uint32, 4)
	for idx := range fields {
		fields[idx], err = reader.U32()
		if err != nil {
			return nil, fmt.Errorf("failed to parse gnu hash table: %w", err)
		}
	}

	numBuckets := fields[0]
	section.SymbolOffset = fields[1]
	bloomSize := fields[2]
	section.BloomShift = fields[3]

	if bloomSize == 0 {
		return nil, fmt.Errorf("%w: gnu hash table has empty bloom filter", ErrInvalidFormat)
	}

	wordSize := uint64(file.Class.WordSize())
	if uint64(bloomSize)*wordSize > reader.Len()-reader.Position() {
		return nil, fmt.Errorf(
			"%w: gnu hash bloom filter (%d words)",
			ErrTruncated,
			bloomSize)
	}

	section.BloomFilter = make([]uint64, bloomSize)
	for idx := range section.BloomFilter {
		section.BloomFilter[idx], err = reader.WordOrDword()
		if err != nil {
			return nil, fmt.Errorf("failed to parse gnu hash bloom filter: %w", err)
		}
	}

	section.Buckets, err = readU32s(reader, numBuckets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gnu hash buckets: %w", err)
	}

	section.chainOffset = reader.Position()
	section.chain = NewLazy(section.loadChain)
	return section, nil
}

// The chain has one entry per hashed symbol, i.e., the symbol table's size
// minus symoffset.  It is only loaded on first lookup.
func (section *GNUHashTableSection) loadChain() ([]uint32, error) {
	table, err := hashedSymbolTable(&section.BaseSection)
	if err != nil {
		return nil, err
	}

	if uint64(section.SymbolOffset) > uint64(len(table.Symbols)) {
		return nil, fmt.Errorf(
			"%w: gnu hash symoffset (%d) exceeds symbol table size (%d)",
			ErrInvalidFormat,
			section.SymbolOffset,
			len(table.Symbols))
	}

	reader := section.file.reader
	err = reader.Seek(section.chainOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to load gnu hash chain: %w", err)
	}

	chain, err := readU32s(
		reader,
		uint32(len(table.Symbols))-section.SymbolOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to load gnu hash chain: %w", err)
	}

	return chain, nil
}

func (section *GNUHashTableSection) bloomWordBits() uint32 {
	return uint32(8 * section.file.Class.WordSize())
}

// MayContain runs the bloom filter test.  false means name is definitely not
// in the table.
func (section *GNUHashTableSection) MayContain(name string) bool {
	h := GNUHash(name)
	bits := section.bloomWordBits()

	word := section.BloomFilter[(h/bits)%uint32(len(section.BloomFilter))]
	mask := uint64(1)<<(h%bits) | uint64(1)<<((h>>section.BloomShift)%bits)

	return word&mask == mask
}

// Lookup returns the symbol named name, or nil if the table doesn't contain
// it.
func (section *GNUHashTableSection) Lookup(name string) (*Symbol, error) {
	if len(section.Buckets) == 0 || !section.MayContain(name) {
		return nil, nil
	}

	h := GNUHash(name)
	symbolIndex := section.Buckets[h%uint32(len(section.Buckets))]
	if symbolIndex < section.SymbolOffset {
		return nil, nil
	}

	chain, err := section.chain.Get()
	if err != nil {
		return nil, err
	}

	table, err := hashedSymbolTable(&section.BaseSection)
	if err != nil {
		return nil, err
	}

	for ; ; symbolIndex++ {
		chainIndex := symbolIndex - section.SymbolOffset
		if int(chainIndex) >= len(chain) {
			return nil, fmt.Errorf(
				"%w: gnu hash chain overrun at symbol %d",
				ErrInvalidFormat,
				symbolIndex)
		}

		chainHash := chain[chainIndex]
		if h|1 == chainHash|1 {
			symbol, err := matchSymbol(table, symbolIndex, name)
			if err != nil || symbol != nil {
				return symbol, err
			}
		}

		// The low bit marks the end of the bucket's chain.
		if chainHash&1 != 0 {
			break
		}
	}

	return nil, nil
}
