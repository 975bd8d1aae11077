package elftest

import (
	"sort"

	"github.com/pattyshack/rvdis/elf"
)

type StringTable struct {
	content []byte
	offsets map[string]uint32
}

// NewStringTable returns a string table whose index 0 is the empty string.
func NewStringTable() *StringTable {
	return &StringTable{
		content: []byte{0},
		offsets: map[string]uint32{"": 0},
	}
}

// Add returns the string's index, appending it if it's not already in the
// table.
func (table *StringTable) Add(value string) uint32 {
	offset, ok := table.offsets[value]
	if ok {
		return offset
	}

	offset = uint32(len(table.content))
	table.content = append(table.content, value...)
	table.content = append(table.content, 0)
	table.offsets[value] = offset
	return offset
}

func (table *StringTable) Bytes() []byte {
	return table.content
}

type Symbol struct {
	Name         string
	Value        uint64
	Size         uint64
	Binding      elf.SymbolBinding
	Type         elf.SymbolType
	Other        byte
	SectionIndex elf.SectionIndex
}

// SymbolTable accumulates symbols.  Index 0 is the reserved null symbol.
type SymbolTable struct {
	Names   *StringTable
	Symbols []Symbol
}

func NewSymbolTable(names *StringTable) *SymbolTable {
	if names == nil {
		names = NewStringTable()
	}

	return &SymbolTable{
		Names:   names,
		Symbols: []Symbol{{}},
	}
}

// Add appends symbol and returns its index.
func (table *SymbolTable) Add(symbol Symbol) int {
	table.Symbols = append(table.Symbols, symbol)
	return len(table.Symbols) - 1
}

func (table *SymbolTable) AddFunction(name string, value uint64, size uint64) int {
	return table.Add(
		Symbol{
			Name:         name,
			Value:        value,
			Size:         size,
			Binding:      elf.SymbolBindingGlobal,
			Type:         elf.SymbolTypeFunction,
			SectionIndex: 1,
		})
}

// Encode returns the SHT_SYMTAB / SHT_DYNSYM section content.
func (builder *Builder) EncodeSymbols(table *SymbolTable) []byte {
	encoder := builder.newEncoder()
	for _, symbol := range table.Symbols {
		nameIndex := uint32(0)
		if symbol.Name != "" {
			nameIndex = table.Names.Add(symbol.Name)
		}

		encoder.U32(nameIndex)
		if builder.Class == elf.Class32 {
			encoder.Word(symbol.Value)
			encoder.Word(symbol.Size)
		}
		encoder.U8(elf.SymbolInfo(symbol.Binding, symbol.Type))
		encoder.U8(symbol.Other)
		encoder.U16(uint16(symbol.SectionIndex))
		if builder.Class == elf.Class64 {
			encoder.Word(symbol.Value)
			encoder.Word(symbol.Size)
		}
	}
	return encoder.Content()
}

// AddSymbolTable adds the symbol table section and its string table section
// (.strtab or .dynstr, selected by sectionType).  Returns the symbol table's
// section index.
func (builder *Builder) AddSymbolTable(
	sectionType elf.SectionType,
	table *SymbolTable,
) uint32 {
	name := ".symtab"
	stringTableName := elf.StringTableName
	if sectionType == elf.SectionTypeDynamicSymbolTable {
		name = ".dynsym"
		stringTableName = elf.DynamicStringTableName
	}

	content := builder.EncodeSymbols(table)

	symbolIndex := builder.AddSection(
		Section{
			Name:      name,
			Type:      sectionType,
			Alignment: builder.wordSize(),
			EntrySize: builder.SymbolEntrySize(),
			Content:   content,
			Link:      uint32(len(builder.Sections) + 2),
		})

	builder.AddSection(
		Section{
			Name:    stringTableName,
			Type:    elf.SectionTypeStringTable,
			Content: table.Names.Bytes(),
		})

	return symbolIndex
}

func (builder *Builder) EncodeDynamic(entries []elf.DynamicEntry) []byte {
	encoder := builder.newEncoder()
	for _, entry := range entries {
		encoder.Word(uint64(entry.Tag))
		encoder.Word(entry.Value)
	}
	return encoder.Content()
}

func (builder *Builder) EncodeNote(name string, noteType uint32, description []byte) []byte {
	encoder := builder.newEncoder()

	nameBytes := []byte(name)
	if name != "" {
		nameBytes = append(nameBytes, 0)
	}

	encoder.U32(uint32(len(nameBytes)))
	encoder.U32(uint32(len(description)))
	encoder.U32(noteType)
	encoder.Bytes(nameBytes)
	encoder.PadTo(alignUp(uint64(len(encoder.Content())), 4))
	encoder.Bytes(description)
	encoder.PadTo(alignUp(uint64(len(encoder.Content())), 4))

	return encoder.Content()
}

func (builder *Builder) EncodeU32s(values ...uint32) []byte {
	encoder := builder.newEncoder()
	for _, value := range values {
		encoder.U32(value)
	}
	return encoder.Content()
}

// EncodeSysVHashTable builds a SHT_HASH section content for names, where
// names[i] is symbol i's name (names[0] is the null symbol).
func (builder *Builder) EncodeSysVHashTable(names []string, numBuckets uint32) []byte {
	buckets := make([]uint32, numBuckets)
	chains := make([]uint32, len(names))

	for idx := len(names) - 1; idx > 0; idx-- {
		bucket := elf.SysVHash(names[idx]) % numBuckets
		chains[idx] = buckets[bucket]
		buckets[bucket] = uint32(idx)
	}

	values := []uint32{numBuckets, uint32(len(names))}
	values = append(values, buckets...)
	values = append(values, chains...)
	return builder.EncodeU32s(values...)
}

// GNUHashLayout returns hashed in the order the symbols must appear in the
// dynamic symbol table (starting at symbolOffset): grouped by bucket.
func GNUHashLayout(hashed []string, numBuckets uint32) []string {
	result := append([]string{}, hashed...)
	sort.SliceStable(
		result,
		func(i int, j int) bool {
			return elf.GNUHash(result[i])%numBuckets <
				elf.GNUHash(result[j])%numBuckets
		})
	return result
}

// EncodeGNUHashTable builds a SHT_GNU_HASH section content.  hashed must
// already be in GNUHashLayout order; hashed[i] is symbol symbolOffset+i.
func (builder *Builder) EncodeGNUHashTable(
	hashed []string,
	symbolOffset uint32,
	numBuckets uint32,
	bloomSize uint32,
	bloomShift uint32,
) []byte {
	bits := uint32(8 * builder.wordSize())

	bloom := make([]uint64, bloomSize)
	buckets := make([]uint32, numBuckets)
	chain := make([]uint32, len(hashed))

	for idx, name := range hashed {
		h := elf.GNUHash(name)

		word := (h / bits) % bloomSize
		bloom[word] |= uint64(1)<<(h%bits) | uint64(1)<<((h>>bloomShift)%bits)

		bucket := h % numBuckets
		if buckets[bucket] == 0 {
			buckets[bucket] = symbolOffset + uint32(idx)
		}

		chain[idx] = h &^ 1
		if idx == len(hashed)-1 ||
			elf.GNUHash(hashed[idx+1])%numBuckets != bucket {

			chain[idx] |= 1
		}
	}

	encoder := builder.newEncoder()
	encoder.U32(numBuckets)
	encoder.U32(symbolOffset)
	encoder.U32(bloomSize)
	encoder.U32(bloomShift)
	for _, word := range bloom {
		encoder.Word(word)
	}
	for _, bucket := range buckets {
		encoder.U32(bucket)
	}
	for _, value := range chain {
		encoder.U32(value)
	}

	return encoder.Content()
}
