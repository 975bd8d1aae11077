// Based on linux's man page, elf.h, golang's debug/elf package,
// and the elf 1.2 spec.
package elf

import (
	"fmt"
	"strings"
)

var (
	// EI_MAG0 - EI_MAG3
	IdentifierMagic = []byte{
		0x7f, // ELFMAG0
		'E',  // ELFMAG1
		'L',  // ELFMAG2
		'F',  // ELFMAG3
	}
)

const (
	SectionStringTableIndexNotDefined = 0      // SHN_UNDEF
	SectionStringTableIndexExtended   = 0xffff // SHN_XINDEX

	IdentifierVersion = 1 // EI_CURRENT
	FormatVersion     = 1 // EV_CURRENT

	ElfIdentifierSize = 16

	Elf32SymbolEntrySize = 16
	Elf64SymbolEntrySize = 24

	// NOTE: Although Elf64_Nhdr is defined, it looks like elf64 files in general
	// still encode notes using Elf32_Nhdr.
	NoteHeaderSize = 12
)

// EI_CLASS
type Class byte

const (
	ClassNone = Class(0) // ELFCLASSNONE
	Class32   = Class(1) // ELFCLASS32
	Class64   = Class(2) // ELFCLASS64
)

func (class Class) String() string {
	switch class {
	case ClassNone:
		return "ClassNone"
	case Class32:
		return "Class32"
	case Class64:
		return "Class64"
	default:
		return fmt.Sprintf("ClassUnknown(%d)", class)
	}
}

// Size in bytes of address sized fields (Elf32_Addr / Elf64_Addr).
func (class Class) WordSize() int {
	if class == Class64 {
		return 8
	}
	return 4
}

// EI_DATA
type DataEncoding byte

const (
	DataEncodingNone                       = DataEncoding(0) // ELFDATANONE
	DataEncodingTwosComplementLittleEndian = DataEncoding(1) // ELFDATA2LSB
	DataEncodingTwosComplementBigEndian    = DataEncoding(2) // ELFDATA2MSB
)

func (encoding DataEncoding) String() string {
	switch encoding {
	case DataEncodingNone:
		return "DataEncodingNone"
	case DataEncodingTwosComplementLittleEndian:
		return "TwosComplementLittleEndian"
	case DataEncodingTwosComplementBigEndian:
		return "TwosComplementBigEndian"
	default:
		return fmt.Sprintf("DataEncodingUnknown(%d)", encoding)
	}
}

// EI_OSABI
// NOTE: golang's debug/elf.OSABI defines a more complete list
type OperatingSystemABI byte

const (
	OperatingSystemABIUnixSystemV = OperatingSystemABI(0) // ELFOSABI_NONE
	OperatingSystemABILinux       = OperatingSystemABI(3) // ELFOSABI_LINUX
)

func (osAbi OperatingSystemABI) String() string {
	switch osAbi {
	case OperatingSystemABIUnixSystemV:
		return "UnixSystemV"
	case OperatingSystemABILinux:
		return "Linux"
	default:
		return fmt.Sprintf("OperatingSystemABIUnknown(%d)", osAbi)
	}
}

// e_type
type FileType uint16

const (
	FileTypeNone         = FileType(0) // ET_NONE
	FileTypeRelocatable  = FileType(1) // ET_REL
	FileTypeExecutable   = FileType(2) // ET_EXEC
	FileTypeSharedObject = FileType(3) // ET_DYN
	FileTypeCore         = FileType(4) // ET_CORE
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeNone:
		return "FileTypeNone"
	case FileTypeRelocatable:
		return "Relocatable"
	case FileTypeExecutable:
		return "Executable"
	case FileTypeSharedObject:
		return "SharedObject"
	case FileTypeCore:
		return "Core"
	default:
		return fmt.Sprintf("FileTypeUnknown(%d)", ft)
	}
}

type ProgramType uint32

// see debug/elf for a more complete list
const (
	ProgramNull            = ProgramType(0)          // PT_NULL
	ProgramLoadable        = ProgramType(1)          // PT_LOAD
	ProgramDynamicLinking  = ProgramType(2)          // PT_DYNAMIC
	ProgramInterpreterPath = ProgramType(3)          // PT_INTERP
	ProgramNote            = ProgramType(4)          // PT_NOTE
	ProgramSharedLibrary   = ProgramType(5)          // PT_SHLIB
	ProgramHeaderInfo      = ProgramType(6)          // PT_PHDR
	ProgramThreadLocal     = ProgramType(7)          // PT_TLS
	ProgramGNUStack        = ProgramType(0x6474e551) // PT_GNU_STACK
	ProgramRISCVAttributes = ProgramType(0x70000003) // PT_RISCV_ATTRIBUTES
)

func (segType ProgramType) String() string {
	switch segType {
	case ProgramNull:
		return "ProgramNull"
	case ProgramLoadable:
		return "Loadable"
	case ProgramDynamicLinking:
		return "DynamicLinking"
	case ProgramInterpreterPath:
		return "InterpreterPath"
	case ProgramNote:
		return "Note"
	case ProgramSharedLibrary:
		return "SharedLibrary"
	case ProgramHeaderInfo:
		return "HeaderInfo"
	case ProgramThreadLocal:
		return "ThreadLocal"
	case ProgramGNUStack:
		return "GNUStack"
	case ProgramRISCVAttributes:
		return "RISCVAttributes"
	default:
		return fmt.Sprintf("ProgramUnknown(%#x)", uint32(segType))
	}
}

type ProgramFlags uint32

const (
	ProgramFlagExecutableBit = ProgramFlags(0x1)
	ProgramFlagWritableBit   = ProgramFlags(0x2)
	ProgramFlagReadableBit   = ProgramFlags(0x4)
)

func (bits ProgramFlags) String() string {
	if bits > 7 {
		return fmt.Sprintf("%#x", uint32(bits))
	}

	rwx := []byte{'-', '-', '-'}
	if bits&ProgramFlagReadableBit != 0 {
		rwx[0] = 'r'
	}

	if bits&ProgramFlagWritableBit != 0 {
		rwx[1] = 'w'
	}

	if bits&ProgramFlagExecutableBit != 0 {
		rwx[2] = 'x'
	}

	return string(rwx)
}

type SectionType uint32

const (
	SectionTypeNull                  = SectionType(0)          // SHT_NULL
	SectionTypeProgramDefinedInfo    = SectionType(1)          // SHT_PROGBITS
	SectionTypeSymbolTable           = SectionType(2)          // SHT_SYMTAB
	SectionTypeStringTable           = SectionType(3)          // SHT_STRTAB
	SectionTypeRelocationWithAddends = SectionType(4)          // SHT_RELA
	SectionTypeSymbolHashTable       = SectionType(5)          // SHT_HASH
	SectionTypeDynamic               = SectionType(6)          // SHT_DYNAMIC
	SectionTypeNote                  = SectionType(7)          // SHT_NOTE
	SectionTypeNoSpace               = SectionType(8)          // SHT_NOBITS
	SectionTypeRelocationNoAddends   = SectionType(9)          // SHT_REL
	SectionTypeDynamicSymbolTable    = SectionType(11)         // SHT_DYNSYM
	SectionTypeInitArray             = SectionType(14)         // SHT_INIT_ARRAY
	SectionTypeFiniArray             = SectionType(15)         // SHT_FINI_ARRAY
	SectionTypeGNUHashTable          = SectionType(0x6ffffff6) // SHT_GNU_HASH
	SectionTypeRISCVAttributes       = SectionType(0x70000003) // SHT_RISCV_ATTRIBUTES
)

func (stype SectionType) String() string {
	switch stype {
	case SectionTypeNull:
		return "SectionTypeNull"
	case SectionTypeProgramDefinedInfo:
		return "ProgramDefinedInfo"
	case SectionTypeSymbolTable:
		return "SymbolTable"
	case SectionTypeStringTable:
		return "StringTable"
	case SectionTypeRelocationWithAddends:
		return "RelocationWithAddends"
	case SectionTypeSymbolHashTable:
		return "SymbolHashTable"
	case SectionTypeDynamic:
		return "Dynamic"
	case SectionTypeNote:
		return "Note"
	case SectionTypeNoSpace:
		return "NoSpace"
	case SectionTypeRelocationNoAddends:
		return "RelocationNoAddends"
	case SectionTypeDynamicSymbolTable:
		return "DynamicSymbolTable"
	case SectionTypeInitArray:
		return "InitArray"
	case SectionTypeFiniArray:
		return "FiniArray"
	case SectionTypeGNUHashTable:
		return "GNUHashTable"
	case SectionTypeRISCVAttributes:
		return "RISCVAttributes"
	default:
		return fmt.Sprintf("SectionTypeUnknown(%#x)", uint32(stype))
	}
}

type SectionFlags uint64

const (
	SectionContainsWritableData         = SectionFlags(0x1)   // SHF_WRITE
	SectionOccupiesMemory               = SectionFlags(0x2)   // SHF_ALLOC
	SectionContainsInstructions         = SectionFlags(0x4)   // SHF_EXECINSTR
	SectionMayBeMerged                  = SectionFlags(0x10)  // SHF_MERGE
	SectionContainsStrings              = SectionFlags(0x20)  // SHF_STRINGS
	SectionInfoHoldsSectionIndex        = SectionFlags(0x40)  // SHF_INFO_LINK
	SectionRequiresSpecialOrdering      = SectionFlags(0x80)  // SHF_LINK_ORDER
	SectionRequiresOsSpecificProcessing = SectionFlags(0x100) // SHF_OS_NONCONFORMING
	SectionIsGroupMember                = SectionFlags(0x200) // SHF_GROUP
	SectionContainsTLSData              = SectionFlags(0x400) // SHF_TLS
	SectionIsCompressed                 = SectionFlags(0x800) // SHF_COMPRESSED
)

func (flags SectionFlags) String() string {
	result := make([]byte, 11)
	for i := 0; i < 11; i++ {
		result[i] = '-'
	}

	if flags&SectionContainsWritableData != 0 {
		result[0] = 'w'
	}
	if flags&SectionOccupiesMemory != 0 {
		result[1] = 'a'
	}
	if flags&SectionContainsInstructions != 0 {
		result[2] = 'x'
	}
	if flags&SectionMayBeMerged != 0 {
		result[3] = 'm'
	}
	if flags&SectionContainsStrings != 0 {
		result[4] = 's'
	}
	if flags&SectionInfoHoldsSectionIndex != 0 {
		result[5] = 'i'
	}
	if flags&SectionRequiresSpecialOrdering != 0 {
		result[6] = 'l'
	}
	if flags&SectionRequiresOsSpecificProcessing != 0 {
		result[7] = 'o'
	}
	if flags&SectionIsGroupMember != 0 {
		result[8] = 'g'
	}
	if flags&SectionContainsTLSData != 0 {
		result[9] = 't'
	}
	if flags&SectionIsCompressed != 0 {
		result[10] = 'c'
	}

	return string(result)
}

// e_machine
// NOTE: golang's debug/elf.Machine defines a more complete list of machine
// types.
type MachineArchitecture uint16

const (
	MachineArchitectureNone    = MachineArchitecture(0)    // EM_NONE
	MachineArchitectureI386    = MachineArchitecture(3)    // EM_386
	MachineArchitectureARM     = MachineArchitecture(0x28) // EM_ARM
	MachineArchitectureX86_64  = MachineArchitecture(0x3e) // EM_X86_64
	MachineArchitectureAArch64 = MachineArchitecture(0xb7) // EM_AARCH64
	MachineArchitectureRISCV   = MachineArchitecture(0xf3) // EM_RISCV
)

func (arch MachineArchitecture) String() string {
	switch arch {
	case MachineArchitectureNone:
		return "MachineArchitectureNone"
	case MachineArchitectureI386:
		return "i386"
	case MachineArchitectureARM:
		return "arm"
	case MachineArchitectureX86_64:
		return "x86-64"
	case MachineArchitectureAArch64:
		return "aarch64"
	case MachineArchitectureRISCV:
		return "risc-v"
	default:
		return fmt.Sprintf("MachineArchitectureUnknown(%d)", arch)
	}
}

// The bottom 4 bits of st_info
type SymbolType byte

func SymbolInfoToType(info byte) SymbolType {
	return SymbolType(info & 0xf)
}

const (
	SymbolTypeNone                     = SymbolType(0) // STT_NOTYPE
	SymbolTypeObject                   = SymbolType(1) // STT_OBJECT
	SymbolTypeFunction                 = SymbolType(2) // STT_FUNC
	SymbolTypeSection                  = SymbolType(3) // STT_SECTION
	SymbolTypeSourceFile               = SymbolType(4) // STT_FILE
	SymbolTypeUninitializedCommonBlock = SymbolType(5) // STT_COMMON
	SymbolTypeTLSObject                = SymbolType(6) // STT_TLS
)

func (st SymbolType) String() string {
	switch st {
	case SymbolTypeNone:
		return "NoType"
	case SymbolTypeObject:
		return "Object"
	case SymbolTypeFunction:
		return "Function"
	case SymbolTypeSection:
		return "Section"
	case SymbolTypeSourceFile:
		return "SourceFile"
	case SymbolTypeUninitializedCommonBlock:
		return "UninitializedCommonBlock"
	case SymbolTypeTLSObject:
		return "TLSObject"
	default:
		return fmt.Sprintf("SymbolTypeUnknown(%d)", st)
	}
}

// The top 4 bits of st_info
type SymbolBinding byte

func SymbolInfoToBinding(info byte) SymbolBinding {
	return SymbolBinding(info >> 4)
}

func SymbolInfo(binding SymbolBinding, symbolType SymbolType) byte {
	return byte(binding)<<4 | byte(symbolType)&0xf
}

const (
	SymbolBindingLocal  = SymbolBinding(0) // STB_LOCAL
	SymbolBindingGlobal = SymbolBinding(1) // STB_GLOBAL
	SymbolBindingWeak   = SymbolBinding(2) // STB_WEAK
)

func (sb SymbolBinding) String() string {
	switch sb {
	case SymbolBindingLocal:
		return "Local"
	case SymbolBindingGlobal:
		return "Global"
	case SymbolBindingWeak:
		return "Weak"
	default:
		return fmt.Sprintf("SymbolBindingUnknown(%d)", sb)
	}
}

// The bottom 2 bits of st_other
type SymbolVisibility byte

const (
	SymbolVisibilityDefault   = SymbolVisibility(0) // STV_DEFAULT
	SymbolVisibilityInternal  = SymbolVisibility(1) // STV_INTERNAL
	SymbolVisibilityHidden    = SymbolVisibility(2) // STV_HIDDEN
	SymbolVisibilityProtected = SymbolVisibility(3) // STV_PROTECTED
)

func (vis SymbolVisibility) String() string {
	switch vis {
	case SymbolVisibilityDefault:
		return "Default"
	case SymbolVisibilityInternal:
		return "Internal"
	case SymbolVisibilityHidden:
		return "Hidden"
	case SymbolVisibilityProtected:
		return "Protected"
	default:
		return fmt.Sprintf("SymbolVisibilityUnknown(%d)", vis)
	}
}

type SectionIndex uint16

const (
	SectionIndexUndefined = SectionIndex(0)
	SectionIndexAbsolute  = SectionIndex(0xfff1)
	SectionIndexCommon    = SectionIndex(0xfff2)

	SectionStringTableName = ".shstrtab"
	StringTableName        = ".strtab"
	DynamicStringTableName = ".dynstr"
	TextSectionName        = ".text"
)

// d_tag
type DynamicTag int64

const (
	DynamicTagNull               = DynamicTag(0)          // DT_NULL
	DynamicTagNeeded             = DynamicTag(1)          // DT_NEEDED
	DynamicTagPLTRelocationsSize = DynamicTag(2)          // DT_PLTRELSZ
	DynamicTagPLTGOT             = DynamicTag(3)          // DT_PLTGOT
	DynamicTagHash               = DynamicTag(4)          // DT_HASH
	DynamicTagStringTable        = DynamicTag(5)          // DT_STRTAB
	DynamicTagSymbolTable        = DynamicTag(6)          // DT_SYMTAB
	DynamicTagRela               = DynamicTag(7)          // DT_RELA
	DynamicTagRelaSize           = DynamicTag(8)          // DT_RELASZ
	DynamicTagRelaEntrySize      = DynamicTag(9)          // DT_RELAENT
	DynamicTagStringTableSize    = DynamicTag(10)         // DT_STRSZ
	DynamicTagSymbolEntrySize    = DynamicTag(11)         // DT_SYMENT
	DynamicTagInit               = DynamicTag(12)         // DT_INIT
	DynamicTagFini               = DynamicTag(13)         // DT_FINI
	DynamicTagSharedObjectName   = DynamicTag(14)         // DT_SONAME
	DynamicTagRPath              = DynamicTag(15)         // DT_RPATH
	DynamicTagSymbolic           = DynamicTag(16)         // DT_SYMBOLIC
	DynamicTagRel                = DynamicTag(17)         // DT_REL
	DynamicTagRelSize            = DynamicTag(18)         // DT_RELSZ
	DynamicTagRelEntrySize       = DynamicTag(19)         // DT_RELENT
	DynamicTagPLTRel             = DynamicTag(20)         // DT_PLTREL
	DynamicTagDebug              = DynamicTag(21)         // DT_DEBUG
	DynamicTagTextRel            = DynamicTag(22)         // DT_TEXTREL
	DynamicTagJumpRel            = DynamicTag(23)         // DT_JMPREL
	DynamicTagBindNow            = DynamicTag(24)         // DT_BIND_NOW
	DynamicTagInitArray          = DynamicTag(25)         // DT_INIT_ARRAY
	DynamicTagFiniArray          = DynamicTag(26)         // DT_FINI_ARRAY
	DynamicTagInitArraySize      = DynamicTag(27)         // DT_INIT_ARRAYSZ
	DynamicTagFiniArraySize      = DynamicTag(28)         // DT_FINI_ARRAYSZ
	DynamicTagRunPath            = DynamicTag(29)         // DT_RUNPATH
	DynamicTagFlags              = DynamicTag(30)         // DT_FLAGS
	DynamicTagPreInitArray       = DynamicTag(32)         // DT_PREINIT_ARRAY
	DynamicTagGNUHash            = DynamicTag(0x6ffffef5) // DT_GNU_HASH
	DynamicTagFlags1             = DynamicTag(0x6ffffffb) // DT_FLAGS_1
	DynamicTagVersionDefinition  = DynamicTag(0x6ffffffc) // DT_VERDEF
	DynamicTagVersionDefNum      = DynamicTag(0x6ffffffd) // DT_VERDEFNUM
	DynamicTagVersionNeeded      = DynamicTag(0x6ffffffe) // DT_VERNEED
	DynamicTagVersionNeededNum   = DynamicTag(0x6fffffff) // DT_VERNEEDNUM
)

var dynamicTagNames = map[DynamicTag]string{
	DynamicTagNull:               "Null",
	DynamicTagNeeded:             "Needed",
	DynamicTagPLTRelocationsSize: "PLTRelocationsSize",
	DynamicTagPLTGOT:             "PLTGOT",
	DynamicTagHash:               "Hash",
	DynamicTagStringTable:        "StringTable",
	DynamicTagSymbolTable:        "SymbolTable",
	DynamicTagRela:               "Rela",
	DynamicTagRelaSize:           "RelaSize",
	DynamicTagRelaEntrySize:      "RelaEntrySize",
	DynamicTagStringTableSize:    "StringTableSize",
	DynamicTagSymbolEntrySize:    "SymbolEntrySize",
	DynamicTagInit:               "Init",
	DynamicTagFini:               "Fini",
	DynamicTagSharedObjectName:   "SharedObjectName",
	DynamicTagRPath:              "RPath",
	DynamicTagSymbolic:           "Symbolic",
	DynamicTagRel:                "Rel",
	DynamicTagRelSize:            "RelSize",
	DynamicTagRelEntrySize:       "RelEntrySize",
	DynamicTagPLTRel:             "PLTRel",
	DynamicTagDebug:              "Debug",
	DynamicTagTextRel:            "TextRel",
	DynamicTagJumpRel:            "JumpRel",
	DynamicTagBindNow:            "BindNow",
	DynamicTagInitArray:          "InitArray",
	DynamicTagFiniArray:          "FiniArray",
	DynamicTagInitArraySize:      "InitArraySize",
	DynamicTagFiniArraySize:      "FiniArraySize",
	DynamicTagRunPath:            "RunPath",
	DynamicTagFlags:              "Flags",
	DynamicTagPreInitArray:       "PreInitArray",
	DynamicTagGNUHash:            "GNUHash",
	DynamicTagFlags1:             "Flags1",
	DynamicTagVersionDefinition:  "VersionDefinition",
	DynamicTagVersionDefNum:      "VersionDefinitionNum",
	DynamicTagVersionNeeded:      "VersionNeeded",
	DynamicTagVersionNeededNum:   "VersionNeededNum",
}

func (tag DynamicTag) String() string {
	name, ok := dynamicTagNames[tag]
	if ok {
		return name
	}
	return fmt.Sprintf("DynamicTagUnknown(%#x)", int64(tag))
}

// DT_FLAGS values
type DynamicFlags uint64

const (
	DynamicFlagOrigin    = DynamicFlags(0x1)  // DF_ORIGIN
	DynamicFlagSymbolic  = DynamicFlags(0x2)  // DF_SYMBOLIC
	DynamicFlagTextRel   = DynamicFlags(0x4)  // DF_TEXTREL
	DynamicFlagBindNow   = DynamicFlags(0x8)  // DF_BIND_NOW
	DynamicFlagStaticTLS = DynamicFlags(0x10) // DF_STATIC_TLS
)

func (flags DynamicFlags) String() string {
	return flagNames(
		uint64(flags),
		[]string{"ORIGIN", "SYMBOLIC", "TEXTREL", "BIND_NOW", "STATIC_TLS"})
}

// DT_FLAGS_1 values
type DynamicFlags1 uint64

const (
	DynamicFlag1Now       = DynamicFlags1(0x1)       // DF_1_NOW
	DynamicFlag1Global    = DynamicFlags1(0x2)       // DF_1_GLOBAL
	DynamicFlag1Group     = DynamicFlags1(0x4)       // DF_1_GROUP
	DynamicFlag1NoDelete  = DynamicFlags1(0x8)       // DF_1_NODELETE
	DynamicFlag1InitFirst = DynamicFlags1(0x20)      // DF_1_INITFIRST
	DynamicFlag1NoOpen    = DynamicFlags1(0x40)      // DF_1_NOOPEN
	DynamicFlag1Origin    = DynamicFlags1(0x80)      // DF_1_ORIGIN
	DynamicFlag1NoDefLib  = DynamicFlags1(0x800)     // DF_1_NODEFLIB
	DynamicFlag1PIE       = DynamicFlags1(0x8000000) // DF_1_PIE
)

func (flags DynamicFlags1) String() string {
	names := make([]string, 28)
	names[0] = "NOW"
	names[1] = "GLOBAL"
	names[2] = "GROUP"
	names[3] = "NODELETE"
	names[5] = "INITFIRST"
	names[6] = "NOOPEN"
	names[7] = "ORIGIN"
	names[11] = "NODEFLIB"
	names[27] = "PIE"
	return flagNames(uint64(flags), names)
}

func flagNames(flags uint64, names []string) string {
	if flags == 0 {
		return "0"
	}

	parts := []string{}
	for bit, name := range names {
		mask := uint64(1) << bit
		if flags&mask == 0 || name == "" {
			continue
		}
		parts = append(parts, name)
		flags &^= mask
	}

	if flags != 0 {
		parts = append(parts, fmt.Sprintf("%#x", flags))
	}

	return strings.Join(parts, "|")
}

// n_type for notes owned by "GNU"
type NoteType uint32

const (
	NoteTypeGNUABITag       = NoteType(1) // NT_GNU_ABI_TAG
	NoteTypeGNUHWCap        = NoteType(2) // NT_GNU_HWCAP
	NoteTypeGNUBuildID      = NoteType(3) // NT_GNU_BUILD_ID
	NoteTypeGNUGoldVersion  = NoteType(4) // NT_GNU_GOLD_VERSION
	NoteTypeGNUPropertyType = NoteType(5) // NT_GNU_PROPERTY_TYPE_0
)

func (nt NoteType) String() string {
	switch nt {
	case NoteTypeGNUABITag:
		return "GNUABITag"
	case NoteTypeGNUHWCap:
		return "GNUHWCap"
	case NoteTypeGNUBuildID:
		return "GNUBuildID"
	case NoteTypeGNUGoldVersion:
		return "GNUGoldVersion"
	case NoteTypeGNUPropertyType:
		return "GNUPropertyType0"
	default:
		return fmt.Sprintf("NoteTypeUnknown(%d)", uint32(nt))
	}
}

// Operating system field of the GNU ABI tag descriptor.
type NoteOperatingSystem uint32

const (
	NoteOperatingSystemLinux    = NoteOperatingSystem(0) // ELF_NOTE_OS_LINUX
	NoteOperatingSystemGNU      = NoteOperatingSystem(1) // ELF_NOTE_OS_GNU
	NoteOperatingSystemSolaris2 = NoteOperatingSystem(2) // ELF_NOTE_OS_SOLARIS2
	NoteOperatingSystemFreeBSD  = NoteOperatingSystem(3) // ELF_NOTE_OS_FREEBSD
)

func (os NoteOperatingSystem) String() string {
	switch os {
	case NoteOperatingSystemLinux:
		return "Linux"
	case NoteOperatingSystemGNU:
		return "GNU"
	case NoteOperatingSystemSolaris2:
		return "Solaris2"
	case NoteOperatingSystemFreeBSD:
		return "FreeBSD"
	default:
		return fmt.Sprintf("NoteOperatingSystemUnknown(%d)", uint32(os))
	}
}

// Decoded headers.  Unlike the on-disk c structs, address sized fields are
// widened to 64 bits so that the same struct serves both classes.

// e_ident
type Identifier struct {
	Magic              [4]byte // EI_MAG0 ... EI_MAG3
	Class                      // EI_CLASS
	DataEncoding               // EI_DATA
	IdentifierVersion  byte    // EI_VERSION
	OperatingSystemABI         // EI_OSABI
	ABIVersion         byte    // EI_ABIVERSION
}

// Elf32_Ehdr / Elf64_Ehdr
type ElfHeader struct {
	Identifier                           // e_ident[EI_NIDENT]
	FileType                             // e_type
	MachineArchitecture                  // e_machine
	FormatVersion           uint32       // e_version
	EntryPointAddress       uint64       // e_entry
	ProgramHeaderOffset     uint64       // e_phoff
	SectionHeaderOffset     uint64       // e_shoff
	ArchitectureFlags       uint32       // e_flags
	ElfHeaderSize           uint16       // e_ehsize
	ProgramHeaderEntrySize  uint16       // e_phentsize
	NumProgramHeaderEntries uint16       // e_phnum
	SectionHeaderEntrySize  uint16       // e_shentsize
	NumSectionHeaderEntries uint16       // e_shnum
	SectionStringTableIndex SectionIndex // e_shstrndx
}

// Elf32_Phdr / Elf64_Phdr
type ProgramHeaderEntry struct {
	ProgramType            // p_type
	ProgramFlags           // p_flags
	ContentOffset   uint64 // p_offset
	VirtualAddress  uint64 // p_vaddr
	PhysicalAddress uint64 // p_paddr
	FileImageSize   uint64 // p_filesz
	MemoryImageSize uint64 // p_memsz
	Alignment       uint64 // p_align
}

// Elf32_Shdr / Elf64_Shdr
type SectionHeaderEntry struct {
	NameIndex        uint32 // sh_name
	SectionType             // sh_type
	SectionFlags            // sh_flags
	Address          uint64 // sh_addr
	Offset           uint64 // sh_offset
	Size             uint64 // sh_size
	Link             uint32 // sh_link
	Info             uint32 // sh_info
	AddressAlignment uint64 // sh_addralign
	EntrySize        uint64 // sh_entsize
}

// Elf32_Sym / Elf64_Sym
type SymbolEntry struct {
	NameIndex    uint32 // st_name
	Info         byte   // st_info.  (4 bits st_bind, 4 bits st_type)
	Other        byte   // st_other.  (2 bits st_visibility)
	SectionIndex        // st_shndx
	Value        uint64 // st_value
	Size         uint64 // st_size
}

// NOTE: Although Elf64_Nhdr is defined, it looks like notes in elf64 files
// are still encoded using Elf32_Nhdr.
// Elf32_Nhdr
type NoteHeader struct {
	NameSize        uint32
	DescriptionSize uint32
	Type            uint32
}
