// Package summary collects a parsed elf file's headers, sections, segments,
// symbols, dynamic linking info and notes into a single serializable report.
package summary

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pattyshack/rvdis/elf"
)

type Header struct {
	Class               string `yaml:"class"`
	DataEncoding        string `yaml:"data_encoding"`
	OperatingSystemABI  string `yaml:"os_abi"`
	ABIVersion          uint8  `yaml:"abi_version"`
	FileType            string `yaml:"type"`
	MachineArchitecture string `yaml:"machine"`
	EntryPointAddress   string `yaml:"entry"`
	ArchitectureFlags   string `yaml:"flags"`
	NumSections         int    `yaml:"num_sections"`
	NumSegments         int    `yaml:"num_segments"`
}

type Section struct {
	Index   int    `yaml:"index"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Flags   string `yaml:"flags,omitempty"`
	Address string `yaml:"address"`
	Offset  string `yaml:"offset"`
	Size    uint64 `yaml:"size"`
	Link    uint32 `yaml:"link,omitempty"`
	Info    uint32 `yaml:"info,omitempty"`

	// Set for string, symbol, relocation, hash and note sections.
	NumEntries int `yaml:"num_entries,omitempty"`
}

type Segment struct {
	Index          int    `yaml:"index"`
	Type           string `yaml:"type"`
	Flags          string `yaml:"flags"`
	Offset         string `yaml:"offset"`
	VirtualAddress string `yaml:"vaddr"`
	FileSize       uint64 `yaml:"file_size"`
	MemorySize     uint64 `yaml:"memory_size"`
}

type Symbol struct {
	Index        int    `yaml:"index"`
	Name         string `yaml:"name"`
	Demangled    string `yaml:"demangled,omitempty"`
	Value        string `yaml:"value"`
	Size         uint64 `yaml:"size"`
	Type         string `yaml:"type"`
	Binding      string `yaml:"binding"`
	Visibility   string `yaml:"visibility"`
	SectionIndex uint16 `yaml:"section_index"`
}

type SymbolTable struct {
	Section string   `yaml:"section"`
	Symbols []Symbol `yaml:"symbols"`
}

type Dynamic struct {
	Needed           []string `yaml:"needed,omitempty"`
	SharedObjectName string   `yaml:"soname,omitempty"`
	RunPath          string   `yaml:"runpath,omitempty"`
	RPath            string   `yaml:"rpath,omitempty"`
	Flags            string   `yaml:"flags,omitempty"`
	Flags1           string   `yaml:"flags_1,omitempty"`
	NumEntries       int      `yaml:"num_entries"`
}

type Note struct {
	Section     string `yaml:"section"`
	Owner       string `yaml:"owner"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

type Report struct {
	Header      Header        `yaml:"header"`
	Interpreter string        `yaml:"interpreter,omitempty"`
	Sections    []Section     `yaml:"sections"`
	Segments    []Segment     `yaml:"segments"`
	Symbols     []SymbolTable `yaml:"symbol_tables,omitempty"`
	Dynamic     *Dynamic      `yaml:"dynamic,omitempty"`
	Notes       []Note        `yaml:"notes,omitempty"`
	BuildID     string        `yaml:"build_id,omitempty"`
	ABITag      string        `yaml:"abi_tag,omitempty"`
}

func hex(value uint64) string {
	return fmt.Sprintf("%#x", value)
}

// New forces every lazily parsed section and segment.  The first malformed
// section or segment aborts the report.
func New(file *elf.File) (*Report, error) {
	report := &Report{
		Header: Header{
			Class:               file.Class.String(),
			DataEncoding:        file.DataEncoding.String(),
			OperatingSystemABI:  file.OperatingSystemABI.String(),
			ABIVersion:          file.ABIVersion,
			FileType:            file.FileType.String(),
			MachineArchitecture: file.MachineArchitecture.String(),
			EntryPointAddress:   hex(file.EntryPointAddress),
			ArchitectureFlags:   fmt.Sprintf("%#x", file.ArchitectureFlags),
			NumSections:         file.NumSections(),
			NumSegments:         file.NumSegments(),
		},
	}

	for idx := 0; idx < file.NumSections(); idx++ {
		section, err := file.Section(idx)
		if err != nil {
			return nil, err
		}

		err = report.addSection(idx, section)
		if err != nil {
			return nil, err
		}
	}

	for idx := 0; idx < file.NumSegments(); idx++ {
		segment, err := file.Segment(idx)
		if err != nil {
			return nil, err
		}

		report.Segments = append(
			report.Segments,
			Segment{
				Index:          idx,
				Type:           segment.ProgramType.String(),
				Flags:          segment.ProgramFlags.String(),
				Offset:         hex(segment.ContentOffset),
				VirtualAddress: hex(segment.VirtualAddress),
				FileSize:       segment.FileImageSize,
				MemorySize:     segment.MemoryImageSize,
			})
	}

	interpreter, ok, err := file.InterpreterPath()
	if err != nil {
		return nil, err
	}
	if ok {
		report.Interpreter = interpreter
	}

	dynamic, err := file.Dynamic()
	if err != nil {
		return nil, err
	}
	if dynamic != nil {
		report.Dynamic, err = newDynamic(dynamic)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (report *Report) addSection(idx int, section elf.Section) error {
	name, err := section.Name()
	if err != nil {
		return err
	}

	header := section.Header()
	entry := Section{
		Index:   idx,
		Name:    name,
		Type:    header.SectionType.String(),
		Address: hex(header.Address),
		Offset:  hex(header.Offset),
		Size:    header.Size,
		Link:    header.Link,
		Info:    header.Info,
	}

	if header.SectionFlags != 0 {
		entry.Flags = header.SectionFlags.String()
	}

	switch s := section.(type) {
	case *elf.StringTableSection:
		entry.NumEntries = s.NumEntries()
	case *elf.SymbolTableSection:
		entry.NumEntries = len(s.Symbols)

		table, err := newSymbolTable(name, s)
		if err != nil {
			return err
		}
		report.Symbols = append(report.Symbols, table)
	case *elf.RelocationSection:
		entry.NumEntries = len(s.Entries)
	case *elf.HashTableSection:
		entry.NumEntries = len(s.Chains)
	case *elf.GNUHashTableSection:
		entry.NumEntries = len(s.Buckets)
	case *elf.NoteSection:
		entry.NumEntries = len(s.Entries)
		report.addNotes(name, s)
	}

	report.Sections = append(report.Sections, entry)
	return nil
}

func newSymbolTable(
	name string,
	section *elf.SymbolTableSection,
) (
	SymbolTable,
	error,
) {
	table := SymbolTable{
		Section: name,
	}

	for _, symbol := range section.Symbols {
		name, err := symbol.Name()
		if err != nil {
			return SymbolTable{}, err
		}

		demangled, err := symbol.DemangledName()
		if err != nil {
			return SymbolTable{}, err
		}

		visibilityName := fmt.Sprintf("invalid(%d)", symbol.Other)
		visibility, err := symbol.Visibility()
		if err == nil {
			visibilityName = visibility.String()
		}

		table.Symbols = append(
			table.Symbols,
			Symbol{
				Index:        symbol.Index,
				Name:         name,
				Demangled:    demangled,
				Value:        hex(symbol.Value),
				Size:         symbol.Size,
				Type:         symbol.Type().String(),
				Binding:      symbol.Binding().String(),
				Visibility:   visibilityName,
				SectionIndex: uint16(symbol.SectionIndex),
			})
	}

	return table, nil
}

func (report *Report) addNotes(name string, section *elf.NoteSection) {
	for _, entry := range section.Entries {
		note := Note{
			Section: name,
			Owner:   entry.Name,
			Type:    entry.NoteType().String(),
		}

		if entry.ABITag != nil {
			note.Description = entry.ABITag.String()
		} else if len(entry.Description) > 0 {
			note.Description = fmt.Sprintf("%x", entry.Description)
		}

		report.Notes = append(report.Notes, note)
	}

	if report.BuildID == "" {
		report.BuildID, _ = section.BuildID()
	}

	if report.ABITag == "" {
		tag := section.ABITag()
		if tag != nil {
			report.ABITag = tag.String()
		}
	}
}

func newDynamic(section *elf.DynamicSection) (*Dynamic, error) {
	needed, err := section.NeededLibraries()
	if err != nil {
		return nil, err
	}

	dynamic := &Dynamic{
		Needed:     needed,
		NumEntries: len(section.Entries),
	}

	dynamic.SharedObjectName, _, err = section.SharedObjectName()
	if err != nil {
		return nil, err
	}

	dynamic.RunPath, _, err = section.RunPath()
	if err != nil {
		return nil, err
	}

	dynamic.RPath, _, err = section.RPath()
	if err != nil {
		return nil, err
	}

	if flags := section.Flags(); flags != 0 {
		dynamic.Flags = flags.String()
	}

	if flags := section.Flags1(); flags != 0 {
		dynamic.Flags1 = flags.String()
	}

	return dynamic, nil
}

func (report *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(report)
}
