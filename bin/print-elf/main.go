package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/summary"
)

func printYAML(file *elf.File) error {
	report, err := summary.New(file)
	if err != nil {
		return err
	}

	content, err := report.Marshal()
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(content)
	return err
}

func printText(file *elf.File) error {
	fmt.Printf("Header: %+v\n", file.ElfHeader)

	fmt.Println("Sections:", file.NumSections())
	for sectionIdx := 0; sectionIdx < file.NumSections(); sectionIdx++ {
		section, err := file.Section(sectionIdx)
		if err != nil {
			return err
		}

		name, err := section.Name()
		if err != nil {
			return err
		}

		fmt.Printf("  [%d] %s: %+v\n", sectionIdx, name, section.Header())

		switch s := section.(type) {
		case *elf.StringTableSection:
			fmt.Printf("    Number of string entries: %d\n", s.NumEntries())
		case *elf.SymbolTableSection:
			for symbolIdx, entry := range s.Symbols {
				name, err := entry.PrettyName()
				if err != nil {
					return err
				}

				visibility, err := entry.Visibility()
				if err != nil {
					return err
				}

				fmt.Printf(
					"    %d: %x %d %s %s %s %d %s\n",
					symbolIdx,
					entry.Value,
					entry.Size,
					entry.Type(),
					entry.Binding(),
					visibility,
					entry.SectionIndex,
					name)
			}
		case *elf.DynamicSection:
			for entryIdx, entry := range s.Entries {
				fmt.Printf("    %d: %s %#x\n", entryIdx, entry.Tag, entry.Value)
			}
		case *elf.RelocationSection:
			for entryIdx, entry := range s.Entries {
				fmt.Printf(
					"    %d: offset=%#x type=%d symbol=%d addend=%d\n",
					entryIdx,
					entry.Offset,
					entry.Type(),
					entry.SymbolIndex(),
					entry.Addend)
			}
		case *elf.NoteSection:
			for noteIdx, entry := range s.Entries {
				fmt.Printf(
					"    %d: Name = %s Type = %s Description length = %d\n",
					noteIdx,
					entry.Name,
					entry.NoteType(),
					len(entry.Description))
				if entry.ABITag != nil {
					fmt.Println("      ABI tag:", entry.ABITag)
				}
			}
		}
	}

	fmt.Println("Program headers:", file.NumSegments())
	for headerIdx := 0; headerIdx < file.NumSegments(); headerIdx++ {
		segment, err := file.Segment(headerIdx)
		if err != nil {
			return err
		}

		fmt.Printf("  [%d] %s\n", headerIdx, segment)
	}

	return nil
}

func main() {
	asYAML := false
	flag.BoolVar(&asYAML, "yaml", false, "print a yaml summary")

	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "USAGE: print-elf [-yaml] <file>")
		os.Exit(1)
	}

	file, err := elf.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer file.Close()

	if asYAML {
		err = printYAML(file)
	} else {
		err = printText(file)
	}

	if err != nil {
		file.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
