package main

import (
	"fmt"
	"strconv"
	"strings"
)

func listSections(state *session, args []string) error {
	for idx := 0; idx < state.file.NumSections(); idx++ {
		section, err := state.file.Section(idx)
		if err != nil {
			return err
		}

		name, err := section.Name()
		if err != nil {
			return err
		}

		header := section.Header()
		fmt.Printf(
			"  [%2d] %-20s %-16s addr=%#x offset=%#x size=%#x flags=%s\n",
			idx,
			name,
			header.SectionType,
			header.Address,
			header.Offset,
			header.Size,
			header.SectionFlags)
	}
	return nil
}

func listSegments(state *session, args []string) error {
	for idx := 0; idx < state.file.NumSegments(); idx++ {
		segment, err := state.file.Segment(idx)
		if err != nil {
			return err
		}

		fmt.Printf("  [%2d] %s\n", idx, segment)
	}
	return nil
}

func listNeeded(state *session, args []string) error {
	dynamic, err := state.file.Dynamic()
	if err != nil {
		return err
	}

	if dynamic == nil {
		fmt.Println("no dynamic section")
		return nil
	}

	needed, err := dynamic.NeededLibraries()
	if err != nil {
		return err
	}

	if len(needed) == 0 {
		fmt.Println("no needed libraries")
	}

	for _, lib := range needed {
		fmt.Println(" ", lib)
	}

	runPath, ok, err := dynamic.RunPath()
	if err != nil {
		return err
	}
	if ok {
		fmt.Println("runpath:", runPath)
	}

	return nil
}

func printInterpreter(state *session, args []string) error {
	path, ok, err := state.file.InterpreterPath()
	if err != nil {
		return err
	}

	if !ok {
		fmt.Println("no interpreter")
		return nil
	}

	fmt.Println(path)
	return nil
}

func disassemble(state *session, args []string) error {
	if state.disassembler == nil {
		fmt.Println("cannot disassemble:", state.disassemblerErr)
		return nil
	}

	addrStr := ""
	addr, _ := state.disassembler.TextRange()

	numInstStr := ""
	numInst := 5
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			if addrStr != "" {
				fmt.Println(
					"Invalid arguments. multiple @<addr> specified.",
					addrStr,
					"vs",
					arg)
				return nil
			}

			addrStr = arg
			val, err := strconv.ParseUint(arg[1:], 0, 64)
			if err != nil {
				fmt.Printf("Invalid @<addr> argument (%s): %s\n", arg, err)
				return nil
			}
			addr = val
		} else {
			if numInstStr != "" {
				fmt.Println(
					"Invalid arguments. multiple <n> specified.",
					numInstStr,
					"vs",
					arg)
				return nil
			}

			numInstStr = arg
			val, err := strconv.ParseInt(arg, 0, 32)
			if err != nil {
				fmt.Printf("Invalid <n> argument (%s): %s\n", arg, err)
				return nil
			}
			numInst = int(val)
		}
	}

	lines, err := state.disassembler.DisassembleRange(addr, numInst)
	if err != nil {
		fmt.Printf(
			"failed to disassemble instructions at %x: %s\n",
			addr,
			err)
		return nil
	}

	for _, line := range lines {
		fmt.Println(line)
	}

	return nil
}
