package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/riscv"
)

type session struct {
	file *elf.File

	// nil when the file is not a 32-bit risc-v executable.
	disassembler    *riscv.Disassembler
	disassemblerErr error
}

type command struct {
	name        string
	description string
	run         func(*session, []string) error
}

var commands []command

func init() {
	commands = []command{
		{
			name:        "symbol",
			description: " <name>            - find symbol by linear scan",
			run:         findSymbol,
		},
		{
			name:        "lookup",
			description: " <name>            - find symbol through the hash tables",
			run:         lookupSymbol,
		},
		{
			name:        "address",
			description: " <address>        - find symbol spanning address",
			run:         symbolAtAddress,
		},
		{
			name:        "translate",
			description: " <address>      - translate virtual address to file offset",
			run:         translateAddress,
		},
		{
			name:        "read",
			description: " <address> [<n>]     - dump n bytes of file content at address",
			run:         readMemory,
		},
		{
			name:        "sections",
			description: "                - list section headers",
			run:         listSections,
		},
		{
			name:        "segments",
			description: "                - list program headers",
			run:         listSegments,
		},
		{
			name:        "needed",
			description: "                  - list needed shared libraries",
			run:         listNeeded,
		},
		{
			name:        "interp",
			description: "                  - print interpreter path",
			run:         printInterpreter,
		},
		{
			name:        "disassemble",
			description: " [@<address>] [<n>] - disassemble n .text instructions",
			run:         disassemble,
		},
		{
			name:        "help",
			description: "                    - print this message",
			run:         printHelp,
		},
	}
}

func printHelp(*session, []string) error {
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %s%s\n", cmd.name, cmd.description)
	}
	return nil
}

// findCommand returns the command whose name is exactly name, or else the
// only command prefixed by name.
func findCommand(name string) (command, bool) {
	matches := []command{}
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}

		if strings.HasPrefix(cmd.name, name) {
			matches = append(matches, cmd)
		}
	}

	if len(matches) == 1 {
		return matches[0], true
	}

	if len(matches) > 1 {
		names := []string{}
		for _, cmd := range matches {
			names = append(names, cmd.name)
		}
		fmt.Printf(
			"ambiguous command: %s (%s)\n",
			name,
			strings.Join(names, ", "))
	} else {
		fmt.Println("invalid command:", name)
	}

	return command{}, false
}

func openFile(path string, useMmap bool) (*elf.File, error) {
	if useMmap {
		return elf.Open(path)
	}
	return elf.ReadFile(path)
}

func main() {
	useMmap := true
	flag.BoolVar(&useMmap, "mmap", true, "memory map the input file")

	demangle := false
	flag.BoolVar(&demangle, "demangle", false, "demangle c++ / rust symbol names")

	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "USAGE: elf-shell [-mmap=false] [-demangle] <file>")
		os.Exit(1)
	}

	file, err := openFile(args[0], useMmap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open", args[0]+":", err)
		os.Exit(1)
	}
	defer file.Close()

	options := []riscv.Option{}
	if demangle {
		options = append(options, riscv.WithDemangledNames())
	}

	state := &session{
		file: file,
	}
	state.disassembler, state.disassemblerErr = riscv.New(file, options...)

	fmt.Printf(
		"loaded %s (%s %s %s)\n",
		args[0],
		file.Class,
		file.MachineArchitecture,
		file.FileType)

	rl, err := readline.New("elf > ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	lastLine := ""
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				break
			}
			fmt.Fprintln(os.Stderr, "failed to read line:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}
		lastLine = line

		if line == "" {
			continue
		}

		args := strings.Fields(line)
		cmd, ok := findCommand(args[0])
		if !ok {
			continue
		}

		err = cmd.run(state, args[1:])
		if err != nil {
			fmt.Printf("%s failed: %s\n", cmd.name, err)
		}
	}
}
