package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/riscv"
)

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func main() {
	demangle := false
	flag.BoolVar(&demangle, "demangle", false, "demangle c++ / rust symbol names")

	useMmap := true
	flag.BoolVar(&useMmap, "mmap", true, "memory map the input file")

	flag.Usage = func() {
		fmt.Fprintln(
			flag.CommandLine.Output(),
			"USAGE: rvdis [-demangle] [-mmap=false] <input elf> [<output>]")
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fail("no input elf file provided")
	}

	if len(args) > 2 {
		fail("too many arguments:", args[2:])
	}

	var file *elf.File
	var err error
	if useMmap {
		file, err = elf.Open(args[0])
	} else {
		file, err = elf.ReadFile(args[0])
	}
	if err != nil {
		fail("invalid input:", err)
	}
	defer file.Close()

	options := []riscv.Option{}
	if demangle {
		options = append(options, riscv.WithDemangledNames())
	}

	disassembler, err := riscv.New(file, options...)
	if err != nil {
		file.Close()
		fail("invalid input:", err)
	}

	// The listing is fully rendered before the output is touched.
	listing := &bytes.Buffer{}
	err = disassembler.WriteListing(listing)
	if err != nil {
		file.Close()
		fail(err)
	}

	if len(args) == 1 {
		_, err = os.Stdout.Write(listing.Bytes())
	} else {
		err = os.WriteFile(args[1], listing.Bytes(), 0644)
	}

	if err != nil {
		file.Close()
		fail("failed to write listing:", err)
	}
}
