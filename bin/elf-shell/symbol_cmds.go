package main

import (
	"fmt"
	"strconv"

	"github.com/pattyshack/rvdis/elf"
)

func printSymbol(symbol *elf.Symbol) error {
	name, err := symbol.PrettyName()
	if err != nil {
		return err
	}

	fmt.Printf(
		"%s: value=%#x size=%d type=%s binding=%s section=%d (%s[%d])\n",
		name,
		symbol.Value,
		symbol.Size,
		symbol.Type(),
		symbol.Binding(),
		symbol.SectionIndex,
		symbol.Parent.SectionType,
		symbol.Index)
	return nil
}

func symbolByName(
	args []string,
	find func(string) (*elf.Symbol, error),
) error {
	if len(args) != 1 {
		fmt.Println("expected exactly one symbol name")
		return nil
	}

	symbol, err := find(args[0])
	if err != nil {
		return err
	}

	if symbol == nil {
		fmt.Println("symbol not found:", args[0])
		return nil
	}

	return printSymbol(symbol)
}

func findSymbol(state *session, args []string) error {
	return symbolByName(args, state.file.SymbolByName)
}

func lookupSymbol(state *session, args []string) error {
	return symbolByName(args, state.file.LookupSymbol)
}

func parseAddress(args []string) (uint64, bool) {
	if len(args) == 0 {
		fmt.Println("address not specified")
		return 0, false
	}

	addr, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		fmt.Println("failed to parse address:", err)
		return 0, false
	}

	return addr, true
}

func symbolAtAddress(state *session, args []string) error {
	addr, ok := parseAddress(args)
	if !ok {
		return nil
	}

	symbol, err := state.file.SymbolSpanning(addr)
	if err != nil {
		return err
	}

	if symbol == nil {
		fmt.Printf("no symbol spans %#x\n", addr)
		return nil
	}

	name, err := symbol.PrettyName()
	if err != nil {
		return err
	}

	fmt.Printf("%#x = <%s+%#x>\n", addr, name, addr-symbol.Value)
	return printSymbol(symbol)
}
