package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pattyshack/rvdis/elf"
)

func translateAddress(state *session, args []string) error {
	addr, ok := parseAddress(args)
	if !ok {
		return nil
	}

	offset, err := state.file.VirtualAddressToFileOffset(addr)
	if errors.Is(err, elf.ErrAddressNotMapped) {
		fmt.Println(err)
		return nil
	} else if err != nil {
		return err
	}

	fmt.Printf("%#x -> file offset %#x\n", addr, offset)
	return nil
}

func readMemory(state *session, args []string) error {
	addr, ok := parseAddress(args)
	if !ok {
		return nil
	}

	size := uint64(32)
	if len(args) > 1 {
		val, err := strconv.ParseInt(args[1], 0, 32)
		if err != nil {
			fmt.Println("failed to parse output size:", err)
			return nil
		}

		if val < 1 {
			fmt.Println("invalid output size:", val)
			return nil
		}
		size = uint64(val)
	}

	offset, err := state.file.VirtualAddressToFileOffset(addr)
	if errors.Is(err, elf.ErrAddressNotMapped) {
		fmt.Println(err)
		return nil
	} else if err != nil {
		return err
	}

	reader := state.file.Reader()
	available := reader.Len() - offset
	if size > available {
		fmt.Printf(
			"WARNING: requested %d bytes but only %d bytes are available.\n",
			size,
			available)
		size = available
	}

	err = reader.Seek(offset)
	if err != nil {
		return err
	}

	out, err := reader.Bytes(size)
	if err != nil {
		return err
	}

	for len(out) > 0 {
		line := fmt.Sprintf("0x%08x:", addr)

		chunk := 16
		if len(out) < chunk {
			chunk = len(out)
		}

		for _, b := range out[:chunk] {
			line += fmt.Sprintf(" %02x", b)
		}
		fmt.Println(line)

		out = out[chunk:]
		addr += uint64(chunk)
	}

	return nil
}
