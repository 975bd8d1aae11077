package riscv

import (
	"fmt"
)

var (
	// The opcode / funct3 / funct7 combination has no assigned mnemonic.
	ErrUnknownInstruction = fmt.Errorf("unknown instruction")

	ErrInvalidRegister = fmt.Errorf("invalid register")

	// Not a 32-bit risc-v elf file with a .text section.
	ErrUnsupportedFile = fmt.Errorf("unsupported file")
)
