package riscv

import (
	"fmt"
)

const NumRegisters = 32

// ABI names of x0 - x31.
var registerNames = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func RegisterName(idx uint32) (string, error) {
	if idx >= NumRegisters {
		return "", fmt.Errorf("%w: x%d", ErrInvalidRegister, idx)
	}
	return registerNames[idx], nil
}

// RegisterIndex is the inverse of RegisterName.  It also accepts the x0 - x31
// names and fp (an alias of s0).
func RegisterIndex(name string) (uint32, error) {
	if name == "fp" {
		return 8, nil
	}

	for idx, registerName := range registerNames {
		if registerName == name || fmt.Sprintf("x%d", idx) == name {
			return uint32(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrInvalidRegister, name)
}
