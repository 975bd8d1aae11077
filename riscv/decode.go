package riscv

import (
	"fmt"
	"strings"
)

// Operand layout of a decoded instruction.
type Format int

const (
	FormatNone                = Format(iota) // ecall
	FormatUpperImmediate                     // rd, imm
	FormatJump                               // rd, offset
	FormatLoad                               // rd, offset(rs1)
	FormatStore                              // rs2, offset(rs1)
	FormatBranch                             // rs1, rs2, offset
	FormatJumpRegister                       // rd, rs1, offset
	FormatRegisterImmediate                  // rd, rs1, imm
	FormatShiftImmediate                     // rd, rs1, shamt
	FormatRegister                           // rd, rs1, rs2
)

func (format Format) String() string {
	switch format {
	case FormatNone:
		return "None"
	case FormatUpperImmediate:
		return "UpperImmediate"
	case FormatJump:
		return "Jump"
	case FormatLoad:
		return "Load"
	case FormatStore:
		return "Store"
	case FormatBranch:
		return "Branch"
	case FormatJumpRegister:
		return "JumpRegister"
	case FormatRegisterImmediate:
		return "RegisterImmediate"
	case FormatShiftImmediate:
		return "ShiftImmediate"
	case FormatRegister:
		return "Register"
	default:
		return fmt.Sprintf("FormatUnknown(%d)", int(format))
	}
}

// Mnemonics indexed by funct3.  Unassigned slots are empty.
var (
	loadMnemonics = [8]string{"lb", "lh", "lw", "", "lbu", "lhu", "", ""}

	storeMnemonics = [8]string{"sb", "sh", "sw", "", "", "", "", ""}

	branchMnemonics = [8]string{
		"beq", "bne", "", "", "blt", "bge", "bltu", "bgeu",
	}

	registerImmediateMnemonics = [8]string{
		"addi", "", "slti", "sltiu", "xori", "", "ori", "andi",
	}

	registerMnemonics = [8]string{
		"add", "sll", "slt", "sltu", "xor", "srl", "or", "and",
	}

	alternateRegisterMnemonics = [8]string{
		"sub", "", "", "", "", "sra", "", "",
	}

	multiplyMnemonics = [8]string{
		"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu",
	}
)

const (
	funct7Base      = 0b0000000
	funct7Alternate = 0b0100000 // sub / sra / srai
	funct7Multiply  = 0b0000001 // M extension
)

type DecodedInstruction struct {
	Instruction

	Mnemonic string
	Format

	// Sign extended immediate for I / S / B / J formats, the shift amount for
	// FormatShiftImmediate, and imm[31:12] << 12 for FormatUpperImmediate.
	Immediate int64
}

func unknownInstruction(inst Instruction) error {
	return fmt.Errorf(
		"%w: 0x%08x (opcode %07b, funct3 %d, funct7 %#x)",
		ErrUnknownInstruction,
		uint32(inst),
		uint32(inst.Opcode()),
		inst.Funct3(),
		inst.Funct7())
}

// Decode classifies a single RV32I / RV32M instruction word.
func Decode(word uint32) (DecodedInstruction, error) {
	inst := Instruction(word)
	result := DecodedInstruction{
		Instruction: inst,
	}

	lookup := func(table [8]string, format Format, immediate int64) error {
		mnemonic := table[inst.Funct3()]
		if mnemonic == "" {
			return unknownInstruction(inst)
		}

		result.Mnemonic = mnemonic
		result.Format = format
		result.Immediate = immediate
		return nil
	}

	var err error
	switch opcode := inst.Opcode(); {
	case word == ecallWord:
		result.Mnemonic = "ecall"
		result.Format = FormatNone
	case opcode == OpcodeAddUpperImmediatePC:
		result.Mnemonic = "auipc"
		result.Format = FormatUpperImmediate
		result.Immediate = int64(inst.UImmediate())
	case opcode == OpcodeLoadUpperImmediate:
		result.Mnemonic = "lui"
		result.Format = FormatUpperImmediate
		result.Immediate = int64(inst.UImmediate())
	case opcode == OpcodeJumpAndLink:
		result.Mnemonic = "jal"
		result.Format = FormatJump
		result.Immediate = int64(inst.JImmediate())
	case opcode == OpcodeLoad:
		err = lookup(loadMnemonics, FormatLoad, int64(inst.IImmediate()))
	case opcode == OpcodeStore:
		err = lookup(storeMnemonics, FormatStore, int64(inst.SImmediate()))
	case opcode == OpcodeBranch:
		err = lookup(branchMnemonics, FormatBranch, int64(inst.BImmediate()))
	case opcode == OpcodeJumpAndLinkRegister && inst.Funct3() == 0:
		result.Mnemonic = "jalr"
		result.Format = FormatJumpRegister
		result.Immediate = int64(inst.IImmediate())
	case opcode == OpcodeArithmeticImmediate:
		err = decodeArithmeticImmediate(inst, &result, lookup)
	case opcode == OpcodeArithmetic:
		switch inst.Funct7() {
		case funct7Base:
			err = lookup(registerMnemonics, FormatRegister, 0)
		case funct7Alternate:
			err = lookup(alternateRegisterMnemonics, FormatRegister, 0)
		case funct7Multiply:
			err = lookup(multiplyMnemonics, FormatRegister, 0)
		default:
			err = unknownInstruction(inst)
		}
	default:
		err = unknownInstruction(inst)
	}

	if err != nil {
		return DecodedInstruction{}, err
	}
	return result, nil
}

func decodeArithmeticImmediate(
	inst Instruction,
	result *DecodedInstruction,
	lookup func([8]string, Format, int64) error,
) error {
	// RV32 shift amounts are 5 bits wide; the rest of imm[11:0] is funct7.
	shamt := int64(inst.Rs2())

	switch inst.Funct3() {
	case 0b001:
		if inst.Funct7() != funct7Base {
			return unknownInstruction(inst)
		}
		result.Mnemonic = "slli"
	case 0b101:
		switch inst.Funct7() {
		case funct7Base:
			result.Mnemonic = "srli"
		case funct7Alternate:
			result.Mnemonic = "srai"
		default:
			return unknownInstruction(inst)
		}
	default:
		return lookup(
			registerImmediateMnemonics,
			FormatRegisterImmediate,
			int64(inst.IImmediate()))
	}

	result.Format = FormatShiftImmediate
	result.Immediate = shamt
	return nil
}

// Operands renders the operands in assembler order, with registers named by
// their ABI names and immediates in decimal.
func (inst DecodedInstruction) Operands() ([]string, error) {
	var registers []uint32
	switch inst.Format {
	case FormatNone:
		return nil, nil
	case FormatUpperImmediate, FormatJump:
		registers = []uint32{inst.Rd()}
	case FormatLoad:
		registers = []uint32{inst.Rd(), inst.Rs1()}
	case FormatStore:
		registers = []uint32{inst.Rs2(), inst.Rs1()}
	case FormatBranch:
		registers = []uint32{inst.Rs1(), inst.Rs2()}
	case FormatJumpRegister, FormatRegisterImmediate, FormatShiftImmediate:
		registers = []uint32{inst.Rd(), inst.Rs1()}
	case FormatRegister:
		registers = []uint32{inst.Rd(), inst.Rs1(), inst.Rs2()}
	default:
		return nil, fmt.Errorf("%w: format %s", ErrUnknownInstruction, inst.Format)
	}

	names := make([]string, 0, len(registers)+1)
	for _, register := range registers {
		name, err := RegisterName(register)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	switch inst.Format {
	case FormatLoad, FormatStore:
		return []string{
			names[0],
			fmt.Sprintf("%d(%s)", inst.Immediate, names[1]),
		}, nil
	case FormatRegister:
		return names, nil
	default:
		return append(names, fmt.Sprintf("%d", inst.Immediate)), nil
	}
}

// IsRelative reports whether the instruction targets a pc relative address
// (jal and conditional branches).
func (inst DecodedInstruction) IsRelative() bool {
	return inst.Format == FormatJump || inst.Format == FormatBranch
}

// Target returns the absolute pc relative target address for an instruction
// located at address.  Addresses wrap around at 32 bits.
func (inst DecodedInstruction) Target(address uint64) (uint64, bool) {
	if !inst.IsRelative() {
		return 0, false
	}
	return uint64(uint32(int64(address) + inst.Immediate)), true
}

func (inst DecodedInstruction) String() string {
	operands, err := inst.Operands()
	if err != nil || len(operands) == 0 {
		return inst.Mnemonic
	}
	return inst.Mnemonic + " " + strings.Join(operands, ", ")
}
