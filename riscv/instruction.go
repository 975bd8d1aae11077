package riscv

// Major opcodes (bits 0 - 6) of the RV32I / RV32M base instructions.
type Opcode uint32

const (
	OpcodeLoad                = Opcode(0b0000011)
	OpcodeArithmeticImmediate = Opcode(0b0010011) // OP-IMM
	OpcodeAddUpperImmediatePC = Opcode(0b0010111) // AUIPC
	OpcodeStore               = Opcode(0b0100011)
	OpcodeArithmetic          = Opcode(0b0110011) // OP
	OpcodeLoadUpperImmediate  = Opcode(0b0110111) // LUI
	OpcodeBranch              = Opcode(0b1100011)
	OpcodeJumpAndLinkRegister = Opcode(0b1100111) // JALR
	OpcodeJumpAndLink         = Opcode(0b1101111) // JAL
	OpcodeSystem              = Opcode(0b1110011)
)

// The only system instruction: ecall is the whole word 0x00000073.
const ecallWord = 0x00000073

// Instruction is a raw 32-bit instruction word.
//
//	31     25 24  20 19  15 14  12 11   7 6      0
//	| funct7 |  rs2 |  rs1 |funct3|  rd  | opcode |
type Instruction uint32

func (inst Instruction) Opcode() Opcode {
	return Opcode(inst & 0x7f)
}

func (inst Instruction) Rd() uint32 {
	return uint32(inst>>7) & 0x1f
}

func (inst Instruction) Funct3() uint32 {
	return uint32(inst>>12) & 0x7
}

func (inst Instruction) Rs1() uint32 {
	return uint32(inst>>15) & 0x1f
}

func (inst Instruction) Rs2() uint32 {
	return uint32(inst>>20) & 0x1f
}

func (inst Instruction) Funct7() uint32 {
	return uint32(inst >> 25)
}

// Imm110 returns the raw (unextended) I-type immediate, imm[11:0].
func (inst Instruction) Imm110() uint32 {
	return uint32(inst >> 20)
}

// signExtend interprets the low width bits of value as two's complement.
func signExtend(value uint32, width uint) int32 {
	shift := 32 - width
	return int32(value<<shift) >> shift
}

// IImmediate returns the sign extended imm[11:0].
func (inst Instruction) IImmediate() int32 {
	return signExtend(inst.Imm110(), 12)
}

// SImmediate gathers imm[4:0] from the rd field and imm[11:5] from the
// funct7 field.
func (inst Instruction) SImmediate() int32 {
	x := uint32(inst)
	return signExtend((x<<20)>>27|(x>>25)<<5, 12)
}

// BImmediate gathers imm[12|10:5|4:1|11] from word bits
// 31 | 30:25 | 11:8 | 7.  imm[0] is always zero.
func (inst Instruction) BImmediate() int32 {
	x := uint32(inst)
	imm := (x<<20)>>28<<1 | (x<<1)>>26<<5 | (x<<24)>>31<<11 | (x>>31)<<12
	return signExtend(imm, 13)
}

// UImmediate returns imm[31:12] in place, with the low 12 bits cleared.
func (inst Instruction) UImmediate() uint32 {
	return uint32(inst) &^ 0xfff
}

// JImmediate gathers imm[20|10:1|11|19:12] from word bits
// 31 | 30:21 | 20 | 19:12.  imm[0] is always zero.
func (inst Instruction) JImmediate() int32 {
	x := uint32(inst)
	imm := (x>>31)<<20 | (x<<1)>>22<<1 | (x<<11)>>31<<11 | (x<<12)>>24<<12
	return signExtend(imm, 21)
}
