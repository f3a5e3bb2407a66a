// Package user holds the user programs the kernel can run and the small
// RV64 assembler they are written with.
package user

// Reg is an integer register number.
type Reg uint32

const (
	ZERO Reg = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

// major opcodes
const (
	OP_LOAD     = 0x03
	OP_MISC_MEM = 0x0f
	OP_IMM      = 0x13
	OP_AUIPC    = 0x17
	OP_IMM_32   = 0x1b
	OP_STORE    = 0x23
	OP_OP       = 0x33
	OP_LUI      = 0x37
	OP_OP_32    = 0x3b
	OP_BRANCH   = 0x63
	OP_JALR     = 0x67
	OP_JAL      = 0x6f
	OP_SYSTEM   = 0x73
)

func IType(op, funct3 uint32, rd, rs1 Reg, imm int32) uint32 {
	return uint32(imm&0xfff)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | op
}

func SType(funct3 uint32, rs1, rs2 Reg, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | (u&0x1f)<<7 | OP_STORE
}

func BType(funct3 uint32, rs1, rs2 Reg, off int32) uint32 {
	u := uint32(off)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		funct3<<12 | (u>>1&0xf)<<8 | (u>>11&1)<<7 | OP_BRANCH
}

func UType(op uint32, rd Reg, imm20 uint32) uint32 {
	return (imm20&0xfffff)<<12 | uint32(rd)<<7 | op
}

func JType(rd Reg, off int32) uint32 {
	u := uint32(off)
	return (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12 | uint32(rd)<<7 | OP_JAL
}

func RType(op, funct3, funct7 uint32, rd, rs1, rs2 Reg) uint32 {
	return funct7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | op
}

const (
	ECALL  = 0x00000073
	EBREAK = 0x00100073
)
