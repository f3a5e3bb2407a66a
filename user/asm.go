package user

import (
	"encoding/binary"
	"fmt"
)

type fixkind int

const (
	fixBranch fixkind = iota // B-type, +-4KiB
	fixJal                   // J-type, +-1MiB
	fixLa                    // auipc+addi pair
)

type fixup struct {
	at    int // instruction index
	label string
	kind  fixkind
}

// Asm assembles a position-independent RV64I image: code first, then data
// aligned to 8 bytes. An image without data is just its code. Branch,
// jump and la targets are labels resolved by Assemble.
type Asm struct {
	code   []uint32
	data   []byte
	text   map[string]int // label -> byte offset in code
	rodata map[string]int // label -> byte offset in data
	fixups []fixup
	err    error
}

func NewAsm() *Asm {
	return &Asm{
		text:   make(map[string]int),
		rodata: make(map[string]int),
	}
}

func (a *Asm) errorf(format string, args ...interface{}) {
	if a.err == nil {
		a.err = fmt.Errorf(format, args...)
	}
}

func (a *Asm) defined(name string) bool {
	_, t := a.text[name]
	_, d := a.rodata[name]
	return t || d
}

// Label defines name at the current code position.
func (a *Asm) Label(name string) *Asm {
	if a.defined(name) {
		a.errorf("label %q defined twice", name)
		return a
	}
	a.text[name] = len(a.code) * 4
	return a
}

// Ascii places s in the data section under name.
func (a *Asm) Ascii(name, s string) *Asm {
	if a.defined(name) {
		a.errorf("label %q defined twice", name)
		return a
	}
	a.rodata[name] = len(a.data)
	a.data = append(a.data, s...)
	return a
}

// Word emits a raw instruction word.
func (a *Asm) Word(w uint32) *Asm {
	a.code = append(a.code, w)
	return a
}

func (a *Asm) ref(label string, kind fixkind) {
	a.fixups = append(a.fixups, fixup{at: len(a.code), label: label, kind: kind})
}

func fitsSigned(v int64, bits uint) bool {
	lim := int64(1) << (bits - 1)
	return v >= -lim && v < lim
}

// Li loads an arbitrary 64-bit constant.
func (a *Asm) Li(rd Reg, imm int64) *Asm {
	if fitsSigned(imm, 12) {
		return a.Addi(rd, ZERO, int32(imm))
	}
	if fitsSigned(imm, 32) {
		lo := int32(imm<<52>>52)
		hi := uint32((imm - int64(lo)) >> 12)
		a.Word(UType(OP_LUI, rd, hi))
		if lo != 0 {
			a.Word(IType(OP_IMM_32, 0, rd, rd, lo))
		}
		return a
	}
	// upper bits first, then shift in the low 12
	lo := imm << 52 >> 52
	hi := (imm - lo) >> 12
	shift := 12
	for hi&1 == 0 {
		hi >>= 1
		shift++
	}
	a.Li(rd, hi)
	a.Slli(rd, rd, shift)
	if lo != 0 {
		a.Addi(rd, rd, int32(lo))
	}
	return a
}

func (a *Asm) Addi(rd, rs1 Reg, imm int32) *Asm {
	if !fitsSigned(int64(imm), 12) {
		a.errorf("addi immediate %d out of range", imm)
	}
	return a.Word(IType(OP_IMM, 0, rd, rs1, imm))
}

func (a *Asm) Mv(rd, rs Reg) *Asm { return a.Addi(rd, rs, 0) }

func (a *Asm) Andi(rd, rs1 Reg, imm int32) *Asm {
	return a.Word(IType(OP_IMM, 7, rd, rs1, imm))
}

func (a *Asm) Slli(rd, rs1 Reg, shamt int) *Asm {
	return a.Word(IType(OP_IMM, 1, rd, rs1, int32(shamt&0x3f)))
}

func (a *Asm) Srli(rd, rs1 Reg, shamt int) *Asm {
	return a.Word(IType(OP_IMM, 5, rd, rs1, int32(shamt&0x3f)))
}

func (a *Asm) Add(rd, rs1, rs2 Reg) *Asm {
	return a.Word(RType(OP_OP, 0, 0, rd, rs1, rs2))
}

func (a *Asm) Sub(rd, rs1, rs2 Reg) *Asm {
	return a.Word(RType(OP_OP, 0, 0x20, rd, rs1, rs2))
}

func (a *Asm) Srl(rd, rs1, rs2 Reg) *Asm {
	return a.Word(RType(OP_OP, 5, 0, rd, rs1, rs2))
}

func (a *Asm) Lbu(rd, rs1 Reg, off int32) *Asm {
	return a.Word(IType(OP_LOAD, 4, rd, rs1, off))
}

func (a *Asm) Ld(rd, rs1 Reg, off int32) *Asm {
	return a.Word(IType(OP_LOAD, 3, rd, rs1, off))
}

func (a *Asm) Sd(rs2, rs1 Reg, off int32) *Asm {
	return a.Word(SType(3, rs1, rs2, off))
}

func (a *Asm) branch(funct3 uint32, rs1, rs2 Reg, label string) *Asm {
	a.ref(label, fixBranch)
	return a.Word(BType(funct3, rs1, rs2, 0))
}

func (a *Asm) Beq(rs1, rs2 Reg, label string) *Asm  { return a.branch(0, rs1, rs2, label) }
func (a *Asm) Bne(rs1, rs2 Reg, label string) *Asm  { return a.branch(1, rs1, rs2, label) }
func (a *Asm) Blt(rs1, rs2 Reg, label string) *Asm  { return a.branch(4, rs1, rs2, label) }
func (a *Asm) Bge(rs1, rs2 Reg, label string) *Asm  { return a.branch(5, rs1, rs2, label) }
func (a *Asm) Bltu(rs1, rs2 Reg, label string) *Asm { return a.branch(6, rs1, rs2, label) }
func (a *Asm) Beqz(rs Reg, label string) *Asm       { return a.Beq(rs, ZERO, label) }
func (a *Asm) Bnez(rs Reg, label string) *Asm       { return a.Bne(rs, ZERO, label) }

// J jumps to label.
func (a *Asm) J(label string) *Asm {
	a.ref(label, fixJal)
	return a.Word(JType(ZERO, 0))
}

// La loads the address of label, code or data, pc-relative.
func (a *Asm) La(rd Reg, label string) *Asm {
	a.ref(label, fixLa)
	a.Word(UType(OP_AUIPC, rd, 0))
	return a.Word(IType(OP_IMM, 0, rd, rd, 0))
}

func (a *Asm) Ecall() *Asm  { return a.Word(ECALL) }
func (a *Asm) Ebreak() *Asm { return a.Word(EBREAK) }

// Assemble resolves labels and returns the little-endian image.
func (a *Asm) Assemble() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}

	database := len(a.code) * 4
	if len(a.data) > 0 {
		database = (database + 7) &^ 7
	}
	addr := func(label string) (int, bool) {
		if off, ok := a.text[label]; ok {
			return off, true
		}
		if off, ok := a.rodata[label]; ok {
			return database + off, true
		}
		return 0, false
	}

	code := make([]uint32, len(a.code))
	copy(code, a.code)
	for _, fx := range a.fixups {
		target, ok := addr(fx.label)
		if !ok {
			return nil, fmt.Errorf("undefined label %q", fx.label)
		}
		off := int64(target - fx.at*4)
		switch fx.kind {
		case fixBranch:
			if !fitsSigned(off, 13) {
				return nil, fmt.Errorf("branch to %q out of range", fx.label)
			}
			code[fx.at] |= BType(0, 0, 0, int32(off)) &^ OP_BRANCH
		case fixJal:
			if !fitsSigned(off, 21) {
				return nil, fmt.Errorf("jump to %q out of range", fx.label)
			}
			code[fx.at] |= JType(0, int32(off)) &^ OP_JAL
		case fixLa:
			lo := off << 52 >> 52
			hi := (off - lo) >> 12
			code[fx.at] |= UType(0, 0, uint32(hi))
			code[fx.at+1] |= IType(0, 0, 0, 0, int32(lo))
		}
	}

	img := make([]byte, database+len(a.data))
	for i, w := range code {
		binary.LittleEndian.PutUint32(img[i*4:], w)
	}
	copy(img[database:], a.data)
	return img, nil
}

// MustAssemble is Assemble for images known to be well formed.
func (a *Asm) MustAssemble() []byte {
	img, err := a.Assemble()
	if err != nil {
		panic("user: " + err.Error())
	}
	return img
}
