// Package luainst decodes the 32-bit instruction words of a loaded chunk
// and carries the static opcode metadata table the VM's dispatch loop and
// the disassembler consult.
package luainst

// Instruction is one decoded 32-bit bytecode word.
type Instruction uint32

const (
	maxArgBx  = 1<<18 - 1
	biasedSbx = maxArgBx >> 1 // (2^18-1)/2
)

// OpCode identifies a dispatch-table entry (low 6 bits of the word).
func (i Instruction) OpCode() OpCode {
	return OpCode(i & 0x3F)
}

// ABC decodes the iABC layout: A is 8 bits, C is 9 bits, B is 9 bits.
func (i Instruction) ABC() (a, b, c int) {
	a = int((i >> 6) & 0xFF)
	c = int((i >> 14) & 0x1FF)
	b = int((i >> 23) & 0x1FF)
	return
}

// ABx decodes the iABx layout: A is 8 bits, Bx is the remaining 18 bits.
func (i Instruction) ABx() (a, bx int) {
	a = int((i >> 6) & 0xFF)
	bx = int(i >> 14)
	return
}

// AsBx decodes the iAsBx layout: Bx biased by (2^18-1)/2 to allow negative
// offsets.
func (i Instruction) AsBx() (a, sbx int) {
	a, bx := i.ABx()
	return a, bx - biasedSbx
}

// Ax decodes the iAx layout: a single 26-bit unsigned field (used by
// EXTRAARG).
func (i Instruction) Ax() int {
	return int(i >> 6)
}

// IsConstant reports whether an RK-encoded B/C operand names a constant
// table index (bit 8 set) rather than a register.
func IsConstant(rk int) bool {
	return rk&0x100 != 0
}

// ConstantIndex extracts the constant-table index from an RK operand that
// IsConstant reported true for.
func ConstantIndex(rk int) int {
	return rk & 0xFF
}

// Encode packs an iABC instruction; exposed mainly for tests.
func Encode(op OpCode, a, b, c int) Instruction {
	return Instruction(uint32(op)&0x3F | uint32(a&0xFF)<<6 | uint32(c&0x1FF)<<14 | uint32(b&0x1FF)<<23)
}

// EncodeABx packs an iABx instruction.
func EncodeABx(op OpCode, a, bx int) Instruction {
	return Instruction(uint32(op)&0x3F | uint32(a&0xFF)<<6 | uint32(bx)<<14)
}

// EncodeAsBx packs an iAsBx instruction.
func EncodeAsBx(op OpCode, a, sbx int) Instruction {
	return EncodeABx(op, a, sbx+biasedSbx)
}

// EncodeAx packs an iAx instruction.
func EncodeAx(op OpCode, ax int) Instruction {
	return Instruction(uint32(op)&0x3F | uint32(ax)<<6)
}
