package vm

// types.go defines the basic data types the CPU operates on: words, the
// general-purpose register file, the processor status register, and the
// instruction encoding.

import (
	"fmt"

	"github.com/lc3vm/lc3vm/internal/log"
)

// Word is the base data type of the machine. Registers, memory cells, I/O
// registers and instructions are all 16-bit words.
type Word uint16

func (w Word) String() string {
	return fmt.Sprintf("%0#4x", uint16(w))
}

// Sext sign-extends the lower n bits of the word in place, treating bit n-1
// as the sign bit.
func (w *Word) Sext(n uint8) {
	i := int16(*w)
	i <<= 16 - n
	i >>= 16 - n
	*w = Word(i)
}

// Zext zero-extends the lower n bits of the word in place.
func (w *Word) Zext(n uint8) {
	low := Word(^(int16(-1) << n))
	*w &= low
}

// sext returns the word with its lower n bits sign-extended, leaving the
// argument untouched. It is the pure counterpart to (*Word).Sext, handy for
// computing a value without first assigning it to a variable.
func sext(v Word, n uint8) Word {
	v.Sext(n)
	return v
}

// Register holds a single general-purpose or special-purpose value.
type Register Word

func (r Register) String() string {
	return Word(r).String()
}

// GPR identifies a general-purpose register.
type GPR uint8

// General-purpose registers. R6 doubles as the stack pointer and R7 holds
// subroutine and TRAP return addresses by convention.
const (
	R0 = GPR(iota)
	R1
	R2
	R3
	R4
	R5
	R6
	R7

	NumGPR
	SP = R6
	RA = R7 // Return address, by convention.
)

func (r GPR) String() string {
	return fmt.Sprintf("R%d", uint8(r))
}

// RegisterFile is the set of general-purpose registers.
type RegisterFile [NumGPR]Register

func (rf RegisterFile) String() string {
	s := ""
	for i, r := range rf {
		s += fmt.Sprintf("R%d:%s ", i, r)
	}

	return s
}

func (rf RegisterFile) LogValue() log.Value {
	return log.GroupValue(
		log.String("R0", rf[R0].String()), log.String("R1", rf[R1].String()),
		log.String("R2", rf[R2].String()), log.String("R3", rf[R3].String()),
		log.String("R4", rf[R4].String()), log.String("R5", rf[R5].String()),
		log.String("R6", rf[R6].String()), log.String("R7", rf[R7].String()),
	)
}

// Priority is an interrupt or task priority level, 0 (lowest) through 7
// (highest).
type Priority uint8

// Priority levels.
const (
	PL0 Priority = iota
	PL1
	PL2
	PL3
	PL4
	PL5
	PL6
	PL7
	NumPL

	PriorityLow      Priority = PL0
	PriorityNormal   Priority = PL3
	PriorityKeyboard Priority = PL4
	PriorityHigh     Priority = PL7
)

func (p Priority) String() string {
	return fmt.Sprintf("PL%d", uint8(p))
}

// Privilege is the CPU's execution privilege: system (supervisor) or user.
type Privilege uint8

// Privilege levels.
const (
	PrivilegeSystem Privilege = iota
	PrivilegeUser
)

func (p Privilege) String() string {
	if p == PrivilegeUser {
		return "USER"
	}

	return "SYSTEM"
}

// Condition is a 3-bit NZP condition mask. BR's operand and the PSR's
// condition-code bits share this representation, so a BR's mask can be
// tested directly against PSR.Cond() without decoding either side into
// booleans.
type Condition uint8

// Condition flags. Exactly one is set in a valid PSR at any time.
const (
	ConditionPositive = Condition(1 << iota) // P
	ConditionZero                             // Z
	ConditionNegative                         // N
)

func (c Condition) String() string {
	return fmt.Sprintf("(N:%t Z:%t P:%t)", c.Negative(), c.Zero(), c.Positive())
}

func (c Condition) Negative() bool { return c&ConditionNegative != 0 }
func (c Condition) Zero() bool     { return c&ConditionZero != 0 }
func (c Condition) Positive() bool { return c&ConditionPositive != 0 }

// Opcode identifies the operation encoded in an instruction's top four bits.
type Opcode uint16

// The sixteen LC-3 opcodes. RES is reserved and illegal.
const (
	BR Opcode = iota
	ADD
	LD
	ST
	JSR
	AND
	LDR
	STR
	RTI
	NOT
	LDI
	STI
	JMP
	RES
	LEA
	TRAP
)

var opcodeNames = [...]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}

	return fmt.Sprintf("OP(%#x)", uint16(op))
}

// Instruction is a fetched instruction word, decoded on demand by its
// accessor methods. Bit layout varies by opcode; see ops.go.
type Instruction Word

// NewInstruction builds an instruction word from an opcode and its operand
// bits (the low 12 bits).
func NewInstruction(opcode Opcode, operands uint16) Instruction {
	return Instruction(uint16(opcode)<<12 | operands&0x0fff)
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s (%s)", Word(i), i.Opcode())
}

// Opcode returns the instruction's opcode, the top four bits of the word.
func (i Instruction) Opcode() Opcode {
	return Opcode(i >> 12 & 0xf)
}

// DR returns the destination register field, bits [11:9].
func (i Instruction) DR() GPR { return GPR(i >> 9 & 0x7) }

// SR returns the source register field, bits [11:9] (shared encoding
// position with DR, used by single-operand instructions).
func (i Instruction) SR() GPR { return GPR(i >> 9 & 0x7) }

// SR1 returns the first source register field, bits [8:6].
func (i Instruction) SR1() GPR { return GPR(i >> 6 & 0x7) }

// SR2 returns the second source register field, bits [2:0].
func (i Instruction) SR2() GPR { return GPR(i & 0x7) }

// Cond returns the 3-bit NZP mask from a BR instruction, bits [11:9].
func (i Instruction) Cond() Condition { return Condition(i >> 9 & 0x7) }

// Imm returns true if bit 5 (the immediate-mode flag of ADD/AND) is set.
func (i Instruction) Imm() bool { return i&0x0020 != 0 }

// Relative returns true if bit 11 (JSR's PC-relative flag) is set.
func (i Instruction) Relative() bool { return i&0x0800 != 0 }

// Offset returns an n-bit, sign-extended, PC-relative offset from the
// instruction's low bits.
func (i Instruction) Offset(n uint8) Word {
	w := Word(i)
	w.Sext(n)

	return w
}

// Imm5 returns the sign-extended 5-bit immediate operand of ADD/AND.
func (i Instruction) Imm5() Word {
	w := Word(i & 0x1f)
	w.Sext(5)

	return w
}

// Vector returns the zero-extended 8-bit TRAP vector operand.
func (i Instruction) Vector() Word {
	w := Word(i & 0xff)
	return w
}

// Bit widths of the PC-relative offset fields, named for their instructions.
const (
	OFFSET11 = uint8(11) // JSR
	OFFSET9  = uint8(9)  // BR, LD, LDI, LEA, ST, STI
	OFFSET6  = uint8(6)  // LDR, STR
)
