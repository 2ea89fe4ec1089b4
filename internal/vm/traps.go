package vm

// traps.go bootstraps the TRAP vector table with the three system calls a
// guest program needs to produce the "Hello via TRAP PUTS" scenario: HALT
// (x25), OUT (x21), and PUTS (x22). The routines are guest code -- ordinary
// instruction words the interpreter has no special knowledge of -- planted
// in low memory and reached by the guest the same way any TRAP is, through
// the vector table. There is no assembler in this machine, so the words are
// built directly with NewInstruction instead of written as source text.

import "fmt"

// Addresses of the bootstrap trap service routines, placed in the system
// space below user programs (which load at UserSpaceAddr, 0x3000).
const (
	trapHaltAddr = Word(0x0480)
	trapOutAddr  = Word(0x0490)
	trapPutsAddr = Word(0x04a0)
)

// TRAP vectors for the bootstrap system calls, by LC-3 convention.
const (
	TrapHALT = Word(0x25)
	TrapOUT  = Word(0x21)
	TrapPUTS = Word(0x22)
)

// initializeTrapHandlers plants the bootstrap trap routines and points the
// trap vector table at them.
func (vm *LC3) initializeTrapHandlers() {
	loader := NewLoader(vm)

	for vector, obj := range map[Word]ObjectCode{
		TrapHALT: trapHaltRoutine,
		TrapOUT:  trapOutRoutine,
		TrapPUTS: trapPutsRoutine,
	} {
		if _, err := loader.LoadVector(TrapTableAddr|vector, obj); err != nil {
			panic(fmt.Sprintf("vm: trap handler: %s", err))
		}
	}
}

// trapHaltRoutine clears R0 and stores it to MCR through an indirect store,
// halting the machine: AND R0,R0,#0; STI R0,[MCR]; RET.
var trapHaltRoutine = ObjectCode{
	Orig: trapHaltAddr,
	Code: []Word{
		Word(NewInstruction(AND, 0x0020)), // AND R0,R0,#0
		Word(NewInstruction(STI, 0x0001)), // STI R0,#1 -> [MCRAddr]
		Word(NewInstruction(BR, 0x0e01)),  // BRnzp #1  (skip the data word)
		Word(MCRAddr),
		Word(NewInstruction(JMP, 0x01c0)), // RET
	},
}

// trapOutRoutine stores R0 to DDR through an indirect store: STI R0,[DDR]; RET.
var trapOutRoutine = ObjectCode{
	Orig: trapOutAddr,
	Code: []Word{
		Word(NewInstruction(STI, 0x0001)), // STI R0,#1 -> [DDRAddr]
		Word(NewInstruction(BR, 0x0e01)),  // BRnzp #1
		Word(DDRAddr),
		Word(NewInstruction(JMP, 0x01c0)), // RET
	},
}

// trapPutsRoutine walks the NUL-terminated string addressed by R0, writing
// each byte to DDR:
//
//	loop: LDR R1,R0,#0
//	      BRz  done
//	      STI R1,[DDR]
//	      ADD R0,R0,#1
//	      BR   loop
//	done: RET
var trapPutsRoutine = ObjectCode{
	Orig: trapPutsAddr,
	Code: []Word{
		Word(NewInstruction(LDR, 0x0200)), // LDR R1,R0,#0
		Word(NewInstruction(BR, 0x0405)),  // BRz #5 -> done
		Word(NewInstruction(STI, 0x0201)), // STI R1,#1 -> [DDRAddr]
		Word(NewInstruction(BR, 0x0e01)),  // BRnzp #1 (skip the data word)
		Word(DDRAddr),
		Word(NewInstruction(ADD, 0x0021)), // ADD R0,R0,#1
		Word(NewInstruction(BR, 0x0ff9)),  // BRnzp #-7 -> loop
		Word(NewInstruction(JMP, 0x01c0)), // done: RET
	},
}