package vm

// intr.go implements the interrupt controller: priority comparison,
// vector-table lookup, and the push of PSR/PC onto the supervisor stack
// that both external interrupts and guest exceptions share.

import (
	"errors"
	"fmt"
)

// Trap, interrupt and exception vector tables and the vectors this machine
// defines within them.
const (
	ISRKeyboard = Word(0x80) // External interrupt: keyboard.

	ExceptionPMV = Word(0x00) // Privilege-mode violation: RTI in user mode.
	ExceptionXOP = Word(0x01) // Illegal opcode: RES.
)

// interruptSource is a device capable of requesting an external interrupt.
// Keyboard is the machine's only implementation.
type interruptSource interface {
	// TryRecv attempts to drain one pending interrupt record without
	// blocking. ok is false if none was pending; err is non-nil if the
	// source's channel has disconnected.
	TryRecv() (vector uint8, priority Priority, ok bool, err error)

	// Enabled reports whether the device's interrupt-enable bit is set.
	Enabled() bool
}

// ISR associates an interrupt source with the vector dispatched when it
// interrupts.
type ISR struct {
	vector uint8
	driver interruptSource
}

// Interrupt is the machine's interrupt controller. Devices are registered
// by priority level; Requested polls them, highest priority first, once
// per instruction.
type Interrupt struct {
	idt [NumPL]ISR
}

// Register assigns an interrupt priority to a device.
func (i *Interrupt) Register(priority Priority, isr ISR) {
	i.idt[priority] = isr
}

// Requested polls interrupt sources from highest to lowest priority and
// stops at the first source with a pending record. At most one interrupt
// record is drained per call, matching the once-per-instruction cadence
// the interpreter drives this with; if it is accepted, its vector is
// returned.
//
// A drained record is accepted only if its priority is strictly higher
// than cur and the source's interrupt-enable bit is set; otherwise it is
// discarded (the record is gone either way -- a disabled or low-priority
// device does not get to interrupt "later").
func (i *Interrupt) Requested(cur Priority) (vector uint8, priority Priority, accepted bool, err error) {
	for pl := len(i.idt) - 1; pl >= 0; pl-- {
		isr := i.idt[pl]
		if isr.driver == nil {
			continue
		}

		vec, pri, ok, err := isr.driver.TryRecv()
		if err != nil {
			return 0, 0, false, err
		}

		if !ok {
			continue
		}

		if pri&0x7 > cur && isr.driver.Enabled() {
			return vec, pri, true, nil
		}

		return 0, 0, false, nil
	}

	return 0, 0, false, nil
}

// exception represents the prologue shared by guest exceptions (illegal
// opcode, privilege violation) and external interrupts: push the caller's
// PSR then PC onto the (possibly just-switched-to) supervisor stack,
// install a new PSR, and jump through the vector table.
type exception struct {
	vector Word
	// priority, if non-nil, installs a new priority level (external
	// interrupts); otherwise the current priority is preserved (guest
	// exceptions).
	priority *Priority
}

// Raise executes the exception prologue against the machine.
func (e exception) Raise(vm *LC3) error {
	if vm.PSR.Privilege() == PrivilegeUser {
		vm.USP = vm.REG[SP]
		vm.REG[SP] = Register(SystemStackAddr)
	}

	if err := vm.PushStack(Word(vm.PSR)); err != nil {
		return fmt.Errorf("exception: %w", err)
	}

	if err := vm.PushStack(Word(vm.PC)); err != nil {
		return fmt.Errorf("exception: %w", err)
	}

	psr := vm.PSR &^ StatusPrivilege &^ StatusCondition &^ StatusPriority
	if e.priority != nil {
		psr |= ProcessorStatus(*e.priority&0x7) << 8
	} else {
		psr |= vm.PSR & StatusPriority
	}

	psr |= StatusZero
	vm.PSR = psr

	vm.Mem.MAR = Register(VectorTableAddr | e.vector&0xff)

	if err := vm.Mem.Fetch(); err != nil {
		return fmt.Errorf("exception: %w", err)
	}

	vm.PC = ProgramCounter(vm.Mem.MDR)

	return nil
}

// ErrReserved is returned when the CPU fetches the reserved, illegal
// opcode.
var ErrReserved = errors.New("reserved opcode")

// ErrPrivilege is returned when RTI executes in user mode.
var ErrPrivilege = errors.New("privilege violation")
