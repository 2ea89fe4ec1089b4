package vm

// exec.go defines the CPU instruction cycle: fetch, decode, execute, and the
// interrupt check the interpreter makes exactly once between instructions.

import (
	"context"
	"errors"
	"fmt"

	"github.com/lc3vm/lc3vm/internal/log"
)

// ErrHalted is returned when the machine is stepped after the RUN bit in MCR
// has been cleared.
var ErrHalted = errors.New("halted")

// Run drives the instruction cycle until the guest halts, ctx is cancelled,
// or an unrecoverable error occurs (illegal state, a disconnected input
// source).
func (vm *LC3) Run(ctx context.Context) error {
	var err error

	vm.log.Info("START", log.Any("STATE", vm))

	for {
		select {
		case <-ctx.Done():
			vm.log.Warn("CANCELLED")
			return ctx.Err()
		default:
		}

		if !vm.MCR.Running() {
			break
		}

		if err = vm.Step(); err != nil {
			break
		}

		if err = vm.serviceInterrupts(); err != nil {
			break
		}
	}

	if err != nil {
		vm.log.Error("HALTED", "ERR", err, log.Any("STATE", vm))
	} else {
		vm.log.Info("HALTED", log.Any("STATE", vm))
	}

	return err
}

// serviceInterrupts polls the interrupt controller once and, if an external
// interrupt was accepted, raises it against the machine.
func (vm *LC3) serviceInterrupts() error {
	vec, pri, accepted, err := vm.INT.Requested(vm.PSR.Priority())
	if err != nil {
		return fmt.Errorf("int: %w", err)
	}

	if !accepted {
		return nil
	}

	vm.log.Debug("interrupt accepted", "VEC", Word(vec), "PL", pri)

	exc := exception{vector: Word(vec), priority: &pri}

	if err := exc.Raise(vm); err != nil {
		return fmt.Errorf("int: %w", err)
	}

	return nil
}

// Step fetches, decodes, and executes a single instruction. Guest
// exceptions (illegal opcode, privilege violation) are handled within Step
// and do not themselves halt the machine; only a memory fault (during the
// fetch, the operation, or the exception prologue) or a disconnected input
// source propagates.
func (vm *LC3) Step() error {
	if !vm.MCR.Running() {
		return fmt.Errorf("step: %w", ErrHalted)
	}

	if err := vm.Fetch(); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	op, err := vm.Decode()
	if err != nil {
		if errors.Is(err, ErrReserved) {
			vm.log.Debug("illegal opcode", "IR", vm.IR)

			exc := exception{vector: ExceptionXOP}

			if rerr := exc.Raise(vm); rerr != nil {
				return fmt.Errorf("step: %w", rerr)
			}

			return nil
		}

		return fmt.Errorf("step: %w", err)
	}

	vm.log.Debug("decoded", "OP", op)

	if err := op.Execute(vm); err != nil {
		if errors.Is(err, ErrPrivilege) {
			vm.log.Debug("privilege violation", "OP", op)

			exc := exception{vector: ExceptionPMV}

			if rerr := exc.Raise(vm); rerr != nil {
				return fmt.Errorf("step: %w", rerr)
			}

			return nil
		}

		if errors.Is(err, ErrInputDisconnected) {
			return fmt.Errorf("step: %w", err)
		}

		return fmt.Errorf("step: %w: %s", err, op)
	}

	vm.log.Debug("executed", "OP", op)

	return nil
}

// Fetch loads the instruction addressed by PC into IR and advances PC.
func (vm *LC3) Fetch() error {
	vm.Mem.MAR = Register(vm.PC)

	if err := vm.Mem.Fetch(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	vm.IR = Instruction(vm.Mem.MDR)
	vm.PC++

	vm.log.Debug("fetched", "IR", vm.IR)

	return nil
}

// Decode builds the operation denoted by IR. It returns ErrReserved for the
// reserved opcode.
func (vm *LC3) Decode() (operation, error) {
	var oper operation

	switch vm.IR.Opcode() {
	case BR:
		oper = &br{}
	case AND:
		if vm.IR.Imm() {
			oper = &andImm{}
		} else {
			oper = &and{}
		}
	case ADD:
		if vm.IR.Imm() {
			oper = &addImm{}
		} else {
			oper = &add{}
		}
	case NOT:
		oper = &not{}
	case LD:
		oper = &ld{}
	case LDI:
		oper = &ldi{}
	case LDR:
		oper = &ldr{}
	case LEA:
		oper = &lea{}
	case ST:
		oper = &st{}
	case STI:
		oper = &sti{}
	case STR:
		oper = &str{}
	case JMP:
		oper = &jmp{}
	case JSR:
		if vm.IR.Relative() {
			oper = &jsr{}
		} else {
			oper = &jsrr{}
		}
	case TRAP:
		oper = &trap{}
	case RTI:
		oper = &rti{}
	case RES:
		return nil, fmt.Errorf("decode: %w: %s", ErrReserved, vm.IR)
	default:
		return nil, fmt.Errorf("decode: %w: %s", ErrReserved, vm.IR)
	}

	oper.Decode(vm)

	return oper, nil
}

// An operation is a single CPU instruction. Each opcode's semantics are
// defined as one atomic Execute step against the machine, per the
// instruction set's definition: unlike a micro-coded pipeline, there is no
// externally observable intermediate state between one instruction and the
// next.
type operation interface {
	// Decode extracts the operation's fields from the machine's
	// instruction register.
	Decode(vm *LC3)

	// Execute performs the operation against the machine, returning
	// ErrPrivilege if it is RTI executed in user mode.
	Execute(vm *LC3) error

	fmt.Stringer
}
