package vm

// vm.go assembles the virtual machine from its smaller parts: registers,
// memory, devices, and the interrupt controller.

import (
	"fmt"

	"github.com/lc3vm/lc3vm/internal/log"
)

// LC3 is an LC-3 computer simulated in software.
type LC3 struct {
	PC  ProgramCounter  // Program counter: address of the next instruction.
	IR  Instruction     // Instruction register: the instruction being executed.
	PSR ProcessorStatus // Processor status register.
	MCR ControlRegister // Master control register.
	USP Register        // Saved user stack pointer.
	REG RegisterFile    // General-purpose registers.
	INT Interrupt       // Interrupt controller.
	Mem Memory          // Memory and memory-mapped I/O.

	log *log.Logger
}

// Regions of the 16-bit address space.
const (
	TrapTableAddr   Word = 0x0000 // TRAP vectors, 0x0000:0x00ff.
	VectorTableAddr Word = 0x0100 // Interrupt/exception vectors, 0x0100:0x01ff.
	SystemStackAddr Word = 0x3000 // Supervisor stack base; stack grows down.
	UserSpaceAddr   Word = 0x3000 // First address of user space.
	IOPageAddr      Word = 0xfe00 // First address of the memory-mapped I/O page.
	AddrSpace       Word = 0xffff // Top of the logical address space.
)

// New creates and initializes a virtual machine, ready to run at the
// conventional user-space entry point, 0x3000. Options are applied after
// the machine and its devices are constructed so they may adjust the default
// wiring (add a display listener, use a different logger, and so on).
func New(opts ...OptionFn) *LC3 {
	vm := &LC3{log: log.DefaultLogger()}
	vm.initializeRegisters()

	vm.Mem = NewMemory()

	kbd := NewKeyboard()
	vm.INT.Register(PriorityKeyboard, ISR{vector: uint8(ISRKeyboard), driver: kbd})

	display := NewDisplay()
	driver := NewDisplayDriver(display)

	devices := map[Word]any{
		MCRAddr:  &vm.MCR,
		KBSRAddr: kbd,
		KBDRAddr: kbd,
		DSRAddr:  driver,
		DDRAddr:  driver,
	}

	if err := vm.Mem.Devices.Map(devices); err != nil {
		panic(err)
	}

	vm.initializeTrapHandlers()

	for _, fn := range opts {
		fn(vm)
	}

	return vm
}

func (vm *LC3) String() string {
	return fmt.Sprintf("PC: %s IR: %s\nPSR: %s\nUSP: %s MCR: %s\nMAR: %s MDR: %s",
		vm.PC, vm.IR, vm.PSR, vm.USP, vm.MCR, vm.Mem.MAR, vm.Mem.MDR)
}

// LogValue implements slog.LogValuer, letting the machine's state be logged
// as a structured group rather than its String representation.
func (vm *LC3) LogValue() log.Value {
	return log.GroupValue(
		log.String("PC", vm.PC.String()),
		log.String("IR", vm.IR.String()),
		log.String("PSR", vm.PSR.String()),
		log.String("USP", Word(vm.USP).String()),
		log.String("MCR", vm.MCR.String()),
		log.Any("REG", vm.REG),
	)
}

// initializeRegisters sets the machine's boot-time state: user-mode
// privilege, normal priority, no condition codes set, PC at the bottom of
// user space, and the RUN flag set in MCR.
func (vm *LC3) initializeRegisters() {
	vm.PSR = StatusUser | StatusNormal
	vm.PC = ProgramCounter(UserSpaceAddr)
	vm.USP = Register(UserSpaceAddr)
	vm.MCR = ControlRegister(0x8000)
	vm.REG[SP] = vm.USP
}

// PushStack pushes a word onto the current stack, pre-decrementing R6.
func (vm *LC3) PushStack(w Word) error {
	vm.REG[SP]--
	vm.Mem.MAR = vm.REG[SP]
	vm.Mem.MDR = Register(w)

	return vm.Mem.Store()
}

// PopStack pops a word from the current stack into MDR, post-incrementing
// R6.
func (vm *LC3) PopStack() error {
	vm.Mem.MAR = vm.REG[SP]
	vm.REG[SP]++

	return vm.Mem.Fetch()
}

// ProgramCounter is the address of the next instruction to fetch.
type ProgramCounter Word

func (p ProgramCounter) String() string { return Word(p).String() }

// ProcessorStatus records the CPU's privilege, priority, and condition
// codes.
//
//	| PR | 0000 | PL | 00000 | COND |
//	+----+------+----+-------+------+
//	| 15 |14  11|10 8|7     3|2    0|
type ProcessorStatus Word

// Status flags packed into the PSR.
const (
	StatusPositive  ProcessorStatus = 0x0001
	StatusZero      ProcessorStatus = 0x0002
	StatusNegative  ProcessorStatus = 0x0004
	StatusCondition ProcessorStatus = StatusNegative | StatusZero | StatusPositive

	StatusPriority ProcessorStatus = 0x0700
	StatusHigh     ProcessorStatus = 0x0700
	StatusNormal   ProcessorStatus = 0x0300
	StatusLow      ProcessorStatus = 0x0000

	StatusPrivilege ProcessorStatus = 0x8000
	StatusUser      ProcessorStatus = 0x8000
	StatusSystem    ProcessorStatus = 0x0000
)

func (ps ProcessorStatus) String() string {
	return fmt.Sprintf("%s %s PR:%s PL:%s", Word(ps), ps.Cond(), ps.Privilege(), ps.Priority())
}

// Cond returns the condition-code bits of the status register.
func (ps ProcessorStatus) Cond() Condition {
	return Condition(ps & StatusCondition)
}

// Any returns true if any flag in cond is set in the status register's
// condition codes. BR compares its NZP operand this way.
func (ps ProcessorStatus) Any(cond Condition) bool {
	return ps.Cond()&cond != 0
}

// Set updates the condition codes from the sign of reg: Z if zero, N if the
// high bit is set, P otherwise. The other two flags are cleared.
func (ps *ProcessorStatus) Set(reg Register) {
	*ps &^= StatusCondition

	switch {
	case reg == 0:
		*ps |= StatusZero
	case int16(reg) < 0:
		*ps |= StatusNegative
	default:
		*ps |= StatusPositive
	}
}

// Priority returns the current task's priority level.
func (ps ProcessorStatus) Priority() Priority {
	return Priority(ps & StatusPriority >> 8)
}

// Privilege returns the current task's privilege level.
func (ps ProcessorStatus) Privilege() Privilege {
	return Privilege(ps & StatusPrivilege >> 15)
}

// ControlRegister is the master control register (MCR). Clearing its top
// bit is the guest's halt signal.
type ControlRegister Register

// ControlRunning is the RUN bit of the master control register.
const ControlRunning ControlRegister = 1 << 15

// Running returns true while the RUN bit is set.
func (cr ControlRegister) Running() bool { return cr&ControlRunning != 0 }

func (cr ControlRegister) String() string {
	state := "RUN"
	if !cr.Running() {
		state = "HALT"
	}

	return fmt.Sprintf("%s (%s)", Register(cr), state)
}

// Get returns the register's value for memory-mapped I/O reads.
func (cr *ControlRegister) Get() Register { return Register(*cr) }

// Put sets the register's value for memory-mapped I/O writes.
func (cr *ControlRegister) Put(val Register) { *cr = ControlRegister(val) }

func (cr *ControlRegister) device() string { return "MCR" }

// OptionFn configures a machine during construction.
type OptionFn func(vm *LC3)

// WithLogger overrides the machine's logger.
func WithLogger(logger *log.Logger) OptionFn {
	return func(vm *LC3) {
		vm.log = logger
		vm.Mem.log = logger
		vm.Mem.Devices.log = logger
	}
}

// WithDisplayListener registers a callback invoked with every byte the
// guest writes to DDR. The display has no output sink until one is
// registered this way; callers that want guest output on a writer (e.g.
// os.Stdout) must opt in explicitly.
func WithDisplayListener(listener func(byte)) OptionFn {
	return func(vm *LC3) {
		if driver, ok := vm.Mem.Devices.Get(DDRAddr).(*DisplayDriver); ok {
			driver.Listen(listener)
		}
	}
}
