package vm

// mem.go contains the machine's memory controller.

import (
	"fmt"

	"github.com/lc3vm/lc3vm/internal/log"
)

// Memory translates logical addresses to either physical memory cells or
// memory-mapped device registers. Access goes through a pair of control
// registers, MAR (address) and MDR (data), mirroring the hardware data path.
type Memory struct {
	MAR Register // Memory address register.
	MDR Register // Memory data register.

	cell    PhysicalMemory
	Devices MMIO

	log *log.Logger
}

// PhysicalMemory backs the logical address space below the I/O page.
type PhysicalMemory [AddrSpace & IOPageAddr]Word

// NewMemory initializes a memory controller with an empty device table.
func NewMemory() Memory {
	return Memory{
		cell:    PhysicalMemory{},
		Devices: NewMMIO(),
		log:     log.DefaultLogger(),
	}
}

// Fetch loads MDR from the address in MAR.
func (mem *Memory) Fetch() error {
	if err := mem.load(Word(mem.MAR), &mem.MDR); err != nil {
		return fmt.Errorf("%w: fetch: %w", ErrMemory, err)
	}

	return nil
}

// Store writes MDR to the address in MAR.
func (mem *Memory) Store() error {
	if err := mem.store(Word(mem.MAR), Word(mem.MDR)); err != nil {
		return fmt.Errorf("%w: store: %w", ErrMemory, err)
	}

	return nil
}

// View returns a copy of the physical memory cells, for debugging and
// tests.
func (mem *Memory) View() PhysicalMemory {
	var view PhysicalMemory

	copy(view[:], mem.cell[:])

	return view
}

// load reads a word directly, bypassing MAR/MDR.
func (mem *Memory) load(addr Word, reg *Register) error {
	if addr >= IOPageAddr {
		r, err := mem.Devices.Load(addr)
		*reg = r

		return err
	}

	*reg = Register(mem.cell[addr])

	return nil
}

// store writes a word directly, bypassing MAR/MDR.
func (mem *Memory) store(addr Word, w Word) error {
	if addr >= IOPageAddr {
		return mem.Devices.Store(addr, Register(w))
	}

	mem.cell[addr] = w

	return nil
}

// ErrMemory wraps errors from memory operations.
var ErrMemory = fmt.Errorf("memory error")
