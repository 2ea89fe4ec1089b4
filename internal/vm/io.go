package vm

// io.go implements memory-mapped I/O: the table of device registers living
// in the top of the address space and the dispatch of loads and stores to
// them.

import (
	"errors"
	"fmt"

	"github.com/lc3vm/lc3vm/internal/log"
)

// Addresses of memory-mapped device registers.
const (
	KBSRAddr Word = 0xfe00 // Keyboard status register.
	KBDRAddr Word = 0xfe02 // Keyboard data register.
	DSRAddr  Word = 0xfe04 // Display status register.
	DDRAddr  Word = 0xfe06 // Display data register.
	MCRAddr  Word = 0xfffe // Master control register.
)

// MMIO is the memory-mapped I/O controller: a table indexed by logical
// address pointing to either a register or a device driver that performs
// the actual data exchange.
type MMIO struct {
	devs map[Word]any
	log  *log.Logger
}

// NewMMIO creates an empty memory-mapped I/O controller.
func NewMMIO() MMIO {
	return MMIO{
		devs: make(map[Word]any),
		log:  log.DefaultLogger(),
	}
}

var (
	errMMIO = errors.New("mmio")

	// ErrNoDevice is returned when reading or writing an unmapped address.
	ErrNoDevice = fmt.Errorf("%w: no device", errMMIO)
)

// RegisterDevice is a device whose whole state is a single register.
type RegisterDevice interface {
	Get() Register
	Put(Register)
}

// ReadDriver supports reading an address-qualified device register.
type ReadDriver interface {
	Read(addr Word) (Word, error)
}

// WriteDriver supports writing an address-qualified device register.
type WriteDriver interface {
	Write(addr Word, val Register) error
}

// Map installs device mappings. All mappings are validated before any are
// installed, so a bad call leaves the table unchanged.
func (mmio *MMIO) Map(devices map[Word]any) error {
	for addr, dev := range devices {
		switch dev.(type) {
		case RegisterDevice, ReadDriver, WriteDriver:
		default:
			return fmt.Errorf("%w: map: unsupported device: %s: %T", errMMIO, addr, dev)
		}
	}

	for addr, dev := range devices {
		mmio.devs[addr] = dev
	}

	return nil
}

// Get returns the device mapped at addr, or nil.
func (mmio MMIO) Get(addr Word) any {
	return mmio.devs[addr]
}

// Load reads a word from a memory-mapped address.
func (mmio MMIO) Load(addr Word) (Register, error) {
	dev := mmio.devs[addr]

	switch d := dev.(type) {
	case nil:
		return 0xffff, fmt.Errorf("%w: load: %s", ErrNoDevice, addr)
	case RegisterDevice:
		return d.Get(), nil
	case ReadDriver:
		val, err := d.Read(addr)
		if err != nil {
			return 0xffff, fmt.Errorf("mmio: load: %s: %w", addr, err)
		}

		return Register(val), nil
	default:
		return 0xffff, fmt.Errorf("%w: load: %s: %T", ErrNoDevice, addr, dev)
	}
}

// Store writes a word to a memory-mapped address.
func (mmio MMIO) Store(addr Word, val Register) error {
	dev := mmio.devs[addr]

	switch d := dev.(type) {
	case nil:
		return fmt.Errorf("%w: store: %s", ErrNoDevice, addr)
	case RegisterDevice:
		d.Put(val)
	case WriteDriver:
		if err := d.Write(addr, val); err != nil {
			return fmt.Errorf("mmio: store: %s: %w", addr, err)
		}
	default:
		return fmt.Errorf("%w: store: %s: %T", ErrNoDevice, addr, dev)
	}

	mmio.log.Debug("stored", log.String("addr", addr.String()), log.String("data", val.String()))

	return nil
}
