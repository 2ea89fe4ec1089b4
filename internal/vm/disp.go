package vm

// disp.go implements the display device: the memory-mapped DSR/DDR
// registers and the host output sink they write through to.

import (
	"fmt"
	"sync"
)

// Display status register bit. The display is always ready; there is no
// buffering to wait on.
const DisplayReady = Register(1 << 15)

// Display is the logical output device. Writing its data register emits a
// byte to every registered listener; the status register always reads
// ready.
type Display struct {
	mut  sync.Mutex
	list []func(byte)
}

// NewDisplay creates a display with no listeners attached.
func NewDisplay() *Display {
	return &Display{}
}

// Listen registers a callback invoked, in order, for every byte written to
// DDR. Callbacks must not block.
func (d *Display) Listen(fn func(byte)) {
	d.mut.Lock()
	defer d.mut.Unlock()

	d.list = append(d.list, fn)
}

// Write emits a byte to every listener.
func (d *Display) Write(b byte) {
	d.mut.Lock()
	defer d.mut.Unlock()

	for _, fn := range d.list {
		fn(b)
	}
}

func (d *Display) String() string { return "Display(ready)" }

// DisplayDriver maps the display onto DSR/DDR. Writing DDR does not mutate
// a memory cell; per the spec, the low byte is emitted and flushed
// immediately and the word is otherwise discarded. It installs no output
// sink of its own; callers opt in via Listen (or WithDisplayListener).
type DisplayDriver struct {
	display *Display
}

// NewDisplayDriver creates a driver with no output listener attached.
func NewDisplayDriver(display *Display) *DisplayDriver {
	return &DisplayDriver{display: display}
}

// Listen registers an output listener, e.g. a terminal console or the
// host's stdout.
func (driver *DisplayDriver) Listen(fn func(byte)) {
	driver.display.Listen(fn)
}

// Read implements ReadDriver. DSR always reads ready; DDR is write-only and
// reading it is an error.
func (driver *DisplayDriver) Read(addr Word) (Word, error) {
	switch addr {
	case DSRAddr:
		return Word(DisplayReady), nil
	default:
		return 0, fmt.Errorf("disp: %w: %s", ErrNoDevice, addr)
	}
}

// Write implements WriteDriver. Writing DDR emits the low byte of val;
// writes to DSR are ignored, as it is device-owned.
func (driver *DisplayDriver) Write(addr Word, val Register) error {
	if addr == DDRAddr {
		driver.display.Write(byte(val))
	}

	return nil
}

func (driver *DisplayDriver) String() string {
	return fmt.Sprintf("DisplayDriver(%s)", driver.display)
}
