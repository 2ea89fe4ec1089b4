package vm

// kbd.go implements the keyboard device: the memory-mapped KBSR/KBDR
// registers and the asynchronous boundary (InputChannel) between a
// host-owned input producer and the single-threaded interpreter.

import (
	"errors"
	"fmt"
)

// Bit fields of the keyboard status register.
const (
	KeyboardReady  = Register(1 << 15) // IR: a character is available.
	KeyboardEnable = Register(1 << 14) // IE: the device may interrupt.
)

// intrRecord is an interrupt notification paired, byte-first, with a
// keystroke enqueued on the byte queue.
type intrRecord struct {
	vector   uint8
	priority Priority
}

// ErrInputDisconnected is returned when the host input producer has
// stopped and a queue it fed is found closed and drained. Per the spec
// this is fatal: the VM exits with a non-zero status.
var ErrInputDisconnected = errors.New("kbd: input channel disconnected")

// Keyboard is the machine's sole interrupting input device. It owns the
// InputChannel: two independent, single-producer/single-consumer queues
// (bytes and paired interrupt records) fed by a host goroutine (see
// package tty) that blocks reading stdin and, for every byte read, enqueues
// the byte then the interrupt record.
//
// The interpreter is the consumer on both queues and never blocks on
// either: KBSR reads poll the byte queue; the interrupt controller polls
// the interrupt queue once between instructions. The queues are
// independent, so the interpreter may observe the interrupt before it
// reads KBDR -- by design, since the interrupt's handler is expected to
// read KBSR itself, which drains the byte queue synchronously.
//
// Queues are buffered channels rather than literal unbounded growth: the
// buffer is deep enough that, in practice, a human typing never fills it.
type Keyboard struct {
	bytes chan byte
	intr  chan intrRecord

	KBSR Register // Keyboard status register.
	KBDR Register // Keyboard data register.
}

// inputQueueDepth bounds each InputChannel queue.
const inputQueueDepth = 256

// NewKeyboard creates a keyboard with interrupts enabled and no pending
// character.
func NewKeyboard() *Keyboard {
	return &Keyboard{
		bytes: make(chan byte, inputQueueDepth),
		intr:  make(chan intrRecord, inputQueueDepth),
		KBSR:  KeyboardEnable,
	}
}

// Push enqueues a byte read by the host input producer, byte-first, then
// its paired keyboard interrupt record (vector 0x80, priority 4).
func (k *Keyboard) Push(b byte) {
	k.bytes <- b
	k.intr <- intrRecord{vector: uint8(ISRKeyboard), priority: PriorityKeyboard}
}

// Close signals that the input producer has stopped. Any subsequent read
// that finds a queue closed and empty reports ErrInputDisconnected.
func (k *Keyboard) Close() {
	close(k.bytes)
	close(k.intr)
}

// Read implements ReadDriver. Reading KBSR polls the byte queue: if a byte
// is waiting, it is moved into KBDR and the ready bit is set; otherwise the
// ready bit is cleared. Reading KBDR returns the register's current value
// with no side effect -- only a KBSR read drains the queue.
func (k *Keyboard) Read(addr Word) (Word, error) {
	switch addr {
	case KBSRAddr:
		select {
		case b, ok := <-k.bytes:
			if !ok {
				return 0, ErrInputDisconnected
			}

			k.KBDR = Register(b)
			k.KBSR |= KeyboardReady
		default:
			k.KBSR &^= KeyboardReady
		}

		return Word(k.KBSR), nil
	case KBDRAddr:
		return Word(k.KBDR), nil
	default:
		return 0, fmt.Errorf("kbd: %w: %s", ErrNoDevice, addr)
	}
}

// Write implements WriteDriver. Only KBSR is guest-writable (to toggle the
// interrupt-enable bit); writes to KBDR are ignored, as it is device-owned.
func (k *Keyboard) Write(addr Word, val Register) error {
	if addr == KBSRAddr {
		k.KBSR = val
	}

	return nil
}

// TryRecv attempts to drain one pending interrupt record from the
// interrupt queue without blocking. It implements interruptSource.
func (k *Keyboard) TryRecv() (vector uint8, priority Priority, ok bool, err error) {
	select {
	case rec, open := <-k.intr:
		if !open {
			return 0, 0, false, ErrInputDisconnected
		}

		return rec.vector, rec.priority, true, nil
	default:
		return 0, 0, false, nil
	}
}

// Enabled reports whether the device's interrupt-enable bit (KBSR bit 14)
// is set. It implements interruptSource.
func (k *Keyboard) Enabled() bool {
	return k.KBSR&KeyboardEnable != 0
}

func (k *Keyboard) String() string {
	return fmt.Sprintf("Keyboard(KBSR:%s,KBDR:%s)", Word(k.KBSR), Word(k.KBDR))
}
