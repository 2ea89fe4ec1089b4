// Package tty adapts a host POSIX terminal to the machine's keyboard
// device.
package tty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lc3vm/lc3vm/internal/vm"
	"golang.org/x/term"
)

// ErrNoTTY is returned if standard input is not a terminal. Asynchronous
// input is not available in this case; callers should still run the
// machine, just without a live keyboard.
var ErrNoTTY = errors.New("tty: not a terminal")

// Console is the terminal guard: it puts the host terminal into raw,
// non-canonical, non-echoing mode for the duration of a run and guarantees
// that mode is undone, on every exit path, by Restore. While active, it
// copies host keystrokes into the machine's keyboard device. Display
// output is not Console's concern: the caller wires the machine's output
// sink once, up front, via vm.WithDisplayListener, so it reaches the host
// terminal whether or not a Console is active.
//
// Console is the only goroutine-owning collaborator besides the
// interpreter itself: one goroutine blocks reading stdin and feeds the
// keyboard.
type Console struct {
	in    *os.File
	fd    int
	state *term.State
}

// NewConsole puts fd's terminal into raw mode and returns a Console bound
// to it. If in is not a terminal, ErrNoTTY is returned and the terminal is
// left untouched.
func NewConsole(in *os.File) (*Console, error) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	return &Console{in: in, fd: fd, state: state}, nil
}

// Restore returns the terminal to the mode it was in before NewConsole. It
// is safe to call more than once; only the first call has an effect.
func (c *Console) Restore() {
	if c == nil || c.state == nil {
		return
	}

	_ = term.Restore(c.fd, c.state)
	c.state = nil
}

// Run bridges host stdin to kbd until ctx is cancelled or the input stream
// errors. It blocks; callers run it in its own goroutine.
func (c *Console) Run(ctx context.Context, kbd *vm.Keyboard) error {
	reader := bufio.NewReader(c.in)
	errCh := make(chan error, 1)

	go func() {
		for {
			b, err := reader.ReadByte()
			if err != nil {
				errCh <- err
				return
			}

			kbd.Push(b)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		kbd.Close()

		return err
	}
}
