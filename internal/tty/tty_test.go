// The console test is skipped when stdin is not a terminal (ErrNoTTY).
// Notably this includes "go test", since it redirects the test binary's
// standard streams. Build and run the test binary directly to exercise it:
//
//	go test -c && ./tty.test
package tty_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/lc3vm/lc3vm/internal/tty"
	"github.com/lc3vm/lc3vm/internal/vm"
)

func TestNewConsole(tt *testing.T) {
	console, err := tty.NewConsole(os.Stdin)
	if errors.Is(err, tty.ErrNoTTY) {
		tt.Skipf("not a terminal: %s", err)
	}

	if err != nil {
		tt.Fatal(err)
	}

	defer console.Restore()
}

func TestConsoleRunCancelled(tt *testing.T) {
	console, err := tty.NewConsole(os.Stdin)
	if errors.Is(err, tty.ErrNoTTY) {
		tt.Skipf("not a terminal: %s", err)
	}

	if err != nil {
		tt.Fatal(err)
	}

	defer console.Restore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = console.Run(ctx, vm.NewKeyboard())

	if !errors.Is(err, context.DeadlineExceeded) {
		tt.Errorf("want: deadline exceeded, got: %v", err)
	}
}
