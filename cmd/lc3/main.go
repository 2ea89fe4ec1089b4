// Command lc3 loads one or more raw binary images into a simulated LC-3
// and runs it against the controlling terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/lc3vm/lc3vm/internal/cli"
	"github.com/lc3vm/lc3vm/internal/log"
	"github.com/lc3vm/lc3vm/internal/tty"
	"github.com/lc3vm/lc3vm/internal/vm"
)

// Exit codes, per the CLI contract.
const (
	exitHalt     = 0
	exitHostIO   = -1
	exitSignaled = -2
)

func main() {
	os.Exit(run(os.Args[0], os.Args[1:]))
}

func run(name string, args []string) int {
	cfg, err := cli.Parse(name, args)
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return exitHalt
		}

		fmt.Fprintln(os.Stderr, err)

		return exitHostIO
	}

	logger := cli.NewLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	machine := vm.New(
		vm.WithLogger(logger),
		vm.WithDisplayListener(func(b byte) { _, _ = os.Stdout.Write([]byte{b}) }),
	)

	if err := loadImages(machine, cfg.Paths); err != nil {
		logger.Error("image load failed", "err", err)

		return exitHostIO
	}

	console, err := tty.NewConsole(os.Stdin)
	if err != nil && !errors.Is(err, tty.ErrNoTTY) {
		logger.Error("terminal setup failed", "err", err)

		return exitHostIO
	}

	if console != nil {
		defer console.Restore()

		kbd, _ := machine.Mem.Devices.Get(vm.KBDRAddr).(*vm.Keyboard)

		go func() {
			if rerr := console.Run(ctx, kbd); rerr != nil && !errors.Is(rerr, context.Canceled) {
				logger.Error("console terminated", "err", rerr)
			}
		}()
	}

	runErr := machine.Run(ctx)

	if console != nil {
		console.Restore()
	}

	switch {
	case runErr == nil:
		return exitHalt
	case errors.Is(runErr, context.Canceled):
		return exitSignaled
	case errors.Is(runErr, vm.ErrInputDisconnected):
		return exitHostIO
	default:
		logger.Error("run failed", "err", runErr)

		return exitHostIO
	}
}

// loadImages loads each path, in order, into the same machine memory.
// Later images may overlay earlier ones. At least one path must be given;
// cli.Parse already guarantees that.
func loadImages(machine *vm.LC3, paths []string) error {
	loader := vm.NewLoader(machine)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open: %s: %w", path, err)
		}

		obj, err := vm.ReadImage(f)
		_ = f.Close()

		if err != nil {
			return fmt.Errorf("read: %s: %w", path, err)
		}

		if _, err := loader.Load(obj); err != nil {
			return fmt.Errorf("load: %s: %w", path, err)
		}
	}

	return nil
}
