package cli_test

import (
	"errors"
	"testing"

	"github.com/lc3vm/lc3vm/internal/cli"
	"github.com/lc3vm/lc3vm/internal/log"
)

func TestParseUsage(tt *testing.T) {
	_, err := cli.Parse("lc3", nil)
	if !errors.Is(err, cli.ErrUsage) {
		tt.Errorf("want: ErrUsage, got: %v", err)
	}
}

func TestParsePaths(tt *testing.T) {
	cfg, err := cli.Parse("lc3", []string{"one.obj", "two.obj"})
	if err != nil {
		tt.Fatal(err)
	}

	if cfg.Debug {
		tt.Error("want: debug false")
	}

	want := []string{"one.obj", "two.obj"}
	if len(cfg.Paths) != len(want) {
		tt.Fatalf("want: %v, got: %v", want, cfg.Paths)
	}

	for i := range want {
		if cfg.Paths[i] != want[i] {
			tt.Errorf("want: %s, got: %s", want[i], cfg.Paths[i])
		}
	}
}

func TestParseDebugFlag(tt *testing.T) {
	cfg, err := cli.Parse("lc3", []string{"-debug", "one.obj"})
	if err != nil {
		tt.Fatal(err)
	}

	if !cfg.Debug {
		tt.Error("want: debug true")
	}

	if len(cfg.Paths) != 1 || cfg.Paths[0] != "one.obj" {
		tt.Errorf("want: [one.obj], got: %v", cfg.Paths)
	}
}

func TestParseBadFlag(tt *testing.T) {
	_, err := cli.Parse("lc3", []string{"-nosuchflag"})
	if !errors.Is(err, cli.ErrUsage) {
		tt.Errorf("want: ErrUsage, got: %v", err)
	}
}

func TestNewLoggerDebug(tt *testing.T) {
	prev := log.LogLevel.Level()
	defer log.LogLevel.Set(prev)

	logger := cli.NewLogger(true)
	if logger == nil {
		tt.Fatal("want: non-nil logger")
	}

	if log.LogLevel.Level() != log.Debug {
		tt.Errorf("want: debug level, got: %v", log.LogLevel.Level())
	}
}
