package vm

import "testing"

// mockSource is a minimal interruptSource for exercising the controller
// without a real device.
type mockSource struct {
	vector   uint8
	priority Priority
	pending  bool
	enabled  bool
	err      error
}

func (m *mockSource) TryRecv() (uint8, Priority, bool, error) {
	if m.err != nil {
		return 0, 0, false, m.err
	}

	if !m.pending {
		return 0, 0, false, nil
	}

	m.pending = false

	return m.vector, m.priority, true, nil
}

func (m *mockSource) Enabled() bool { return m.enabled }

func TestInterruptRequested(tt *testing.T) {
	tt.Parallel()

	tt.Run("no sources registered", func(tt *testing.T) {
		var intr Interrupt

		_, _, ok, err := intr.Requested(PL0)
		if err != nil {
			tt.Fatal(err)
		}

		if ok {
			tt.Error("accepted: want: false, got: true")
		}
	})

	tt.Run("accepts a higher priority enabled source", func(tt *testing.T) {
		var intr Interrupt

		src := &mockSource{vector: 0x80, priority: PL4, pending: true, enabled: true}
		intr.Register(PL4, ISR{vector: 0x80, driver: src})

		vec, pri, ok, err := intr.Requested(PL3)
		if err != nil {
			tt.Fatal(err)
		}

		if !ok {
			tt.Fatal("accepted: want: true, got: false")
		}

		if vec != 0x80 {
			tt.Errorf("vector: want: %#02x, got: %#02x", 0x80, vec)
		}

		if pri != PL4 {
			tt.Errorf("priority: want: %s, got: %s", PL4, pri)
		}
	})

	tt.Run("discards a pending record at or below current priority", func(tt *testing.T) {
		var intr Interrupt

		src := &mockSource{vector: 0x80, priority: PL3, pending: true, enabled: true}
		intr.Register(PL3, ISR{vector: 0x80, driver: src})

		_, _, ok, err := intr.Requested(PL4)
		if err != nil {
			tt.Fatal(err)
		}

		if ok {
			tt.Error("accepted: want: false, got: true")
		}

		if src.pending {
			tt.Error("record was not drained")
		}
	})

	tt.Run("discards a pending record when the source is disabled", func(tt *testing.T) {
		var intr Interrupt

		src := &mockSource{vector: 0x80, priority: PL5, pending: true, enabled: false}
		intr.Register(PL5, ISR{vector: 0x80, driver: src})

		_, _, ok, err := intr.Requested(PL0)
		if err != nil {
			tt.Fatal(err)
		}

		if ok {
			tt.Error("accepted: want: false, got: true")
		}
	})

	tt.Run("highest registered priority wins", func(tt *testing.T) {
		var intr Interrupt

		low := &mockSource{vector: 0x90, priority: PL4, pending: true, enabled: true}
		high := &mockSource{vector: 0x91, priority: PL6, pending: true, enabled: true}

		intr.Register(PL4, ISR{vector: 0x90, driver: low})
		intr.Register(PL6, ISR{vector: 0x91, driver: high})

		vec, _, ok, err := intr.Requested(PL0)
		if err != nil {
			tt.Fatal(err)
		}

		if !ok || vec != 0x91 {
			tt.Errorf("want: vector 0x91 accepted, got: vector %#02x accepted=%t", vec, ok)
		}
	})

	tt.Run("propagates a disconnected source error", func(tt *testing.T) {
		var intr Interrupt

		src := &mockSource{err: ErrInputDisconnected}
		intr.Register(PL4, ISR{vector: 0x80, driver: src})

		if _, _, _, err := intr.Requested(PL0); err == nil {
			tt.Error("want: error, got: nil")
		}
	})
}

func TestExceptionRaise(tt *testing.T) {
	tt.Parallel()

	tt.Run("from user mode switches to the supervisor stack", func(tt *testing.T) {
		cpu := New()
		cpu.PSR = StatusUser | StatusNormal
		cpu.REG[SP] = 0x2000

		exc := exception{vector: ExceptionXOP}

		_ = cpu.Mem.store(VectorTableAddr|ExceptionXOP, 0x0500)

		if err := exc.Raise(cpu); err != nil {
			tt.Fatal(err)
		}

		if cpu.USP != 0x2000 {
			tt.Errorf("USP: want: %s, got: %s", Register(0x2000), cpu.USP)
		}

		if cpu.REG[SP] != Register(SystemStackAddr)-2 {
			tt.Errorf("SP: want: %s, got: %s", Register(SystemStackAddr)-2, cpu.REG[SP])
		}

		if cpu.PC != 0x0500 {
			tt.Errorf("PC: want: %#04x, got: %s", 0x0500, cpu.PC)
		}

		if cpu.PSR.Privilege() != PrivilegeSystem {
			tt.Errorf("privilege: want: SYSTEM, got: %s", cpu.PSR.Privilege())
		}
	})

	tt.Run("external interrupt installs the new priority", func(tt *testing.T) {
		cpu := New()
		cpu.PSR = StatusSystem | StatusNormal
		cpu.REG[SP] = 0x2ffe

		pri := PL6
		exc := exception{vector: Word(ISRKeyboard), priority: &pri}

		_ = cpu.Mem.store(VectorTableAddr|Word(ISRKeyboard), 0x0600)

		if err := exc.Raise(cpu); err != nil {
			tt.Fatal(err)
		}

		if cpu.PSR.Priority() != PL6 {
			tt.Errorf("priority: want: %s, got: %s", PL6, cpu.PSR.Priority())
		}

		if cpu.PC != 0x0600 {
			tt.Errorf("PC: want: %#04x, got: %s", 0x0600, cpu.PC)
		}
	})

	tt.Run("from system mode keeps the current stack", func(tt *testing.T) {
		cpu := New()
		cpu.PSR = StatusSystem | StatusNormal
		cpu.REG[SP] = 0x2ffe
		cpu.USP = 0xbeef

		exc := exception{vector: ExceptionXOP}

		_ = cpu.Mem.store(VectorTableAddr|ExceptionXOP, 0x0500)

		if err := exc.Raise(cpu); err != nil {
			tt.Fatal(err)
		}

		if cpu.USP != 0xbeef {
			tt.Errorf("USP: want: unchanged %s, got: %s", Register(0xbeef), cpu.USP)
		}

		if cpu.REG[SP] != 0x2ffc {
			tt.Errorf("SP: want: %s, got: %s", Register(0x2ffc), cpu.REG[SP])
		}
	})
}

func TestKeyboardInterruptSource(tt *testing.T) {
	tt.Parallel()

	tt.Run("push enqueues byte then interrupt record", func(tt *testing.T) {
		kbd := NewKeyboard()
		kbd.Push('a')

		vec, pri, ok, err := kbd.TryRecv()
		if err != nil {
			tt.Fatal(err)
		}

		if !ok || vec != uint8(ISRKeyboard) || pri != PriorityKeyboard {
			tt.Errorf("want: (0x80, PL4, true), got: (%#02x, %s, %t)", vec, pri, ok)
		}

		w, err := kbd.Read(KBSRAddr)
		if err != nil {
			tt.Fatal(err)
		}

		if w&Word(KeyboardReady) == 0 {
			tt.Error("KBSR: ready bit not set after drain")
		}

		w, err = kbd.Read(KBDRAddr)
		if err != nil {
			tt.Fatal(err)
		}

		if w != Word('a') {
			tt.Errorf("KBDR: want: %q, got: %q", 'a', rune(w))
		}
	})

	tt.Run("closed empty queue reports disconnection", func(tt *testing.T) {
		kbd := NewKeyboard()
		kbd.Close()

		if _, err := kbd.Read(KBSRAddr); err != ErrInputDisconnected {
			tt.Errorf("err: want: %v, got: %v", ErrInputDisconnected, err)
		}

		if _, _, _, err := kbd.TryRecv(); err != ErrInputDisconnected {
			tt.Errorf("err: want: %v, got: %v", ErrInputDisconnected, err)
		}
	})

	tt.Run("enabled reflects KBSR bit 14", func(tt *testing.T) {
		kbd := NewKeyboard()
		if !kbd.Enabled() {
			tt.Error("want: enabled by default")
		}

		_ = kbd.Write(KBSRAddr, 0)
		if kbd.Enabled() {
			tt.Error("want: disabled after clearing IE")
		}
	})
}
