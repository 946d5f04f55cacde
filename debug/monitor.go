package debug

import (
	"fmt"
	"sync"

	"dmgjit"
)

// Monitor tracks freeze/breakpoint state for a single engine, mirroring the
// teacher's machine monitor's activate/deactivate/freeze lifecycle narrowed
// to one CPU instead of a bank of heterogeneous cores.
type Monitor struct {
	mu         sync.Mutex
	active     bool
	frozen     bool
	breakpoints map[uint16]struct{}
	condLog    []string
}

func NewMonitor() *Monitor {
	return &Monitor{breakpoints: make(map[uint16]struct{})}
}

func (m *Monitor) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
}

func (m *Monitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.frozen = false
}

func (m *Monitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Monitor) Freeze()   { m.mu.Lock(); m.frozen = true; m.mu.Unlock() }
func (m *Monitor) Resume()   { m.mu.Lock(); m.frozen = false; m.mu.Unlock() }
func (m *Monitor) IsFrozen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frozen
}

func (m *Monitor) AddBreakpoint(addr uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpoints[addr] = struct{}{}
}

func (m *Monitor) RemoveBreakpoint(addr uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakpoints, addr)
}

// HitBreakpoint reports whether pc matches a registered breakpoint and, if
// so, freezes the monitor and logs the hit.
func (m *Monitor) HitBreakpoint(pc uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.breakpoints[pc]; !ok {
		return false
	}
	m.frozen = true
	m.condLog = append(m.condLog, fmt.Sprintf("breakpoint hit at $%04X", pc))
	return true
}

func (m *Monitor) Log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.condLog))
	copy(out, m.condLog)
	return out
}

// Snapshot is a point-in-time capture used by the REPL's "r"/"copy" commands.
type Snapshot struct {
	Registers string
	Listing   []string
}

func Capture(c *dmgjit.CPUState, read dmgjit.ByteReader) Snapshot {
	return Snapshot{
		Registers: RegisterDump(c),
		Listing:   Disassemble(read, c.PC, 8),
	}
}
