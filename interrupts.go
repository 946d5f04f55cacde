// interrupts.go - interrupt priority servicing

package dmgjit

// Interrupt bit positions within IE (0xFFFF) and IF (0xFF0F), in priority
// order from highest to lowest.
const (
	IntVBlank byte = 1 << iota
	IntLCDStat
	IntTimer
	IntSerial
	IntJoypad
)

var interruptVectors = []struct {
	Mask   byte
	Vector uint16
}{
	{IntVBlank, 0x0040},
	{IntLCDStat, 0x0048},
	{IntTimer, 0x0050},
	{IntSerial, 0x0058},
	{IntJoypad, 0x0060},
}

// ServiceInterrupts checks for a pending, enabled interrupt and, if IME
// allows it, pushes PC, jumps to the vector, and clears the flag. It
// returns the number of cycles consumed (20 if an interrupt was serviced,
// 0 otherwise) and whether one was serviced at all. A pending, enabled
// interrupt wakes a halted CPU here even when IME is off; that case
// returns (0, false).
func ServiceInterrupts(c *CPUState, m *MMU) (cycles int, serviced bool) {
	pending := m.InterruptEnable() & m.InterruptFlag() & 0x1F
	if pending == 0 {
		return 0, false
	}

	if c.Halted {
		c.Halted = false
	}
	if !c.IME {
		return 0, false
	}

	for _, v := range interruptVectors {
		if pending&v.Mask == 0 {
			continue
		}
		c.IME = false
		m.SetInterruptFlag(v.Mask, false)
		c.SP -= 2
		m.Write16(c.SP, c.PC)
		c.PC = v.Vector
		return 20, true
	}
	return 0, false
}

// RequestInterrupt is the collaborators' (PPU/timer/joypad) entry point for
// raising IF bits.
func RequestInterrupt(m *MMU, mask byte) {
	m.SetInterruptFlag(mask, true)
}
