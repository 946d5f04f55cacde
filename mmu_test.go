package dmgjit

import "testing"

func TestMMUEchoRAMMirrorsWRAM(t *testing.T) {
	m := NewMMU(&testCart{})
	m.Write8(0xC010, 0x77)
	requireEqualU8(t, "echo read", m.Read8(0xE010), 0x77)
}

func TestMMUUnusableRegionReadsFF(t *testing.T) {
	m := NewMMU(&testCart{})
	requireEqualU8(t, "unusable read", m.Read8(0xFEA5), 0xFF)
}

func TestMMUIORegionHandlerOverridesRawBacking(t *testing.T) {
	m := NewMMU(&testCart{})
	var written byte
	m.MapIO(0xFF10, 0xFF10, func(uint16) byte { return 0xAB }, func(_ uint16, v byte) { written = v })

	requireEqualU8(t, "handled read", m.Read8(0xFF10), 0xAB)
	m.Write8(0xFF10, 0x5A)
	requireEqualU8(t, "handled write", written, 0x5A)
}

func TestMMUInterruptEnableAndFlag(t *testing.T) {
	m := NewMMU(&testCart{})
	m.Write8(0xFFFF, IntVBlank|IntTimer)
	requireEqualU8(t, "IE", m.InterruptEnable(), IntVBlank|IntTimer)

	m.SetInterruptFlag(IntTimer, true)
	requireEqualU8(t, "IF", m.InterruptFlag(), IntTimer)
	m.SetInterruptFlag(IntTimer, false)
	requireEqualU8(t, "IF after clear", m.InterruptFlag(), 0)
}

func TestMMUOAMDMACopiesFromSourcePage(t *testing.T) {
	m := NewMMU(&testCart{})
	for i := uint16(0); i < 0xA0; i++ {
		m.Write8(0xC000+i, byte(i))
	}
	m.Write8(0xFF46, 0xC0) // trigger DMA from 0xC000

	for i := uint16(0); i < 0xA0; i++ {
		requireEqualU8(t, "OAM byte", m.Read8(0xFE00+i), byte(i))
	}
}

func TestMMUReadWrite16LittleEndian(t *testing.T) {
	m := NewMMU(&testCart{})
	m.Write16(0xC100, 0x1234)
	requireEqualU8(t, "low byte", m.Read8(0xC100), 0x34)
	requireEqualU8(t, "high byte", m.Read8(0xC101), 0x12)
	requireEqualU16(t, "Read16 roundtrip", m.Read16(0xC100), 0x1234)
}
