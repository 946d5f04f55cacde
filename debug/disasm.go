// Package debug provides a breakpoint-aware monitor and an interactive
// stepping REPL over the engine, adapted from the teacher's machine
// monitor and terminal host down to a single-CPU target.
package debug

import (
	"fmt"

	"dmgjit"
)

// Disassemble decodes count instructions starting at addr through read,
// formatting each the way a hand disassembly listing would.
func Disassemble(read dmgjit.ByteReader, addr uint16, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		instr := dmgjit.Decode(read, addr)
		lines = append(lines, formatInstruction(instr))
		addr += uint16(instr.Length)
	}
	return lines
}

func formatInstruction(instr dmgjit.Instruction) string {
	opcode := instr.Opcode
	if instr.Prefixed {
		return fmt.Sprintf("$%04X  CB %02X      %s", instr.Address, instr.CBOpcode, instr.Mnemonic)
	}
	return fmt.Sprintf("$%04X  %02X          %s", instr.Address, opcode, instr.Mnemonic)
}

// RegisterDump renders a register snapshot the way a "r" monitor command
// would, and is what the clipboard hotkey copies.
func RegisterDump(c *dmgjit.CPUState) string {
	return fmt.Sprintf(
		"A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X PC=%04X IME=%v",
		c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, c.PC, c.IME,
	)
}
