package dmgjit

import "testing"

func TestTranspileBlockMatchesInterpretedCycles(t *testing.T) {
	program := make([]byte, 0x200)
	program[0x100] = 0x06 // LD B,5
	program[0x101] = 0x05
	program[0x102] = 0x78 // LD A,B
	program[0x103] = 0xC9 // RET

	db := AnalyzeROM(readerOf(program), len(program))
	cfg := BuildCFG(db)
	fl := AnalyzeFlagLiveness(db, cfg)
	rl := AnalyzeRegisterLiveness(db, cfg)
	cp := AnalyzeConstants(db, cfg)

	block := db.Blocks[0x0100]
	compiled := TranspileBlock(block, fl, rl, cp)

	rig := newCPUTestRig()
	rig.cpu.PC = 0x0100
	rig.cpu.SP = 0xC000
	rig.mmu.Write16(0xC000, 0x1234) // fake return address for RET to pop

	cycles, err := compiled(rig.cpu, rig.mmu)
	if err != nil {
		t.Fatalf("compiled block error: %v", err)
	}

	wantCycles := 0
	for _, instr := range block.Instructions {
		wantCycles += instr.Cycles
	}
	if cycles != wantCycles {
		t.Fatalf("cycles = %d, want %d", cycles, wantCycles)
	}
	requireEqualU8(t, "A", rig.cpu.A, 5)
	requireEqualU16(t, "PC after RET", rig.cpu.PC, 0x1234)
}

func TestBuildMicroOpSuppressesDeadFlagWrite(t *testing.T) {
	// A block consisting solely of "SUB B; RET" where SUB's flags are never
	// read downstream (the exit seed only forces SP/A live, not F) - the
	// transpiler should not let SUB's flag write escape to the caller.
	program := make([]byte, 0x200)
	program[0x100] = 0x90 // SUB B
	program[0x101] = 0xC9 // RET

	db := AnalyzeROM(readerOf(program), len(program))
	cfg := BuildCFG(db)
	fl := AnalyzeFlagLiveness(db, cfg)
	rl := AnalyzeRegisterLiveness(db, cfg)
	cp := AnalyzeConstants(db, cfg)

	subInstr := db.Blocks[0x0100].Instructions[0]
	op := buildMicroOp(0x0100, 0, subInstr, fl, rl, cp)

	rig := newCPUTestRig()
	rig.cpu.A = 0x10
	rig.cpu.B = 0x10
	rig.cpu.F = 0x00 // no flags set going in
	op(rig.cpu, rig.mmu)

	requireEqualU8(t, "F after dead SUB", rig.cpu.F, 0x00)
	requireEqualU8(t, "A still updated", rig.cpu.A, 0x00) // A is not dead (conservative exit seed)
}
