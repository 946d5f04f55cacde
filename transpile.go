// transpile.go - block transpiler. Builds one Go closure per basic block at
// discovery time, made of per-instruction micro-op closures that have
// already consulted the flag/register liveness and constant propagation
// results, rather than re-deriving them on every execution.

package dmgjit

// CompiledBlock is the transpiler's output: a host routine that runs one
// guest basic block to completion and reports the cycles it consumed.
type CompiledBlock func(c *CPUState, m *MMU) (cycles int, err *EngineError)

// microOp is one instruction's pre-resolved execution step.
type microOp func(c *CPUState, m *MMU) int

// TranspileBlock builds a CompiledBlock for b, folding any operand the
// constant analysis proved single-valued at that point and suppressing any
// flag or register write the liveness analyses proved dead within the
// analyzed region.
func TranspileBlock(b *BasicBlock, fl *FlagLiveness, rl *RegisterLiveness, cp *ConstantPropagation) CompiledBlock {
	ops := make([]microOp, len(b.Instructions))
	for i, instr := range b.Instructions {
		ops[i] = buildMicroOp(b.ID, i, instr, fl, rl, cp)
	}
	return func(c *CPUState, m *MMU) (int, *EngineError) {
		total := 0
		for _, op := range ops {
			total += op(c, m)
		}
		return total, nil
	}
}

// buildMicroOp resolves instr once, at transpile time, into a closure that
// the compiled block calls on every execution.
func buildMicroOp(blockID uint16, idx int, instr Instruction, fl *FlagLiveness, rl *RegisterLiveness, cp *ConstantPropagation) microOp {
	folded := foldConstantOperand(blockID, idx, instr, cp)

	_, writesFlags := flagsBehavior(folded)
	flagsDead := writesFlags != 0 && fl.LiveAfterInstr(blockID, idx)&writesFlags == 0

	_, writesRegs := registersBehavior(folded)
	deadRegMask := writesRegs &^ rl.LiveAfterInstr(blockID, idx)

	return func(c *CPUState, m *MMU) int {
		preF := c.F
		preRegs := snapshotRegs(c, deadRegMask)

		res := Execute(c, m, folded)

		if flagsDead {
			c.F = preF
		}
		restoreDeadRegs(c, deadRegMask, preRegs)
		return res.Cycles
	}
}

// foldConstantOperand replaces instr's Src with an immediate when the
// constant analysis proved its value is fixed at this program point. Only
// a plain register Src is folded, from the state just before the
// instruction executes (the AfterState slot indexed one instruction
// earlier, or the block's entry state at index 0).
func foldConstantOperand(blockID uint16, idx int, instr Instruction, cp *ConstantPropagation) Instruction {
	if instr.Src.Kind != OpReg {
		return instr
	}
	var known bool
	var v byte
	if idx == 0 {
		st := cp.EntryState[blockID]
		l := st[instr.Src.Reg]
		known, v = l.Known && !l.Top, l.Value
	} else {
		v, known = cp.ConstantAt(blockID, idx-1, instr.Src.Reg)
	}
	if !known {
		return instr
	}
	instr.Src = Operand{Kind: OpImm8, Imm8: v}
	return instr
}

func snapshotRegs(c *CPUState, mask uint16) [7]byte {
	var s [7]byte
	if mask&RegBitA != 0 {
		s[0] = c.A
	}
	if mask&RegBitB != 0 {
		s[1] = c.B
	}
	if mask&RegBitC != 0 {
		s[2] = c.C
	}
	if mask&RegBitD != 0 {
		s[3] = c.D
	}
	if mask&RegBitE != 0 {
		s[4] = c.E
	}
	if mask&RegBitH != 0 {
		s[5] = c.H
	}
	if mask&RegBitL != 0 {
		s[6] = c.L
	}
	return s
}

func restoreDeadRegs(c *CPUState, mask uint16, s [7]byte) {
	if mask == 0 {
		return
	}
	if mask&RegBitA != 0 {
		c.A = s[0]
	}
	if mask&RegBitB != 0 {
		c.B = s[1]
	}
	if mask&RegBitC != 0 {
		c.C = s[2]
	}
	if mask&RegBitD != 0 {
		c.D = s[3]
	}
	if mask&RegBitE != 0 {
		c.E = s[4]
	}
	if mask&RegBitH != 0 {
		c.H = s[5]
	}
	if mask&RegBitL != 0 {
		c.L = s[6]
	}
}
