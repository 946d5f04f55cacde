// interpreter.go - per-instruction execution. Used directly as the
// writable-memory fallback path, and as the semantic reference the
// transpiler's generated closures delegate to.

package dmgjit

// get8 reads an 8-bit operand's value, resolving indirect addressing and
// applying any HL+/HL- post-adjustment.
func get8(c *CPUState, m *MMU, o Operand) byte {
	switch o.Kind {
	case OpReg:
		return regRead8(c, o.Reg)
	case OpImm8:
		return o.Imm8
	case OpIndirectReg:
		addr := indirectAddr(c, o)
		v := m.Read8(addr)
		applyHLInc(c, o)
		return v
	case OpIndirectImm8:
		return m.Read8(0xFF00 + uint16(o.Imm8))
	case OpIndirectImm16:
		return m.Read8(o.Imm16)
	case OpRelative8:
		return o.Imm8
	}
	return 0
}

func set8(c *CPUState, m *MMU, o Operand, v byte) {
	switch o.Kind {
	case OpReg:
		regWrite8(c, o.Reg, v)
	case OpIndirectReg:
		addr := indirectAddr(c, o)
		m.Write8(addr, v)
		applyHLInc(c, o)
	case OpIndirectImm8:
		m.Write8(0xFF00+uint16(o.Imm8), v)
	case OpIndirectImm16:
		m.Write8(o.Imm16, v)
	}
}

func indirectAddr(c *CPUState, o Operand) uint16 {
	if o.Pair != PairNone {
		return pairRead16(c, o.Pair)
	}
	return 0xFF00 + uint16(c.C) // (C) form
}

func applyHLInc(c *CPUState, o Operand) {
	if o.Pair == PairHL && o.HLInc != 0 {
		c.SetHL(c.HL() + uint16(o.HLInc))
	}
}

func regRead8(c *CPUState, r Reg8) byte {
	switch r {
	case RegA:
		return c.A
	case RegB:
		return c.B
	case RegC:
		return c.C
	case RegD:
		return c.D
	case RegE:
		return c.E
	case RegH:
		return c.H
	case RegL:
		return c.L
	}
	return 0
}

func regWrite8(c *CPUState, r Reg8, v byte) {
	switch r {
	case RegA:
		c.A = v
	case RegB:
		c.B = v
	case RegC:
		c.C = v
	case RegD:
		c.D = v
	case RegE:
		c.E = v
	case RegH:
		c.H = v
	case RegL:
		c.L = v
	}
}

func pairRead16(c *CPUState, p RegPair) uint16 {
	switch p {
	case PairBC:
		return c.BC()
	case PairDE:
		return c.DE()
	case PairHL:
		return c.HL()
	case PairSP:
		return c.SP
	case PairAF:
		return c.AF()
	}
	return 0
}

func pairWrite16(c *CPUState, p RegPair, v uint16) {
	switch p {
	case PairBC:
		c.SetBC(v)
	case PairDE:
		c.SetDE(v)
	case PairHL:
		c.SetHL(v)
	case PairSP:
		c.SP = v
	case PairAF:
		c.SetAF(v)
	}
}

func get16(c *CPUState, o Operand) uint16 {
	switch o.Kind {
	case OpRegPair:
		return pairRead16(c, o.Pair)
	case OpImm16:
		return o.Imm16
	}
	return 0
}

func conditionHolds(c *CPUState, cond Condition) bool {
	switch cond {
	case CondZ:
		return c.Flag(FlagZ)
	case CondNZ:
		return !c.Flag(FlagZ)
	case CondC:
		return c.Flag(FlagC)
	case CondNC:
		return !c.Flag(FlagC)
	}
	return true
}

// StepResult reports what Execute did, so the dispatcher can charge the
// right cycle count and know whether control left the current block.
type StepResult struct {
	Cycles   int
	Branched bool // conditional branch/call/return actually taken
	Err      *EngineError
}

// Execute runs one instruction, mutating c and m in place.
func Execute(c *CPUState, m *MMU, instr Instruction) StepResult {
	cycles := instr.Cycles
	res := StepResult{Cycles: cycles}

	switch instr.Mnemonic {
	case "NOP":
	case "HALT":
		c.Halted = true
	case "STOP":
		c.Stopped = true
	case "DI":
		c.IME = false
		c.imeDelay = 0
	case "EI":
		c.RequestEnableInterrupts()
	case "LD":
		execLD(c, m, instr)
	case "LDH":
		set8(c, m, instr.Dst, get8(c, m, instr.Src))
	case "PUSH":
		c.SP -= 2
		m.Write16(c.SP, get16(c, instr.Src))
	case "POP":
		v := m.Read16(c.SP)
		c.SP += 2
		pairWrite16(c, instr.Dst.Pair, v)
	case "ADD":
		execADD(c, m, instr)
	case "ADC":
		a, f := add8(c.A, get8(c, m, instr.Src), c.Flag(FlagC))
		c.A, c.F = a, f
	case "SUB":
		a, f := sub8(c.A, get8(c, m, instr.Src), false)
		c.A, c.F = a, f
	case "SBC":
		a, f := sub8(c.A, get8(c, m, instr.Src), c.Flag(FlagC))
		c.A, c.F = a, f
	case "AND":
		a, f := and8(c.A, get8(c, m, instr.Src))
		c.A, c.F = a, f
	case "OR":
		a, f := or8(c.A, get8(c, m, instr.Src))
		c.A, c.F = a, f
	case "XOR":
		a, f := xor8(c.A, get8(c, m, instr.Src))
		c.A, c.F = a, f
	case "CP":
		c.F = cp8(c.A, get8(c, m, instr.Src))
	case "INC":
		execINC(c, m, instr)
	case "DEC":
		execDEC(c, m, instr)
	case "DAA":
		a, f := daa(c.A, c.Flag(FlagN), c.Flag(FlagH), c.Flag(FlagC))
		c.A, c.F = a, f
	case "CPL":
		c.A = cpl(c.A)
		c.SetFlag(FlagN, true)
		c.SetFlag(FlagH, true)
	case "SCF":
		c.SetFlag(FlagN, false)
		c.SetFlag(FlagH, false)
		c.SetFlag(FlagC, true)
	case "CCF":
		c.SetFlag(FlagN, false)
		c.SetFlag(FlagH, false)
		c.SetFlag(FlagC, !c.Flag(FlagC))
	case "RLCA":
		a, f := rlc(c.A)
		c.A, c.F = a, f&^FlagZ
	case "RRCA":
		a, f := rrc(c.A)
		c.A, c.F = a, f&^FlagZ
	case "RLA":
		a, f := rl(c.A, c.Flag(FlagC))
		c.A, c.F = a, f&^FlagZ
	case "RRA":
		a, f := rr(c.A, c.Flag(FlagC))
		c.A, c.F = a, f&^FlagZ
	case "RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL":
		execCBRotate(c, m, instr)
	case "BIT":
		v := get8(c, m, instr.Dst)
		c.F = (c.F & FlagC) | bitTest(v, instr.BitIndex)
	case "RES":
		set8(c, m, instr.Dst, resBit(get8(c, m, instr.Dst), instr.BitIndex))
	case "SET":
		set8(c, m, instr.Dst, setBit(get8(c, m, instr.Dst), instr.BitIndex))
	case "JP":
		res.Branched = execJP(c, instr)
	case "JR":
		res.Branched = execJR(c, instr)
	case "CALL":
		res.Branched = execCALL(c, m, instr)
	case "RET":
		res.Branched = execRET(c, m, instr)
	case "RETI":
		execRET(c, m, instr)
		c.IME = true
		res.Branched = true
	case "RST":
		c.SP -= 2
		m.Write16(c.SP, instr.Address+uint16(instr.Length))
		c.PC = instr.Target
	default:
		res.Err = newEngineError(ErrInterpreterUnknownOpcode, instr.Address, instr.Mnemonic)
	}

	if res.Branched {
		res.Cycles = instr.Cycles + instr.Branch
	}

	if res.Err == nil {
		switch instr.Category {
		case CatNormal, CatHalt, CatInvalid:
			c.PC = instr.Address + uint16(instr.Length)
		case CatJumpCond, CatCallCond, CatRetCond:
			if !res.Branched {
				c.PC = instr.Address + uint16(instr.Length)
			}
		}
	}
	c.tickIME()
	return res
}

func execLD(c *CPUState, m *MMU, instr Instruction) {
	switch {
	case instr.Dst.Kind == OpIndirectImm16 && instr.Src.Kind == OpRegPair && instr.Src.Pair == PairSP:
		m.Write16(instr.Dst.Imm16, c.SP)
	case instr.Dst.Kind == OpRegPair && instr.Src.Kind == OpRelative8: // LD HL,SP+r8
		v, f := addSPSigned(c.SP, instr.Src.Imm8)
		pairWrite16(c, instr.Dst.Pair, v)
		c.F = f
	case instr.Dst.Kind == OpRegPair && instr.Src.Kind == OpRegPair:
		pairWrite16(c, instr.Dst.Pair, pairRead16(c, instr.Src.Pair))
	case instr.Dst.Kind == OpRegPair:
		pairWrite16(c, instr.Dst.Pair, get16(c, instr.Src))
	default:
		set8(c, m, instr.Dst, get8(c, m, instr.Src))
	}
}

func execADD(c *CPUState, m *MMU, instr Instruction) {
	switch {
	case instr.Dst.Kind == OpRegPair && instr.Dst.Pair == PairHL:
		v, f := addHL16(c.HL(), pairRead16(c, instr.Src.Pair))
		c.SetHL(v)
		c.F = (c.F & FlagZ) | f
	case instr.Dst.Kind == OpRegPair && instr.Dst.Pair == PairSP:
		v, f := addSPSigned(c.SP, instr.Src.Imm8)
		c.SP = v
		c.F = f
	default:
		a, f := add8(c.A, get8(c, m, instr.Src), false)
		c.A, c.F = a, f
	}
}

func execINC(c *CPUState, m *MMU, instr Instruction) {
	if instr.Dst.Kind == OpRegPair {
		pairWrite16(c, instr.Dst.Pair, pairRead16(c, instr.Dst.Pair)+1)
		return
	}
	v := get8(c, m, instr.Dst)
	r, f := inc8(v, c.Flag(FlagC))
	set8(c, m, instr.Dst, r)
	c.F = f
}

func execDEC(c *CPUState, m *MMU, instr Instruction) {
	if instr.Dst.Kind == OpRegPair {
		pairWrite16(c, instr.Dst.Pair, pairRead16(c, instr.Dst.Pair)-1)
		return
	}
	v := get8(c, m, instr.Dst)
	r, f := dec8(v, c.Flag(FlagC))
	set8(c, m, instr.Dst, r)
	c.F = f
}

func execCBRotate(c *CPUState, m *MMU, instr Instruction) {
	v := get8(c, m, instr.Dst)
	var r, f byte
	switch instr.Mnemonic {
	case "RLC":
		r, f = rlc(v)
	case "RRC":
		r, f = rrc(v)
	case "RL":
		r, f = rl(v, c.Flag(FlagC))
	case "RR":
		r, f = rr(v, c.Flag(FlagC))
	case "SLA":
		r, f = sla(v)
	case "SRA":
		r, f = sra(v)
	case "SWAP":
		r, f = swap(v)
	case "SRL":
		r, f = srl(v)
	}
	set8(c, m, instr.Dst, r)
	c.F = f
}

func execJP(c *CPUState, instr Instruction) bool {
	if instr.Category == CatJumpIndirect {
		c.PC = c.HL()
		return true
	}
	if instr.Dst.Kind == OpCondition {
		if !conditionHolds(c, instr.Dst.Cond) {
			return false
		}
	}
	c.PC = instr.Target
	return true
}

func execJR(c *CPUState, instr Instruction) bool {
	if instr.Dst.Kind == OpCondition && !conditionHolds(c, instr.Dst.Cond) {
		return false
	}
	c.PC = instr.Target
	return true
}

func execCALL(c *CPUState, m *MMU, instr Instruction) bool {
	if instr.Dst.Kind == OpCondition && !conditionHolds(c, instr.Dst.Cond) {
		return false
	}
	c.SP -= 2
	m.Write16(c.SP, instr.Address+uint16(instr.Length))
	c.PC = instr.Target
	return true
}

func execRET(c *CPUState, m *MMU, instr Instruction) bool {
	if instr.Dst.Kind == OpCondition && !conditionHolds(c, instr.Dst.Cond) {
		return false
	}
	c.PC = m.Read16(c.SP)
	c.SP += 2
	return true
}
