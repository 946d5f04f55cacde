// analyzer.go - two-pass static basic block analyzer

package dmgjit

// terminator reports whether a category ends a basic block: only the last
// instruction in a block may be a terminator.
func (c Category) terminator() bool {
	return c != CatNormal && c != CatInvalid
}

// AnalyzeROM runs the two-pass analyzer over read (ROM bytes bounded by
// romLen) and returns the resulting CodeDatabase.
func AnalyzeROM(read ByteReader, romLen int) *CodeDatabase {
	db := NewCodeDatabase()
	discoverTargets(read, db, romLen)
	formBlocks(read, db, romLen)
	return db
}

// discoverTargets is pass 1: BFS from every entry point, following only
// static branch/call targets and fallthrough continuations, recording every
// jump/call target it finds.
func discoverTargets(read ByteReader, db *CodeDatabase, romLen int) {
	visited := make(map[uint16]struct{})
	var worklist []uint16
	for ep := range db.EntryPoints {
		worklist = append(worklist, ep)
	}

	push := func(a uint16) { worklist = append(worklist, a) }

	for len(worklist) > 0 {
		start := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if _, ok := visited[start]; ok {
			continue
		}
		visited[start] = struct{}{}

		cur := start
		for int(cur) < romLen {
			instr := Decode(read, cur)
			next := cur + uint16(instr.Length)

			switch instr.Category {
			case CatJump:
				db.addJumpTarget(instr.Target)
				push(instr.Target)
			case CatJumpCond:
				db.addJumpTarget(instr.Target)
				push(instr.Target)
				push(next)
			case CatCall, CatCallCond, CatRst:
				db.addCallTarget(instr.Target)
				push(instr.Target)
				push(next)
			case CatRet, CatRetCond, CatRetI, CatHalt, CatJumpIndirect:
				// no static targets
			default: // CatNormal, CatInvalid: keep scanning
				cur = next
				continue
			}
			break
		}
	}
}

// formBlocks is pass 2: BFS again, this time materializing BasicBlocks and
// splitting a straight run whenever it reaches a previously-discovered
// target.
func formBlocks(read ByteReader, db *CodeDatabase, romLen int) {
	var worklist []uint16
	for ep := range db.EntryPoints {
		worklist = append(worklist, ep)
	}
	push := func(a uint16) { worklist = append(worklist, a) }

	for len(worklist) > 0 {
		start := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if _, ok := db.Blocks[start]; ok {
			continue
		}

		block := &BasicBlock{ID: start}
		cur := start
		for {
			if int(cur) >= romLen {
				block.ExitKind = ExitFallthrough
				break
			}
			instr := Decode(read, cur)
			block.Instructions = append(block.Instructions, instr)
			block.EndAddress = cur + uint16(instr.Length) - 1
			next := cur + uint16(instr.Length)

			if instr.Category.terminator() {
				switch instr.Category {
				case CatJump:
					block.ExitKind = ExitJump
					block.StaticTargets = []uint16{instr.Target}
					push(instr.Target)
				case CatJumpCond:
					block.ExitKind = ExitBranch
					block.StaticTargets = []uint16{instr.Target, next}
					push(instr.Target)
					push(next)
				case CatCall, CatCallCond, CatRst:
					block.ExitKind = ExitCall
					block.StaticTargets = []uint16{instr.Target, next}
					push(instr.Target)
					push(next)
				case CatRet, CatRetCond, CatRetI:
					block.ExitKind = ExitReturn
				case CatHalt:
					block.ExitKind = ExitHalt
				case CatJumpIndirect:
					block.ExitKind = ExitIndirect
				}
				break
			}

			if db.isKnownTarget(next) {
				block.ExitKind = ExitFallthrough
				block.StaticTargets = []uint16{next}
				push(next)
				break
			}
			cur = next
		}
		db.Blocks[start] = block
	}
}
