// engine.go - the recompilation engine: code cache, dispatcher, frame loop

package dmgjit

// CyclesPerFrame is the DMG's fixed per-frame budget: 154 scanlines of 456
// dots each, at 4 dots per machine cycle equivalent used throughout this
// package (1 "cycle" here is one dot, matching the decoder's Cycles field).
const CyclesPerFrame = 70224

// romAddressSpace is the CPU's fixed ROM/RAM boundary: addresses below this
// are ROM (bank 0 plus the switchable window), addresses at or above it are
// VRAM/external RAM/WRAM/OAM/IO/HRAM. This is a CPU address, never the
// cartridge file's byte count - a banked cartridge is routinely hundreds of
// KB larger than the 16-bit address space it's windowed into.
const romAddressSpace = 0x8000

// PPUStepper is satisfied by the ppu package's chip: the engine only needs
// to advance it by a dot count and learn whether it raised an interrupt.
type PPUStepper interface {
	Step(dots int) (vblank, statIRQ bool)
}

// cacheEntry is either a compiled block (ROM-resident, safe to cache
// forever) or a marker that addr must go through the interpreter because
// the underlying bytes are writable and may change.
type cacheEntry struct {
	compiled   CompiledBlock
	interpret  bool
}

// Engine owns the guest CPU/memory/video state and drives execution one
// frame at a time.
type Engine struct {
	CPU   CPUState
	MMU   *MMU
	PPU   PPUStepper
	Stats Stats

	db    *CodeDatabase
	cfg   *ControlFlowGraph
	cache map[uint16]*cacheEntry

	romLen int
	rom    ByteReader
}

// NewEngine wires a cartridge-backed MMU and the PPU collaborator together;
// romLen and a raw ROM byte reader are needed separately from the MMU
// because analysis must read banked ROM addresses without going through
// live MBC bank-switch state (with cmd/dmgjit's rom.Cartridge.ReadByte the
// analyzer reads the image's raw bytes, so 0x4000-0x7FFF is always the
// image's bank 1, whatever bank is switched in). romLen is the
// cartridge's raw byte count (rom/loader.go's Cartridge.Len, typically
// 64KB+ for any real MBC1 image) and is only ever used to cap how far the
// static analyzer is willing to read; it is clamped to romAddressSpace
// here since nothing above 0x7FFF is ever static ROM, regardless of how
// large the underlying file is.
func NewEngine(mmu *MMU, ppu PPUStepper, romLen int, rom ByteReader) *Engine {
	scanLen := romLen
	if scanLen > romAddressSpace {
		scanLen = romAddressSpace
	}
	e := &Engine{
		MMU:    mmu,
		PPU:    ppu,
		cache:  make(map[uint16]*cacheEntry),
		romLen: scanLen,
		rom:    rom,
	}
	e.CPU.Reset()
	e.db = AnalyzeROM(rom, scanLen)
	e.cfg = BuildCFG(e.db)
	return e
}

// ExecuteFrame runs guest code and services interrupts until CyclesPerFrame
// dots have elapsed, then returns. The PPU is stepped in lockstep with
// every dispatched chunk of cycles so scanline-timing-sensitive ROMs see a
// consistent LY/STAT progression.
func (e *Engine) ExecuteFrame() {
	budget := CyclesPerFrame
	for budget > 0 {
		cycles, irqCycles := e.dispatchTurn()
		spent := cycles + irqCycles
		if spent == 0 {
			spent = 4 // a halted CPU still burns a cycle waiting for an interrupt
		}
		budget -= spent
		e.CPU.Cycles += uint64(spent)
		e.Stats.recordExecute(spent)

		if vblank, stat := e.PPU.Step(spent); vblank || stat {
			if vblank {
				RequestInterrupt(e.MMU, IntVBlank)
			}
			if stat {
				RequestInterrupt(e.MMU, IntLCDStat)
			}
		}
	}
}

// dispatchTurn services a pending interrupt if any, then executes exactly
// one compiled block, interpreter fallback, or single interpreted
// instruction, in that priority order.
func (e *Engine) dispatchTurn() (executed, interrupt int) {
	irqCycles, serviced := ServiceInterrupts(&e.CPU, e.MMU)
	if serviced {
		e.Stats.recordInterrupt()
	}
	if e.CPU.Halted {
		return 0, irqCycles
	}

	entry := e.lookup(e.CPU.PC)
	if entry.interpret {
		instr := Decode(func(a uint16) byte { return e.MMU.Read8(a) }, e.CPU.PC)
		res := Execute(&e.CPU, e.MMU, instr)
		if res.Err != nil {
			e.Stats.recordInterpreterUnknown()
		}
		e.Stats.recordInterpreterFallback()
		return res.Cycles, irqCycles
	}

	cycles, err := entry.compiled(&e.CPU, e.MMU)
	if err != nil {
		e.Stats.recordCompileFailure()
	}
	return cycles, irqCycles
}

// lookup returns the cache entry for addr, compiling it on first reference.
// Addresses outside ROM (writable RAM/HRAM, where self-modifying bytes
// could invalidate a cached translation) always go to the interpreter
// instead of being cached as a compiled block.
func (e *Engine) lookup(addr uint16) *cacheEntry {
	if entry, ok := e.cache[addr]; ok {
		e.Stats.recordHit()
		return entry
	}
	return e.compile(addr)
}

func (e *Engine) compile(addr uint16) *cacheEntry {
	if addr >= romAddressSpace {
		entry := &cacheEntry{interpret: true}
		e.cache[addr] = entry
		e.Stats.recordMiss()
		return entry
	}

	block, ok := e.db.Blocks[addr]
	if !ok {
		// Address wasn't reached by the static sweep (e.g. a computed
		// JP (HL) target) - analyze on demand from this entry point.
		e.db.EntryPoints[addr] = struct{}{}
		discoverTargets(e.rom, e.db, e.romLen)
		formBlocks(e.rom, e.db, e.romLen)
		e.cfg = BuildCFG(e.db)
		block = e.db.Blocks[addr]
	}
	if block == nil {
		entry := &cacheEntry{interpret: true}
		e.cache[addr] = entry
		e.Stats.recordMiss()
		return entry
	}

	fl := AnalyzeFlagLiveness(e.db, e.cfg)
	rl := AnalyzeRegisterLiveness(e.db, e.cfg)
	cp := AnalyzeConstants(e.db, e.cfg)

	compiled := TranspileBlock(block, fl, rl, cp)
	entry := &cacheEntry{compiled: compiled}
	e.cache[addr] = entry
	e.Stats.recordCompile()
	e.Stats.recordMiss()
	return entry
}

// InvalidateRange drops every cache entry whose start address lies in
// [start, end]; a block that starts before start but extends into the range
// is kept. Nothing in the package calls it, and a bank switch neither
// invalidates the cache nor re-derives the code database.
func (e *Engine) InvalidateRange(start, end uint16) {
	for addr := range e.cache {
		if addr >= start && addr <= end {
			delete(e.cache, addr)
		}
	}
}
