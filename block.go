// block.go - basic block and code database data model

package dmgjit

// ExitKind classifies how control leaves a basic block.
type ExitKind int

const (
	ExitFallthrough ExitKind = iota
	ExitJump
	ExitBranch
	ExitCall
	ExitReturn
	ExitHalt
	ExitIndirect
)

// BasicBlock is a maximal straight-line instruction sequence with one entry
// and one exit.
type BasicBlock struct {
	ID         uint16 // == StartAddress
	EndAddress uint16 // address of the last byte of the last instruction

	Instructions []Instruction
	ExitKind     ExitKind
	StaticTargets []uint16
}

func (b *BasicBlock) StartAddress() uint16 { return b.ID }

// Len returns the number of bytes the block spans.
func (b *BasicBlock) Len() int {
	return int(b.EndAddress) - int(b.ID) + 1
}

// CodeDatabase is the analyzer's output: every discovered block plus the
// target sets used both to split blocks and to seed entry points for later
// on-demand discovery.
type CodeDatabase struct {
	Blocks      map[uint16]*BasicBlock
	JumpTargets map[uint16]struct{}
	CallTargets map[uint16]struct{}
	EntryPoints map[uint16]struct{}
}

// NewCodeDatabase builds an empty database seeded with the fixed Game Boy
// entry points: the cartridge entry point at 0x0100 and the thirteen
// interrupt/RST vectors.
func NewCodeDatabase() *CodeDatabase {
	db := &CodeDatabase{
		Blocks:      make(map[uint16]*BasicBlock),
		JumpTargets: make(map[uint16]struct{}),
		CallTargets: make(map[uint16]struct{}),
		EntryPoints: make(map[uint16]struct{}),
	}
	for _, v := range []uint16{
		0x0100,
		0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38,
		0x40, 0x48, 0x50, 0x58, 0x60,
	} {
		db.EntryPoints[v] = struct{}{}
	}
	return db
}

func (db *CodeDatabase) addJumpTarget(a uint16) { db.JumpTargets[a] = struct{}{} }
func (db *CodeDatabase) addCallTarget(a uint16) { db.CallTargets[a] = struct{}{} }

// isKnownTarget reports whether addr is a jump target, call target, or entry
// point - the set that forces a block split during pass 2 of block formation.
func (db *CodeDatabase) isKnownTarget(addr uint16) bool {
	if _, ok := db.JumpTargets[addr]; ok {
		return true
	}
	if _, ok := db.CallTargets[addr]; ok {
		return true
	}
	if _, ok := db.EntryPoints[addr]; ok {
		return true
	}
	return false
}
