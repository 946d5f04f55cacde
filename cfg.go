// cfg.go - control-flow graph construction, dominators, loop detection

package dmgjit

// CFGNode wraps a block with its predecessor/successor edges.
type CFGNode struct {
	Block        *BasicBlock
	Predecessors map[uint16]struct{}
	Successors   map[uint16]struct{}
}

// Loop is a natural loop discovered from a back edge.
type Loop struct {
	Header   uint16
	Body     map[uint16]struct{}
	BackEdges [][2]uint16 // (u, v) with v == Header
}

// ControlFlowGraph is built from a CodeDatabase's blocks.
type ControlFlowGraph struct {
	Nodes      map[uint16]*CFGNode
	EntryPoint uint16
	Loops      []Loop
	Dominators map[uint16]map[uint16]struct{}
}

// successorsOf derives CFG successors from a block's ExitKind.
func successorsOf(b *BasicBlock) []uint16 {
	switch b.ExitKind {
	case ExitJump:
		return b.StaticTargets
	case ExitBranch:
		return b.StaticTargets
	case ExitCall:
		return b.StaticTargets
	case ExitFallthrough:
		if len(b.StaticTargets) == 1 {
			return b.StaticTargets
		}
		return []uint16{b.EndAddress + 1}
	default: // return, halt, indirect
		return nil
	}
}

// BuildCFG constructs the graph for every block in db, wiring predecessor
// and successor sets.
func BuildCFG(db *CodeDatabase) *ControlFlowGraph {
	cfg := &ControlFlowGraph{
		Nodes:      make(map[uint16]*CFGNode, len(db.Blocks)),
		EntryPoint: 0x0100,
	}
	for addr, b := range db.Blocks {
		cfg.Nodes[addr] = &CFGNode{
			Block:        b,
			Predecessors: make(map[uint16]struct{}),
			Successors:   make(map[uint16]struct{}),
		}
	}
	for addr, node := range cfg.Nodes {
		for _, succ := range successorsOf(node.Block) {
			if _, ok := cfg.Nodes[succ]; !ok {
				continue // target outside the analyzed set (e.g. RAM) - not our concern here
			}
			node.Successors[succ] = struct{}{}
			cfg.Nodes[succ].Predecessors[addr] = struct{}{}
		}
	}
	cfg.Dominators = computeDominators(cfg)
	cfg.Loops = findLoops(cfg)
	return cfg
}

// Reachable returns the set of block addresses reachable from the entry
// point by forward traversal. Analyses only need to iterate this subset.
func (cfg *ControlFlowGraph) Reachable() map[uint16]struct{} {
	seen := map[uint16]struct{}{cfg.EntryPoint: {}}
	stack := []uint16{cfg.EntryPoint}
	for len(stack) > 0 {
		a := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, ok := cfg.Nodes[a]
		if !ok {
			continue
		}
		for s := range node.Successors {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				stack = append(stack, s)
			}
		}
	}
	return seen
}

// computeDominators runs the classic iterative worklist algorithm:
// dom(entry)={entry}; dom(n)=all nodes for others; repeatedly narrow by
// intersection of predecessor dominator sets plus self, to a fixpoint.
func computeDominators(cfg *ControlFlowGraph) map[uint16]map[uint16]struct{} {
	all := make(map[uint16]struct{}, len(cfg.Nodes))
	for a := range cfg.Nodes {
		all[a] = struct{}{}
	}

	dom := make(map[uint16]map[uint16]struct{}, len(cfg.Nodes))
	for a := range cfg.Nodes {
		if a == cfg.EntryPoint {
			dom[a] = map[uint16]struct{}{a: {}}
		} else {
			dom[a] = cloneSet(all)
		}
	}

	changed := true
	for changed {
		changed = false
		for a, node := range cfg.Nodes {
			if a == cfg.EntryPoint {
				continue
			}
			var newDom map[uint16]struct{}
			first := true
			for p := range node.Predecessors {
				if first {
					newDom = cloneSet(dom[p])
					first = false
					continue
				}
				newDom = intersectSet(newDom, dom[p])
			}
			if first {
				// unreachable node: no predecessors observed yet
				continue
			}
			newDom[a] = struct{}{}
			if !setEqual(newDom, dom[a]) {
				dom[a] = newDom
				changed = true
			}
		}
	}
	return dom
}

func cloneSet(s map[uint16]struct{}) map[uint16]struct{} {
	out := make(map[uint16]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func intersectSet(a, b map[uint16]struct{}) map[uint16]struct{} {
	out := make(map[uint16]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func setEqual(a, b map[uint16]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// findLoops locates back edges (u -> v where v dominates u) and groups them
// by header. Edges out of blocks unreachable from the entry are skipped,
// since their dominator sets are never narrowed below "every node".
func findLoops(cfg *ControlFlowGraph) []Loop {
	byHeader := make(map[uint16]*Loop)
	var headers []uint16
	reachable := cfg.Reachable()

	for u, node := range cfg.Nodes {
		if _, ok := reachable[u]; !ok {
			continue
		}
		for v := range node.Successors {
			if _, ok := cfg.Dominators[u][v]; !ok {
				continue
			}
			lp, ok := byHeader[v]
			if !ok {
				lp = &Loop{Header: v, Body: map[uint16]struct{}{v: {}}}
				byHeader[v] = lp
				headers = append(headers, v)
			}
			lp.BackEdges = append(lp.BackEdges, [2]uint16{u, v})
			addLoopBody(cfg, lp, u, v)
		}
	}

	loops := make([]Loop, 0, len(headers))
	for _, h := range headers {
		loops = append(loops, *byHeader[h])
	}
	return loops
}

// addLoopBody unions {v} with every node that can reach u without passing
// through v.
func addLoopBody(cfg *ControlFlowGraph, lp *Loop, u, v uint16) {
	if _, ok := lp.Body[u]; ok {
		return
	}
	lp.Body[u] = struct{}{}
	stack := []uint16{u}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, ok := cfg.Nodes[n]
		if !ok {
			continue
		}
		for p := range node.Predecessors {
			if p == v {
				continue
			}
			if _, ok := lp.Body[p]; ok {
				continue
			}
			lp.Body[p] = struct{}{}
			stack = append(stack, p)
		}
	}
}
