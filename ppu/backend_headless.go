//go:build headless

package ppu

import "sync/atomic"

// HeadlessBackend drives the Chip without opening a window: useful for CI,
// scripted test ROM runs, and the debugger REPL running over a plain
// terminal with no display attached.
type HeadlessBackend struct {
	chip       *Chip
	frameCount uint64
	onFrame    func()
}

// NewHeadless wires chip into a no-window driver.
func NewHeadless(chip *Chip) *HeadlessBackend {
	return &HeadlessBackend{chip: chip}
}

func (h *HeadlessBackend) SetFrameCallback(f func()) { h.onFrame = f }

// Run calls the frame callback in a tight loop until frames is exhausted; frames==0
// means run forever (the caller is expected to signal shutdown externally).
func (h *HeadlessBackend) Run(frames int) {
	for i := 0; frames == 0 || i < frames; i++ {
		if h.onFrame != nil {
			h.onFrame()
		}
		atomic.AddUint64(&h.frameCount, 1)
	}
}

func (h *HeadlessBackend) FrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}
