//go:build headless

package main

import (
	"dmgjit"
	"dmgjit/debug"
	"dmgjit/ppu"
)

func runGraphical(eng *dmgjit.Engine, chip *ppu.Chip, mon *debug.Monitor, scale int, headless bool) {
	backend := ppu.NewHeadless(chip)
	backend.SetFrameCallback(func() {
		if !mon.IsFrozen() {
			eng.ExecuteFrame()
		}
	})
	backend.Run(0)
}
