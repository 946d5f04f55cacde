//go:build !headless

package main

import (
	"fmt"
	"os"

	"dmgjit"
	"dmgjit/debug"
	"dmgjit/ppu"
)

func runGraphical(eng *dmgjit.Engine, chip *ppu.Chip, mon *debug.Monitor, scale int, headless bool) {
	if headless {
		fmt.Fprintln(os.Stderr, "dmgjit: -headless requires a build with the \"headless\" build tag")
		os.Exit(1)
	}
	backend := ppu.NewEbitenBackend(chip, scale)
	backend.SetFrameCallback(func() {
		if !mon.IsFrozen() {
			eng.ExecuteFrame()
		}
	})
	backend.SetCopyText(func() string {
		return debug.RegisterDump(&eng.CPU)
	})
	if err := backend.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dmgjit: %v\n", err)
		os.Exit(1)
	}
}
