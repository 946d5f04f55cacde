// Command dmgjit runs a Game Boy ROM on the dmgjit recompiling engine.
package main

import (
	"flag"
	"fmt"
	"os"

	"dmgjit"
	"dmgjit/debug"
	"dmgjit/ppu"
	"dmgjit/rom"
)

func main() {
	romPath := flag.String("rom", "", "path to a .gb ROM image")
	scale := flag.Int("scale", 3, "integer window scale factor")
	headless := flag.Bool("headless", false, "run without opening a window (requires -headless build tag)")
	monitor := flag.Bool("monitor", false, "start attached to the stepping debugger")
	breakpoint := flag.String("breakpoint", "", "hex address to break at on startup, e.g. 0150")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dmgjit -rom path.gb [options]\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dmgjit -rom tetris.gb\n")
		fmt.Fprintf(os.Stderr, "  dmgjit -rom tetris.gb -monitor -breakpoint 0150\n")
	}
	flag.Parse()

	if *romPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cart, err := rom.Load(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmgjit: %v\n", err)
		os.Exit(1)
	}
	if !cart.Header.Valid {
		fmt.Fprintf(os.Stderr, "dmgjit: warning: %s has a bad header checksum\n", *romPath)
	}
	fmt.Printf("dmgjit: loaded %q (%d ROM banks, %d RAM bytes)\n", cart.Header.Title, cart.Header.ROMBanks, cart.Header.RAMSize)

	mmu := dmgjit.NewMMU(cart)
	chip := ppu.NewChip(mmu) // LCDC/SCY/SCX/BGP/etc. land in the MMU's raw I/O backing store, which chip reads directly
	mmu.MapIO(0xFF44, 0xFF44, func(uint16) byte { return chip.LY() }, nil)
	eng := dmgjit.NewEngine(mmu, chip, cart.Len(), cart.ReadByte)

	mon := debug.NewMonitor()
	if *breakpoint != "" {
		var addr uint16
		fmt.Sscanf(*breakpoint, "%x", &addr)
		mon.AddBreakpoint(addr)
	}

	if *monitor {
		mon.Activate()
		repl := debug.NewREPL(mon, eng)
		if err := repl.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "dmgjit: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runGraphical(eng, chip, mon, *scale, *headless)
}
