package debug

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.design/x/clipboard"
	"golang.org/x/term"

	"dmgjit"
)

// REPL drives a single-keystroke stepping session over stdin, raw-mode the
// way the teacher's terminal host puts stdin in raw mode for its own
// keystroke-at-a-time MMIO device.
type REPL struct {
	Monitor *Monitor
	Engine  *dmgjit.Engine

	fd           int
	oldState     *term.State
	clipboardOK  bool
}

func NewREPL(mon *Monitor, eng *dmgjit.Engine) *REPL {
	return &REPL{Monitor: mon, Engine: eng, fd: int(os.Stdin.Fd())}
}

// Run puts stdin in raw mode and processes keystrokes until "q" is
// pressed or stdin closes, restoring the terminal on return.
func (r *REPL) Run() error {
	r.clipboardOK = clipboard.Init() == nil

	if term.IsTerminal(r.fd) {
		old, err := term.MakeRaw(r.fd)
		if err != nil {
			return fmt.Errorf("debug: repl: %w", err)
		}
		r.oldState = old
		defer term.Restore(r.fd, r.oldState)
	}

	reader := bufio.NewReader(os.Stdin)
	r.printHelp()
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return nil
		}
		if !r.handleKey(b, reader) {
			return nil
		}
	}
}

func (r *REPL) printHelp() {
	fmt.Fprint(os.Stdout, "\r\ns=step c=continue b=breakpoint r=registers y=copy q=quit\r\n")
}

// handleKey processes one keystroke, returning false to end the session.
func (r *REPL) handleKey(b byte, reader *bufio.Reader) bool {
	switch b {
	case 'q':
		return false
	case 's':
		r.Monitor.Freeze()
		r.Engine.ExecuteFrame()
		r.printSnapshot()
	case 'c':
		r.Monitor.Resume()
		fmt.Fprint(os.Stdout, "\r\ncontinuing\r\n")
	case 'r':
		r.printSnapshot()
	case 'b':
		addr := r.readHexLine(reader)
		r.Monitor.AddBreakpoint(addr)
		fmt.Fprintf(os.Stdout, "\r\nbreakpoint set at $%04X\r\n", addr)
	case 'y':
		r.copySnapshot()
	}
	return true
}

func (r *REPL) readHexLine(reader *bufio.Reader) uint16 {
	fmt.Fprint(os.Stdout, "\r\naddr> ")
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.TrimPrefix(line, "$"))
	v, _ := strconv.ParseUint(line, 16, 16)
	return uint16(v)
}

func (r *REPL) printSnapshot() {
	snap := Capture(&r.Engine.CPU, func(a uint16) byte { return r.Engine.MMU.Read8(a) })
	fmt.Fprintf(os.Stdout, "\r\n%s\r\n", snap.Registers)
	for _, line := range snap.Listing {
		fmt.Fprintf(os.Stdout, "%s\r\n", line)
	}
}

func (r *REPL) copySnapshot() {
	if !r.clipboardOK {
		fmt.Fprint(os.Stdout, "\r\nclipboard unavailable\r\n")
		return
	}
	snap := Capture(&r.Engine.CPU, func(a uint16) byte { return r.Engine.MMU.Read8(a) })
	text := snap.Registers + "\n" + strings.Join(snap.Listing, "\n")
	clipboard.Write(clipboard.FmtText, []byte(text))
	fmt.Fprint(os.Stdout, "\r\ncopied\r\n")
}
