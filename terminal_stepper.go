package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Readm/pipeview/control"
	"github.com/Readm/pipeview/ingest"
)

// stepAction is what one key press or input line asks the stepper to do.
type stepAction struct {
	command control.CommandType
	quit    bool
}

// keyAction maps a raw-mode key sequence to an action.
func keyAction(key []byte) (stepAction, bool) {
	if len(key) == 0 {
		return stepAction{}, false
	}
	if len(key) >= 3 && key[0] == 0x1b && key[1] == '[' {
		switch key[2] {
		case 'C':
			return stepAction{command: control.CommandAdvance}, true
		case 'D':
			return stepAction{command: control.CommandRetreat}, true
		}
		return stepAction{}, false
	}
	switch key[0] {
	case 's':
		return stepAction{command: control.CommandStart}, true
	case 'n', ' ':
		return stepAction{command: control.CommandAdvance}, true
	case 'p':
		return stepAction{command: control.CommandRetreat}, true
	case 'e':
		return stepAction{command: control.CommandEnd}, true
	case 'r':
		return stepAction{command: control.CommandReset}, true
	case 'R':
		return stepAction{command: control.CommandReload}, true
	case 'q', 0x03, 0x04:
		return stepAction{quit: true}, true
	}
	return stepAction{}, false
}

// lineAction maps a line of non-interactive input to an action. Single keys
// and full command names are both accepted.
func lineAction(line string) (stepAction, bool) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return stepAction{}, false
	case "quit", "exit":
		return stepAction{quit: true}, true
	case "next":
		return stepAction{command: control.CommandAdvance}, true
	case "prev":
		return stepAction{command: control.CommandRetreat}, true
	}
	if len(line) == 1 {
		return keyAction([]byte(line))
	}
	kind, err := control.ParseCommandType(strings.ToLower(line))
	if err != nil {
		return stepAction{}, false
	}
	return stepAction{command: kind}, true
}

// Stepper reveals a trace cycle by cycle in the terminal.
type Stepper struct {
	app    *App
	stream ingest.Stream
	in     io.Reader
	out    io.Writer
	raw    bool
}

// NewStepper creates a stepper over stream reading keys from in.
func NewStepper(app *App, stream ingest.Stream, in io.Reader, out io.Writer) *Stepper {
	return &Stepper{app: app, stream: stream, in: in, out: out}
}

// Run processes input until quit, EOF or ctx cancellation. Raw mode is used
// when in is a terminal.
func (s *Stepper) Run(ctx context.Context) error {
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), oldState) }()
		s.raw = true
		return s.runRaw(ctx)
	}
	return s.runLines(ctx)
}

func (s *Stepper) runRaw(ctx context.Context) error {
	s.draw()
	buf := make([]byte, 8)
	for ctx.Err() == nil {
		n, err := s.in.Read(buf)
		if n > 0 {
			action, ok := keyAction(buf[:n])
			if ok {
				if action.quit {
					return nil
				}
				s.apply(action.command)
				s.draw()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Stepper) runLines(ctx context.Context) error {
	s.draw()
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		action, ok := lineAction(scanner.Text())
		if !ok {
			s.print("unknown command; use s, n, p, e, r, R or q")
			continue
		}
		if action.quit {
			return nil
		}
		s.apply(action.command)
		s.draw()
	}
	return scanner.Err()
}

func (s *Stepper) apply(kind control.CommandType) {
	cmd := control.Command{Type: kind, Stream: string(s.stream)}
	if kind == control.CommandReload {
		cmd.Stream = ""
	}
	s.app.HandleCommand(cmd)
}

func (s *Stepper) draw() {
	if s.raw {
		fmt.Fprint(s.out, "\x1b[H\x1b[2J")
	}
	s.print(s.frame())
}

// frame renders the revealed grid, the current cycle card and the key help.
func (s *Stepper) frame() string {
	ds, err := s.app.Dataset(s.stream)
	if err != nil {
		return fmt.Sprintf("[%s] %s: %v", s.stream, errorStatus(err), err)
	}
	c, err := s.app.navigator.Cursor(s.stream)
	if err != nil {
		return err.Error()
	}
	status := c.Status()
	var b strings.Builder
	b.WriteString(renderStatus(string(s.stream), status))
	b.WriteString("\n")
	b.WriteString(renderGrid(ds.Index.Grid(status.Visible)))
	if current, ok := c.Current(); ok {
		if row, ok := ds.Index.Row(current); ok {
			b.WriteString("\n")
			b.WriteString(renderCycleCard(row, ds.Index.Snapshots().SnapshotFor(current)))
		}
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("s start  n/→ next  p/← prev  e end  r reset  R reload  q quit"))
	return b.String()
}

func (s *Stepper) print(text string) {
	if s.raw {
		text = strings.ReplaceAll(text, "\n", "\r\n")
		fmt.Fprint(s.out, text, "\r\n")
		return
	}
	fmt.Fprintln(s.out, text)
}
