// terminal_control.go - Raw-mode keyboard control for live sessions

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// TerminalControl reads raw stdin and nudges session parameters.
// Only instantiated in main.go for interactive use - never in tests.
//
//	+ / =   pulse frequency up 0.5Hz
//	-       pulse frequency down 0.5Hz
//	]       duty cycle up 0.05
//	[       duty cycle down 0.05
//	q       quit
type TerminalControl struct {
	session      *Session
	quit         chan struct{}
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	quitOnce     sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func NewTerminalControl(session *Session) *TerminalControl {
	return &TerminalControl{
		session: session,
		quit:    make(chan struct{}),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Quit is closed when the user asks to end the session.
func (tc *TerminalControl) Quit() <-chan struct{} {
	return tc.quit
}

// Start puts stdin into raw non-blocking mode and begins reading in a
// goroutine. Call Stop() to restore the terminal.
func (tc *TerminalControl) Start() {
	tc.fd = int(os.Stdin.Fd())

	if !term.IsTerminal(tc.fd) {
		close(tc.done)
		return
	}

	oldState, err := term.MakeRaw(tc.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_control: failed to set raw mode: %v\n", err)
		close(tc.done)
		return
	}
	tc.oldTermState = oldState

	if err := syscall.SetNonblock(tc.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_control: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(tc.fd, tc.oldTermState)
		tc.oldTermState = nil
		close(tc.done)
		return
	}
	tc.nonblockSet = true

	go func() {
		defer close(tc.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-tc.stopCh:
				return
			default:
			}

			n, err := syscall.Read(tc.fd, buf)
			if n > 0 {
				tc.handleKey(buf[0])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

func (tc *TerminalControl) handleKey(b byte) {
	status := tc.session.Status()
	switch b {
	case '+', '=':
		tc.session.SetFrequency(status.PulseFreq + 0.5)
		tc.printStatus()
	case '-':
		tc.session.SetFrequency(status.PulseFreq - 0.5)
		tc.printStatus()
	case ']':
		tc.session.SetDutyCycle(status.DutyCycle + 0.05)
		tc.printStatus()
	case '[':
		tc.session.SetDutyCycle(status.DutyCycle - 0.05)
		tc.printStatus()
	case 'q', 'Q', 0x03: // Ctrl-C arrives as 0x03 in raw mode
		tc.quitOnce.Do(func() { close(tc.quit) })
	}
}

func (tc *TerminalControl) printStatus() {
	st := tc.session.Status()
	// Raw mode needs the explicit carriage return.
	fmt.Printf("\rpulse %.2fHz  carrier %.0fHz  duty %.2f  [%s]   ",
		st.PulseFreq, st.CarrierFreq, st.DutyCycle, st.Path)
}

// Stop terminates the reading goroutine and restores the terminal.
func (tc *TerminalControl) Stop() {
	tc.stopped.Do(func() {
		close(tc.stopCh)
	})
	<-tc.done
	if tc.nonblockSet {
		_ = syscall.SetNonblock(tc.fd, false)
		tc.nonblockSet = false
	}
	if tc.oldTermState != nil {
		_ = term.Restore(tc.fd, tc.oldTermState)
		tc.oldTermState = nil
	}
}
