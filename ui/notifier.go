// Package ui holds the terminal presentation shared by the binaries.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jrsteele09/go-hms-admin/watcher"
)

var _ watcher.Notifier = (*TerminalNotifier)(nil)

// TerminalNotifier prints expiry notices. When an input is given, a line read
// from it while a notice is up acknowledges the notice; lines entered earlier
// are discarded.
type TerminalNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	lines  chan time.Time // when each line was read
	colour bool
}

type NotifierOption func(*TerminalNotifier)

func WithColour(enabled bool) NotifierOption {
	return func(n *TerminalNotifier) {
		n.colour = enabled
	}
}

// WithInput acknowledges notices when a line is read from in
func WithInput(in io.Reader) NotifierOption {
	return func(n *TerminalNotifier) {
		n.lines = make(chan time.Time)
		go func() {
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				n.lines <- time.Now()
			}
			close(n.lines)
		}()
	}
}

func NewTerminalNotifier(out io.Writer, options ...NotifierOption) *TerminalNotifier {
	n := &TerminalNotifier{out: out}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *TerminalNotifier) ShowExpiryNotice(ctx context.Context, notice watcher.Notice) <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintln(n.out)
	fmt.Fprintln(n.out, Colourize(n.colour, YellowInverse, " "+notice.Message+" "))
	if n.lines == nil {
		fmt.Fprintf(n.out, "Signing out in %s\n", notice.Grace)
		return nil
	}
	fmt.Fprintf(n.out, "Press Enter to sign out now (automatic in %s)\n", notice.Grace)

	shownAt := time.Now()
	ack := make(chan struct{})
	go func() {
		for {
			select {
			case readAt, ok := <-n.lines:
				if !ok {
					return
				}
				if readAt.Before(shownAt) {
					continue
				}
				close(ack)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return ack
}
