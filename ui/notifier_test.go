package ui_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/jrsteele09/go-hms-admin/ui"
	"github.com/jrsteele09/go-hms-admin/watcher"
	"github.com/stretchr/testify/require"
)

func TestTerminalNotifierWithoutInput(t *testing.T) {
	var out bytes.Buffer
	n := ui.NewTerminalNotifier(&out)

	ack := n.ShowExpiryNotice(context.Background(), watcher.Notice{Message: "expired", Grace: 6 * time.Second})
	require.Nil(t, ack)
	require.Contains(t, out.String(), "expired")
	require.Contains(t, out.String(), "6s")
	require.NotContains(t, out.String(), ui.ResetColor)
}

func TestTerminalNotifierAcknowledgedByLine(t *testing.T) {
	var out bytes.Buffer
	reader, writer := io.Pipe()
	defer writer.Close()
	n := ui.NewTerminalNotifier(&out, ui.WithInput(reader), ui.WithColour(true))

	ack := n.ShowExpiryNotice(context.Background(), watcher.Notice{Message: "expired", Grace: time.Second})
	require.Contains(t, out.String(), ui.YellowInverse)

	go func() { _, _ = io.WriteString(writer, "\n") }()
	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("notice not acknowledged")
	}
}

func TestTerminalNotifierIgnoresEarlierLines(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	n := ui.NewTerminalNotifier(io.Discard, ui.WithInput(reader))

	// Enter pressed while no notice was up
	_, err := io.WriteString(writer, "\n")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	ack := n.ShowExpiryNotice(context.Background(), watcher.Notice{Message: "expired", Grace: time.Second})
	select {
	case <-ack:
		t.Fatal("notice acknowledged by a line entered before it was shown")
	case <-time.After(50 * time.Millisecond):
	}

	go func() { _, _ = io.WriteString(writer, "\n") }()
	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("notice not acknowledged")
	}
}

func TestTerminalNotifierCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	n := ui.NewTerminalNotifier(io.Discard, ui.WithInput(reader))

	ctx, cancel := context.WithCancel(context.Background())
	ack := n.ShowExpiryNotice(ctx, watcher.Notice{Message: "expired", Grace: time.Second})
	cancel()

	select {
	case <-ack:
		t.Fatal("cancelled notice acknowledged")
	case <-time.After(50 * time.Millisecond):
	}
}
