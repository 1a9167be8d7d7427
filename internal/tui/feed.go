package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/pubscope/internal/controller"
)

// snapshotMsg carries controller state into the Bubble Tea loop.
type snapshotMsg controller.Snapshot

// feed hands snapshots from controller listeners to the UI loop. It holds at most one
// snapshot and push never blocks, so a listener running inside Update cannot deadlock.
type feed struct {
	ch chan controller.Snapshot
}

func newFeed() *feed {
	return &feed{ch: make(chan controller.Snapshot, 1)}
}

// push offers s, keeping whichever of s and the queued snapshot is newer.
func (f *feed) push(s controller.Snapshot) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case queued := <-f.ch:
			if queued.Version > s.Version {
				s = queued
			}
		default:
		}
	}
}

// next waits for the next snapshot. It yields nil once ctx is done.
func (f *feed) next(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.ch:
			return snapshotMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}
