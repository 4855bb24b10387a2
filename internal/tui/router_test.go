package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_ForwardsInOrder(t *testing.T) {
	r := NewRouter()
	received := make(chan tea.Msg, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, func(msg tea.Msg) { received <- msg })
	}()

	r.GoTo("/auth/login")
	r.guardChanged()
	r.GoTo("/dashboard")

	var got []tea.Msg
	for len(got) < 3 {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d messages", len(got))
		}
	}

	want := []tea.Msg{
		NavigateMsg{Path: "/auth/login"},
		guardChangedMsg{},
		NavigateMsg{Path: "/dashboard"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("forwarded messages mismatch (-want +got):\n%s", diff)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRouter_GoToDoesNotBlockWithoutRunner(t *testing.T) {
	r := NewRouter()

	for i := 0; i < 100; i++ {
		r.GoTo("/")
	}

	msgs := r.drain()
	require.Len(t, msgs, 100)
	assert.Empty(t, r.drain())
}
