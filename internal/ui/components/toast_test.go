// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

func newTestManager(now *time.Time) *ToastManager {
	m := NewToastManager()
	m.now = func() time.Time { return *now }
	return m
}

func TestToastManager_AddNewestFirst(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newTestManager(&now)

	first := m.AddStatus("first")
	second := m.AddError("second")

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].ID != second || toasts[1].ID != first {
		t.Errorf("expected newest first, got ids %d, %d", toasts[0].ID, toasts[1].ID)
	}
	if toasts[0].Duration != ErrorToastDuration {
		t.Errorf("error toast duration = %v, want %v", toasts[0].Duration, ErrorToastDuration)
	}
}

func TestToastManager_Cap(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newTestManager(&now)

	for i := 0; i < maxToasts+3; i++ {
		m.AddStatus(strings.Repeat("x", i+1))
	}
	if m.Len() != maxToasts {
		t.Errorf("expected %d toasts, got %d", maxToasts, m.Len())
	}
}

func TestToastManager_DuplicateRefreshes(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newTestManager(&now)

	id := m.AddError("disconnected")
	now = now.Add(5 * time.Second)
	if again := m.AddError("disconnected"); again != id {
		t.Errorf("duplicate toast got new id %d, want %d", again, id)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 toast, got %d", m.Len())
	}

	// Refreshed at +5s, so still alive at +12s.
	now = now.Add(7 * time.Second)
	if len(m.Tick()) != 1 {
		t.Error("refreshed toast expired early")
	}
}

func TestToastManager_TickExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newTestManager(&now)

	m.AddStatus("short")
	m.AddError("long")

	now = now.Add(StatusToastDuration)
	left := m.Tick()
	if len(left) != 1 || left[0].Message != "long" {
		t.Fatalf("expected only the error toast to remain, got %+v", left)
	}

	now = now.Add(ErrorToastDuration)
	if len(m.Tick()) != 0 {
		t.Error("expected all toasts expired")
	}
}

func TestToastManager_RemoveAndDismiss(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newTestManager(&now)

	a := m.AddStatus("a")
	m.AddWarning("b")
	m.AddSuccess("c")

	m.Remove(a)
	if m.Len() != 2 {
		t.Fatalf("expected 2 toasts after Remove, got %d", m.Len())
	}
	if !m.DismissNewest() {
		t.Fatal("DismissNewest returned false with toasts present")
	}
	if got := m.Toasts()[0].Message; got != "b" {
		t.Errorf("expected b to remain, got %q", got)
	}

	m.Clear()
	if m.DismissNewest() {
		t.Error("DismissNewest returned true on empty manager")
	}
}

func TestRenderToast(t *testing.T) {
	now := time.Unix(1000, 0)
	toast := Toast{ID: 1, Message: "Unable to reach the server", Kind: ToastError, CreatedAt: now, Duration: ErrorToastDuration}

	out := RenderToast(toast, 80, now)
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Error("error toast should carry the error indicator")
	}
	if !strings.Contains(out, "Unable to reach") {
		t.Error("toast should contain its message")
	}
	if !strings.Contains(out, "8s") {
		t.Error("toast should show time remaining")
	}
}

func TestRenderToastStack_Empty(t *testing.T) {
	if got := RenderToastStack(nil, 80, 24, time.Now()); got != "" {
		t.Errorf("expected empty stack, got %q", got)
	}
}

func TestStatusBar_View(t *testing.T) {
	theme := styles.NewTheme("dark")
	bar := NewStatusBar(theme)
	bar.Width = 140
	bar.State = "closed"
	bar.Username = "me"
	bar.Peer = "amy"
	bar.Policy = "merged"
	bar.Typing = true

	out := bar.View()
	for _, want := range []string{"disconnected", "me", "to amy", "merged", "typing...", "ctrl+f"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}

	bar.Width = 50
	bar.Typing = false
	out = bar.View()
	if strings.Contains(out, "ctrl+f") {
		t.Error("narrow status bar should drop shortcuts")
	}
}

func TestStateLabel(t *testing.T) {
	tests := map[string]string{
		"open":       "connected",
		"connecting": "connecting",
		"closed":     "disconnected",
		"idle":       "offline",
	}
	for state, want := range tests {
		if got := StateLabel(state); !strings.Contains(got, want) {
			t.Errorf("StateLabel(%q) = %q, want to contain %q", state, got, want)
		}
	}
}
