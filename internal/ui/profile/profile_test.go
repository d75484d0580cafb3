// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

func TestProfile_Placeholders(t *testing.T) {
	m := New(styles.NewTheme("dark"))

	if got := m.View(); !strings.Contains(got, NoProfile) {
		t.Errorf("expected %q, got %q", NoProfile, got)
	}

	m.SetLoading(true)
	if got := m.View(); !strings.Contains(got, Loading) {
		t.Errorf("expected %q, got %q", Loading, got)
	}
}

func TestProfile_Fields(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := New(styles.NewTheme("dark"))
	m.now = func() time.Time { return now }
	m.SetLoading(true)

	id := &model.Identity{
		UserID:      7,
		Username:    "amy",
		Email:       "amy@example.com",
		Location:    "Lisbon",
		PhoneNumber: "+351 555 0100",
	}
	m.SetIdentity(id, now.Add(45*time.Minute))
	id.Username = "changed"

	out := m.View()
	for _, want := range []string{"amy", "amy@example.com", "Lisbon", "+351 555 0100", "Phone Number", "User Type", "45m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("profile missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "changed") {
		t.Error("profile should hold a copy of the identity")
	}
	if strings.Contains(out, Loading) {
		t.Error("SetIdentity should clear the loading state")
	}
}

func TestProfile_ClearedIdentity(t *testing.T) {
	m := New(styles.NewTheme("dark"))
	m.SetIdentity(&model.Identity{Username: "amy"}, time.Time{})
	m.SetIdentity(nil, time.Time{})

	if got := m.View(); !strings.Contains(got, NoProfile) {
		t.Errorf("expected placeholder after clearing, got %q", got)
	}
}
