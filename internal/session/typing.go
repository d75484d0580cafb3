// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"
)

// DefaultTypingReset is how long the indicator stays on after the last key.
const DefaultTypingReset = time.Second

// Typing is a local typing indicator. Touch turns it on and (re)arms a timer
// that turns it off after the reset delay. onChange runs outside the lock.
type Typing struct {
	mu       sync.Mutex
	reset    time.Duration
	active   bool
	timer    *time.Timer
	seq      uint64
	onChange func(active bool)
}

// NewTyping returns an inactive indicator.
func NewTyping(reset time.Duration, onChange func(active bool)) *Typing {
	if reset <= 0 {
		reset = DefaultTypingReset
	}
	return &Typing{reset: reset, onChange: onChange}
}

// Touch marks the user as typing.
func (t *Typing) Touch() {
	changed := t.arm()
	t.mu.Lock()
	cb := t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(true)
	}
}

// arm turns the indicator on and restarts the reset timer without calling
// onChange. It reports whether the indicator was off.
func (t *Typing) arm() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.timer = time.AfterFunc(t.reset, func() { t.expire(seq) })
	changed := !t.active
	t.active = true
	return changed
}

func (t *Typing) expire(seq uint64) {
	t.mu.Lock()
	// A newer Touch or a Stop replaced this timer.
	if t.seq != seq || t.timer == nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.active = false
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(false)
	}
}

// Stop cancels the pending reset and clears the indicator without calling
// onChange.
func (t *Typing) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.active = false
}

// Active reports whether the indicator is on.
func (t *Typing) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
