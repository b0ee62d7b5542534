package domain

import (
	"fmt"
	"sort"
	"time"
)

type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type CursorSelection struct {
	Start CursorPosition `json:"start"`
	End   CursorPosition `json:"end"`
}

type CursorState struct {
	UserID    string           `json:"user_id"`
	Position  CursorPosition   `json:"position"`
	Selection *CursorSelection `json:"selection,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (c CursorState) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidCursor)
	}
	if !c.Position.valid() {
		return fmt.Errorf("%w: negative position", ErrInvalidCursor)
	}
	if c.Selection != nil && (!c.Selection.Start.valid() || !c.Selection.End.valid()) {
		return fmt.Errorf("%w: negative selection bound", ErrInvalidCursor)
	}
	return nil
}

func (p CursorPosition) valid() bool {
	return p.Line >= 0 && p.Column >= 0
}

// CursorTracker holds the latest cursor per participant. No history is kept.
type CursorTracker struct {
	cursors map[string]CursorState
	purged  bool
}

func NewCursorTracker() *CursorTracker {
	return &CursorTracker{cursors: make(map[string]CursorState)}
}

func (t *CursorTracker) Update(state CursorState) error {
	if t.purged {
		return ErrSessionNotFound
	}
	t.cursors[state.UserID] = state
	return nil
}

func (t *CursorTracker) Remove(userID string) error {
	if t.purged {
		return ErrSessionNotFound
	}
	delete(t.cursors, userID)
	return nil
}

// All returns the cursors ordered by user id.
func (t *CursorTracker) All() ([]CursorState, error) {
	if t.purged {
		return nil, ErrSessionNotFound
	}
	out := make([]CursorState, 0, len(t.cursors))
	for _, c := range t.cursors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (t *CursorTracker) Purge() {
	t.cursors = nil
	t.purged = true
}
