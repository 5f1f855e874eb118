package ai

import (
	"context"
	"sync"
)

// Note kinds.
const (
	NoteFallback = "fallback"
	NoteRejected = "rejected"
	NoteDropped  = "dropped"
	NoteBackfill = "backfill"
)

// Note is something worth recording on the session that happened during
// an AI call.
type Note struct {
	Kind      string
	Component string
	Question  string
	Detail    string
	Count     int
}

// Notes collects the notes of one operation.
type Notes struct {
	mu    sync.Mutex
	items []Note
}

type notesKey struct{}

// WithNotes returns a context that collects notes into the returned Notes.
func WithNotes(ctx context.Context) (context.Context, *Notes) {
	n := &Notes{}
	return context.WithValue(ctx, notesKey{}, n), n
}

func noteFrom(ctx context.Context) *Notes {
	n, _ := ctx.Value(notesKey{}).(*Notes)
	return n
}

func (n *Notes) add(note Note) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.items = append(n.items, note)
	n.mu.Unlock()
}

// Drain returns the collected notes and clears them.
func (n *Notes) Drain() []Note {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	return out
}
