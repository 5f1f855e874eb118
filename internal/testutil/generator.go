package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/berth-dev/briefing/internal/llm"
)

// ErrScriptExhausted is returned when a Generator has no reply left for a request.
var ErrScriptExhausted = errors.New("scripted generator: no reply left")

// Reply is one scripted generation result.
type Reply struct {
	Text string
	Err  error
}

// Generator is a scripted llm.Generator. Replies queued per purpose are
// consumed first, then the shared queue, then Handler.
type Generator struct {
	mu        sync.Mutex
	byPurpose map[string][]Reply
	queue     []Reply
	requests  []llm.Request

	// Handler answers requests once the scripts are exhausted.
	Handler func(req llm.Request) (string, error)
	// Unavailable makes CheckAvailability report false.
	Unavailable bool
}

// NewGenerator returns a Generator replying with texts in order.
func NewGenerator(texts ...string) *Generator {
	g := &Generator{byPurpose: map[string][]Reply{}}
	for _, t := range texts {
		g.queue = append(g.queue, Reply{Text: t})
	}
	return g
}

// Push appends replies to the shared queue.
func (g *Generator) Push(replies ...Reply) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = append(g.queue, replies...)
	return g
}

// On queues texts for requests with the given purpose.
func (g *Generator) On(purpose string, texts ...string) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.byPurpose == nil {
		g.byPurpose = map[string][]Reply{}
	}
	for _, t := range texts {
		g.byPurpose[purpose] = append(g.byPurpose[purpose], Reply{Text: t})
	}
	return g
}

// Fail queues an error for requests with the given purpose.
func (g *Generator) Fail(purpose string, err error) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.byPurpose == nil {
		g.byPurpose = map[string][]Reply{}
	}
	g.byPurpose[purpose] = append(g.byPurpose[purpose], Reply{Err: err})
	return g
}

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	if q := g.byPurpose[req.Purpose]; len(q) > 0 {
		r := q[0]
		g.byPurpose[req.Purpose] = q[1:]
		g.mu.Unlock()
		return r.Text, r.Err
	}
	if len(g.queue) > 0 {
		r := g.queue[0]
		g.queue = g.queue[1:]
		g.mu.Unlock()
		return r.Text, r.Err
	}
	h := g.Handler
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h != nil {
		return h(req)
	}
	return "", ErrScriptExhausted
}

// CheckAvailability implements llm.Generator.
func (g *Generator) CheckAvailability(context.Context) bool { return !g.Unavailable }

// Requests returns every request received so far.
func (g *Generator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}

// Purposes returns the purpose of every request received so far.
func (g *Generator) Purposes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.requests))
	for _, r := range g.requests {
		out = append(out, r.Purpose)
	}
	return out
}

// Count returns how many requests had the given purpose.
func (g *Generator) Count(purpose string) int {
	n := 0
	for _, p := range g.Purposes() {
		if p == purpose {
			n++
		}
	}
	return n
}

// Last returns the most recent request whose prompt contains substr.
func (g *Generator) Last(substr string) (llm.Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.requests) - 1; i >= 0; i-- {
		if strings.Contains(g.requests[i].Prompt, substr) {
			return g.requests[i], true
		}
	}
	return llm.Request{}, false
}

var _ llm.Generator = (*Generator)(nil)
