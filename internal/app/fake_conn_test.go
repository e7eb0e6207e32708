package app_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/marusyk/Converse/internal/core"
)

// fakeConn implements core.SignalConnection and records every frame it
// was handed, decoded for assertions.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventsOfType(t *testing.T, typ core.EventType) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range c.events(t) {
		if m["type"] == string(typ) {
			out = append(out, m)
		}
	}
	return out
}
