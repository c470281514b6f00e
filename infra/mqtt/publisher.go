package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/model"
)

// Message is one payload captured by MockChannel.
type Message struct {
	Tag     string
	Payload []byte
	Time    time.Time
}

// MockChannel is an in-memory channel.Connector used in tests and dry runs.
type MockChannel struct {
	FailConnect map[string]bool
	FailPublish map[string]bool

	mu          sync.Mutex
	messages    []Message
	connects    map[string]int
	disconnects map[string]int
	onPublish   func(Message)
}

// NewMockChannel creates a new MockChannel.
func NewMockChannel() *MockChannel {
	return &MockChannel{
		FailConnect: make(map[string]bool),
		FailPublish: make(map[string]bool),
		connects:    make(map[string]int),
		disconnects: make(map[string]int),
	}
}

// OnPublish registers a hook called synchronously for every recorded message.
func (m *MockChannel) OnPublish(f func(Message)) {
	m.mu.Lock()
	m.onPublish = f
	m.mu.Unlock()
}

// Connect records the connection or fails if configured for the tag.
func (m *MockChannel) Connect(ctx context.Context, id model.Identity) (channel.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", channel.ErrConnection, id.Tag, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailConnect[id.Tag] {
		return nil, fmt.Errorf("%w: %s: refused", channel.ErrConnection, id.Tag)
	}
	m.connects[id.Tag]++
	return &mockHandle{m: m, tag: id.Tag}, nil
}

// Messages returns a copy of every recorded message in publish order.
func (m *MockChannel) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// MessagesFor returns the messages recorded for one tag.
func (m *MockChannel) MessagesFor(tag string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.Tag == tag {
			out = append(out, msg)
		}
	}
	return out
}

// Connects returns how many times tag connected.
func (m *MockChannel) Connects(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects[tag]
}

// Disconnects returns how many handles of tag were released.
func (m *MockChannel) Disconnects(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnects[tag]
}

type mockHandle struct {
	m      *MockChannel
	tag    string
	closed bool
}

func (h *mockHandle) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", channel.ErrPublish, h.tag, err)
	}
	h.m.mu.Lock()
	if h.closed {
		h.m.mu.Unlock()
		return fmt.Errorf("%w: %s: disconnected", channel.ErrPublish, h.tag)
	}
	if h.m.FailPublish[h.tag] {
		h.m.mu.Unlock()
		return fmt.Errorf("%w: %s: broker unavailable", channel.ErrPublish, h.tag)
	}
	msg := Message{Tag: h.tag, Payload: append([]byte(nil), payload...), Time: time.Now()}
	h.m.messages = append(h.m.messages, msg)
	hook := h.m.onPublish
	h.m.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
	return nil
}

func (h *mockHandle) Disconnect() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.m.disconnects[h.tag]++
}
