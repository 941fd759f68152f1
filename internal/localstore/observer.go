package localstore

import "sync"

type notifier interface {
	Notify(userID uint)
}

// Hub fans mutation signals out to subscribers. Each subscriber owns a
// buffered channel of size one, so delivery is at-least-the-latest-value:
// a slow reader coalesces bursts into a single pending signal instead of
// blocking writers.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[int]chan struct{}
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[int]chan struct{})}
}

// Subscribe registers interest in mutations of one user's data. The returned
// cancel function must be called to release the subscription.
func (h *Hub) Subscribe(userID uint) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan struct{})
	}
	id := h.next
	h.next++

	ch := make(chan struct{}, 1)
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[userID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Notify signals every subscriber of userID. Sends never block.
func (h *Hub) Notify(userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// pendingNotifier defers signals raised inside a transaction until commit.
type pendingNotifier struct {
	mu     sync.Mutex
	target notifier
	users  []uint
}

func (p *pendingNotifier) Notify(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
}

func (p *pendingNotifier) flush() {
	p.mu.Lock()
	users := p.users
	p.users = nil
	p.mu.Unlock()

	seen := make(map[uint]bool, len(users))
	for _, id := range users {
		if seen[id] {
			continue
		}
		seen[id] = true
		p.target.Notify(id)
	}
}
