package chainstore

import (
	"sync"

	"github.com/iron-fish/chaincore/model"
)

// Handle is returned by a Subscribe* call; Unsubscribe removes the
// registered handler, making cancellation a first-class operation rather
// than requiring callers to track their own registration state.
type Handle struct {
	id     uint64
	remove func(uint64)
}

func (h *Handle) Unsubscribe() {
	if h == nil || h.remove == nil {
		return
	}
	h.remove(h.id)
}

type subscriptions struct {
	mu       sync.Mutex
	nextID   uint64
	onConnect map[uint64]func(*model.BlockHeader)
	onDisconnect map[uint64]func(*model.BlockHeader)
	onFork   map[uint64]func(*model.Block)
}

func (s *subscriptions) SubscribeConnect(fn func(*model.BlockHeader)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onConnect == nil {
		s.onConnect = make(map[uint64]func(*model.BlockHeader))
	}
	s.nextID++
	id := s.nextID
	s.onConnect[id] = fn
	return &Handle{id: id, remove: func(id uint64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onConnect, id)
	}}
}

func (s *subscriptions) SubscribeDisconnect(fn func(*model.BlockHeader)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onDisconnect == nil {
		s.onDisconnect = make(map[uint64]func(*model.BlockHeader))
	}
	s.nextID++
	id := s.nextID
	s.onDisconnect[id] = fn
	return &Handle{id: id, remove: func(id uint64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onDisconnect, id)
	}}
}

func (s *subscriptions) SubscribeFork(fn func(*model.Block)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onFork == nil {
		s.onFork = make(map[uint64]func(*model.Block))
	}
	s.nextID++
	id := s.nextID
	s.onFork[id] = fn
	return &Handle{id: id, remove: func(id uint64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onFork, id)
	}}
}

func (s *subscriptions) publishConnect(h *model.BlockHeader) {
	s.mu.Lock()
	handlers := make([]func(*model.BlockHeader), 0, len(s.onConnect))
	for _, fn := range s.onConnect {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(h)
	}
}

func (s *subscriptions) publishDisconnect(h *model.BlockHeader) {
	s.mu.Lock()
	handlers := make([]func(*model.BlockHeader), 0, len(s.onDisconnect))
	for _, fn := range s.onDisconnect {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(h)
	}
}

func (s *subscriptions) publishFork(b *model.Block) {
	s.mu.Lock()
	handlers := make([]func(*model.Block), 0, len(s.onFork))
	for _, fn := range s.onFork {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(b)
	}
}

// OnConnectBlock registers fn to be called whenever a header is attached to
// the main chain.
func (s *Store) OnConnectBlock(fn func(*model.BlockHeader)) *Handle {
	return s.subs.SubscribeConnect(fn)
}

func (s *Store) OnDisconnectBlock(fn func(*model.BlockHeader)) *Handle {
	return s.subs.SubscribeDisconnect(fn)
}

func (s *Store) OnForkBlock(fn func(*model.Block)) *Handle {
	return s.subs.SubscribeFork(fn)
}
