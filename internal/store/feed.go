package store

import (
	"context"
	"sync"
)

// feed fans a value out to subscribers with latest-value semantics: each
// subscriber channel holds at most one pending value and a newer publish
// replaces it.
type feed[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{subs: make(map[chan T]struct{})}
}

// subscribe registers a channel that is closed when ctx ends or the
// returned cancel func is called.
func (f *feed[T]) subscribe(ctx context.Context) (<-chan T, func()) {
	ch := make(chan T, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

func (f *feed[T]) publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (f *feed[T]) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs) > 0
}

func (f *feed[T]) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
}
