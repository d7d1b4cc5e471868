// internal/domain/common/observer.go
package common

import (
	"sort"
	"sync"
)

// Listeners is a small subscriber list shared by the state containers.
// Notify runs callbacks outside of the lock so a listener may read back
// from the container that fired it.
type Listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

// Subscribe registers fn and returns a func that removes it.
// Calling the returned func more than once is safe.
func (l *Listeners[T]) Subscribe(fn func(T)) func() {
	if l == nil || fn == nil {
		return func() {}
	}

	l.mu.Lock()
	if l.fns == nil {
		l.fns = map[int]func(T){}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Notify calls every subscriber in registration order.
func (l *Listeners[T]) Notify(v T) {
	if l == nil {
		return
	}

	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of live subscribers.
func (l *Listeners[T]) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
