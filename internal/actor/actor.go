// Package actor confines work to a single goroutine.
package actor

import "sync"

// Actor runs submitted functions one at a time, in submission order, on its
// own goroutine.
type Actor struct {
	box  chan msg
	done chan struct{}
	once sync.Once
	mu   sync.RWMutex
	dead bool
}

type msg struct {
	fn  func()
	res chan struct{}
}

// New starts an actor.
func New() *Actor {
	a := &Actor{
		box:  make(chan msg, 16),
		done: make(chan struct{}),
	}
	go a.loop()
	return a
}

// Run executes f on the actor and waits for it to finish. It reports false
// if the actor has been stopped and f did not run.
func (a *Actor) Run(f func()) bool {
	res := make(chan struct{})
	if !a.send(msg{fn: f, res: res}) {
		return false
	}
	<-res
	return true
}

// Post queues f without waiting for it.
func (a *Actor) Post(f func()) bool {
	return a.send(msg{fn: f})
}

func (a *Actor) send(m msg) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dead {
		return false
	}
	a.box <- m
	return true
}

// Stop drains queued work and ends the actor goroutine.
func (a *Actor) Stop() {
	a.once.Do(func() {
		a.mu.Lock()
		a.dead = true
		close(a.box)
		a.mu.Unlock()
	})
	<-a.done
}

func (a *Actor) loop() {
	defer close(a.done)
	for m := range a.box {
		m.fn()
		if m.res != nil {
			close(m.res)
		}
	}
}
