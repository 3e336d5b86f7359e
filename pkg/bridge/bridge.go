// Package bridge provides a generic synchronous-to-asynchronous execution
// bridge: a dedicated worker context that lets any number of caller
// goroutines issue blocking "do this, possibly asynchronously, then resume
// me" requests.
//
// The work submitted to Invoke receives a single-shot Resume token and must
// fire it exactly once: immediately for purely synchronous work, or later,
// from any goroutine, after some asynchronous operation completes. Invoke
// blocks its caller until the resume for that specific invocation has
// fired. This lets a storage backend implement blocking read/write/open
// semantics on top of an environment that only offers callback-based
// asynchronous primitives.
package bridge

import (
	"sync"
	"sync/atomic"
)

// state is the worker's lifecycle. New work can only be submitted in
// stateWaiting.
type state int

const (
	stateUninitialized state = iota
	stateWaiting
	stateWorkAvailable
	stateShouldExit
)

// Bridge owns one dedicated worker execution context. It is safe to call
// Invoke from multiple goroutines concurrently; the bridge serializes
// them through its single pending-work slot.
type Bridge struct {
	// mu and cond mediate all state transitions between the worker and
	// invokers. To avoid losing messages, the worker always either
	// holds mu, preventing invokers from sending it new work, or is
	// waiting on cond for invokers to send work and wake it. Invokers
	// likewise either hold mu or are waiting for their work to finish.
	mu   sync.Mutex
	cond *sync.Cond

	st state

	// workCount increments every time a work item finishes. Invokers
	// capture it before submitting and wait for it to exceed the
	// captured value, so each invoker detects its own completion even
	// if another invoker wins the race and submits new work before the
	// original invoker can check.
	workCount uint64

	// work is the single pending work item, valid only in
	// stateWorkAvailable.
	work func(*Resume)

	// done is closed when the worker exits.
	done chan struct{}
}

// Resume is the single-shot completion token handed to submitted work.
// Fire it exactly once by calling Done; firing it twice is a contract
// violation and panics. It may be fired from any goroutine.
type Resume struct {
	b     *Bridge
	fired atomic.Bool
}

// Done marks the invocation's work as complete, wakes the invoker
// blocked in Invoke, and schedules the worker to wait for more work.
func (r *Resume) Done() {
	if !r.fired.CompareAndSwap(false, true) {
		panic("bridge: Resume fired twice")
	}

	b := r.b
	b.mu.Lock()
	b.workCount++
	if b.workCount == 0 {
		panic("bridge: work counter overflowed")
	}

	// Hand the still-held lock to a fresh worker iteration. Scheduling
	// the wait-for-more-work step as an independent goroutine instead
	// of calling it here keeps an unbroken chain of resume calls from
	// growing the stack, and lets any code the caller has after the
	// Done call run before the worker accepts the next item.
	//
	// Waking the invoker is deferred to that iteration: the lock stays
	// held from the counter increment until the state is back to
	// waiting, so an invoker can never observe its completion while
	// the worker is in any other state.
	go b.iterate()
}

// New starts the worker and blocks until it has reached the waiting
// state for the first time, so no caller can race the worker's startup.
func New() *Bridge {
	b := &Bridge{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)

	// Hold the lock before starting the worker so its first iteration
	// cannot announce readiness before we are waiting to hear it.
	b.mu.Lock()
	go func() {
		b.mu.Lock()
		b.iterate()
	}()
	for b.st != stateWaiting {
		b.cond.Wait()
	}
	b.mu.Unlock()

	return b
}

// iterate is one cycle of the worker: announce readiness, wait for work,
// run it. The lock is held on entry; ownership is transferred here either
// from the startup goroutine or from the Resume of the previous item.
func (b *Bridge) iterate() {
	b.st = stateWaiting
	// A single broadcast covers everyone with a reason to wake: the
	// constructor waiting for startup, the previous item's invoker
	// waiting on the counter, and invokers waiting to submit.
	b.cond.Broadcast()
	for b.st == stateWaiting {
		b.cond.Wait()
	}

	if b.st == stateShouldExit {
		b.mu.Unlock()
		close(b.done)
		return
	}

	if b.st != stateWorkAvailable {
		panic("bridge: worker woke in unexpected state")
	}
	work := b.work
	b.work = nil
	b.mu.Unlock()

	// Run the work item. It owns the Resume now and must fire it when
	// done, possibly from a different goroutine.
	work(&Resume{b: b})
}

// Invoke runs work on the bridge's worker and blocks until that work's
// Resume has fired. The work function itself executes on the worker; the
// asynchronous part of the work may complete anywhere.
//
// Invoke provides no cancellation. A caller wanting a timeout must build
// it inside the work item and fire the Resume unconditionally.
func (b *Bridge) Invoke(work func(*Resume)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The worker might not be waiting if some other invoker just sent
	// work and we won the race against the newly woken worker for the
	// lock. Wait for the worker to be ready for new work.
	for b.st != stateWaiting {
		b.cond.Wait()
	}

	// The worker is definitely waiting for our work. Send it over.
	workID := b.workCount
	b.work = work
	b.st = stateWorkAvailable

	// Wake the worker. Other invokers may be blocked on the same
	// condition, so Broadcast to make sure the worker is among the
	// woken. Then wait for workCount to pass the captured value rather
	// than for the state to return to waiting, so we wake even if
	// another invoker wins the race and submits more work first.
	b.cond.Broadcast()
	for b.workCount <= workID {
		b.cond.Wait()
	}
}

// Close shuts the worker down and waits for it to exit.
//
// The bridge must be idle: closing while an Invoke is outstanding is a
// contract violation. Ordering Close after all invokers is the caller's
// responsibility.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.st != stateWaiting {
		panic("bridge: Close with work in flight")
	}
	b.st = stateShouldExit
	// No invokers can be waiting to submit, by the idleness contract,
	// so a single signal reaches the worker.
	b.cond.Signal()
	b.mu.Unlock()

	<-b.done
}
