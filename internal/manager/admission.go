package manager

import (
	"context"
	"time"
)

// beginInference reserves a queue slot and then the single in-flight slot of
// inst. Returns a release func to be deferred.
func (m *Manager) beginInference(ctx context.Context, inst *Instance) (func(), error) {
	m.mu.RLock()
	draining := inst.State == StateDraining
	m.mu.RUnlock()
	// If draining, reject new work to allow a clean cache clear
	if draining {
		return func() {}, tooBusyError{scale: inst.Scale}
	}

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{scale: inst.Scale}
	}
	// Clear waits for the queue to empty after marking the handle draining,
	// so once a slot is held the state decides who wins.
	m.mu.RLock()
	draining = inst.State == StateDraining
	m.mu.RUnlock()
	if draining {
		<-inst.queueCh
		return func() {}, tooBusyError{scale: inst.Scale}
	}

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-inst.queueCh
		}
	}()
	select {
	case inst.genCh <- struct{}{}:
		acquired = true
		m.mu.Lock()
		inst.LastUsed = time.Now()
		m.mu.Unlock()
		return func() { <-inst.genCh; <-inst.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{scale: inst.Scale}
	}
}
