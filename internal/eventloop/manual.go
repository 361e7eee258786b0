package eventloop

// Manual is a Scheduler that queues work until the caller runs it.
// Work and its continuation execute synchronously on the calling goroutine,
// which lets tests choose the order in which requests complete.
type Manual struct {
	pending []func() func()
}

// Go implements Scheduler.
func (m *Manual) Go(work func() func()) {
	m.pending = append(m.pending, work)
}

// Pending returns the number of queued units of work.
func (m *Manual) Pending() int { return len(m.pending) }

// Run executes the i-th queued unit of work and its continuation.
func (m *Manual) Run(i int) {
	work := m.pending[i]
	m.pending = append(m.pending[:i], m.pending[i+1:]...)
	if cont := work(); cont != nil {
		cont()
	}
}

// RunAll drains the queue in FIFO order, including work queued while draining.
func (m *Manual) RunAll() {
	for len(m.pending) > 0 {
		m.Run(0)
	}
}

var _ Scheduler = (*Manual)(nil)
