package caller

import "sync"

// dispatcher delivers events on its own goroutine in push order, so
// listeners may call back into the Caller without deadlocking
type dispatcher struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []Event
	listeners map[int]Listener
	nextID    int
	closed    bool
	stopped   chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		listeners: make(map[int]Listener),
		stopped:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *dispatcher) subscribe(l Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners[id] = l

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

func (d *dispatcher) push(events ...Event) {
	if len(events) == 0 {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.queue = append(d.queue, events...)
	}
	d.mu.Unlock()
	d.cond.Signal()
}

// flush blocks until every event pushed before the call has been delivered
func (d *dispatcher) flush() {
	done := make(chan struct{})

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, Event{done: done})
	d.mu.Unlock()
	d.cond.Signal()

	select {
	case <-done:
	case <-d.stopped:
	}
}

// close delivers what is queued and stops the goroutine
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
	<-d.stopped
}

func (d *dispatcher) run() {
	defer close(d.stopped)

	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}

		batch := d.queue
		d.queue = nil
		listeners := make([]Listener, 0, len(d.listeners))
		for id := 1; id <= d.nextID; id++ {
			if l, ok := d.listeners[id]; ok {
				listeners = append(listeners, l)
			}
		}
		d.mu.Unlock()

		for _, ev := range batch {
			if ev.done != nil {
				close(ev.done)
				continue
			}
			for _, l := range listeners {
				l(ev)
			}
		}
	}
}
