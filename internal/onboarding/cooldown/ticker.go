package cooldown

import (
	"sync"
	"time"
)

// Ticker calls Controller.Tick once per interval on its own goroutine and
// hands every snapshot to an optional observer.
type Ticker struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartTicker starts ticking c every interval. observe may be nil; it runs on
// the ticker goroutine and must not block.
func StartTicker(c *Controller, interval time.Duration, observe func(Snapshot)) *Ticker {
	t := &Ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(c, interval, observe)
	return t
}

func (t *Ticker) run(c *Controller, interval time.Duration, observe func(Snapshot)) {
	defer close(t.done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
			snap := c.Tick()
			if observe != nil {
				observe(snap)
			}
		}
	}
}

// Stop ends ticking and returns once the goroutine has exited. It is safe to
// call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
