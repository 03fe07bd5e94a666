package trace

import (
	"strconv"
	"sync"
	"time"
)

// heartbeatTracer emits a driver-scope heartbeat every interval until
// closed. A trace whose heartbeats continue after the last span end points
// at a hang.
type heartbeatTracer struct {
	Tracer
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func withHeartbeat(t Tracer, every time.Duration) *heartbeatTracer {
	h := &heartbeatTracer{Tracer: t, stop: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		tick := time.NewTicker(every)
		defer tick.Stop()
		for n := 1; ; n++ {
			select {
			case <-tick.C:
				t.Emit(&Event{
					Time:   time.Now(),
					Seq:    NextSeq(),
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: "#" + strconv.Itoa(n),
				})
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

func (h *heartbeatTracer) Close() error {
	h.once.Do(func() {
		close(h.stop)
		h.wg.Wait()
	})
	return h.Tracer.Close()
}
