package telecom

import (
	"sync"

	. "TCAGo/global"
	"TCAGo/radio"
)

// mailbox is the single-consumer serialization point of a Session.
// Producers on arbitrary stack threads Post events; one goroutine
// drains them strictly in arrival order and dispatches one at a time.
type mailbox struct {
	events    chan radio.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newMailbox(depth int) *mailbox {
	if depth <= 0 {
		depth = MailboxDepth
	}
	return &mailbox{
		events: make(chan radio.Event, depth),
		done:   make(chan struct{}),
	}
}

// Post enqueues an event. It blocks when the mailbox is full so that
// per-producer ordering is never traded away for drops, and returns
// immediately once the mailbox is closed.
func (m *mailbox) Post(ev radio.Event) {
	select {
	case <-m.done:
	case m.events <- ev:
	}
}

// run is the consumer loop. No new event is dispatched while a prior
// one is still being handled.
func (m *mailbox) run(s *Session) {
	WtGrp.Add(1)
	go func() {
		defer WtGrp.Done()
		defer LogCallStack()
		for {
			select {
			case <-m.done:
				return
			case ev := <-m.events:
				s.dispatch(ev)
			}
		}
	}()
}

func (m *mailbox) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}
