package capture

// Slot is the single-slot frame handoff between the capture goroutine
// and the display side. Latest frame wins: putting into a full slot
// replaces the pending frame instead of queuing behind it.
type Slot struct {
	ch chan []byte
}

func NewSlot() *Slot {
	return &Slot{ch: make(chan []byte, 1)}
}

// Put publishes a frame without ever blocking the capture goroutine.
func (s *Slot) Put(frame []byte) {
	for {
		select {
		case s.ch <- frame:
			return
		default:
			// Consumer is behind; discard the stale pending frame.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Frames is the consumer side of the slot. Receiving yields the most
// recently published frame not yet consumed.
func (s *Slot) Frames() <-chan []byte {
	return s.ch
}
