package protocol

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/srlab/srproto/internal/frame"
)

// Receiver implements the Selective Repeat receive side: CRC
// verification, in-window buffering, contiguous-prefix delivery, and
// cumulative-ACK emission. It is stateless between frames except for
// expected/buf/rebuilt.
type Receiver struct {
	log *log.Logger
	ack Handle

	mu       sync.Mutex
	expected uint8
	buf      [frame.Window]*frame.Frame
	rebuilt  []byte
}

// NewReceiver constructs a Receiver that emits ACKs through ack.
func NewReceiver(logger *log.Logger, ack Handle) *Receiver {
	return &Receiver{log: logger, ack: ack}
}

// OnData is the channel delivery callback for DATA frames arriving
// from the sender. It must not block beyond CRC check and buffer
// manipulation.
func (r *Receiver) OnData(f *frame.Frame) {
	if f.IsAck {
		return
	}

	ok := f.VerifyCRC()
	if ok {
		r.log.Infof("RECEPTION %s | CRC=OK", f)
	} else {
		r.log.Warnf("RECEPTION %s | CRC=FAIL", f)
		return
	}

	r.mu.Lock()
	off := int(mod8(int(f.Seq) - int(r.expected)))
	if off >= frame.Window {
		// Stale retransmission whose ACK was lost, or a frame from far
		// ahead of the window: drop silently, do not ACK.
		r.mu.Unlock()
		return
	}
	if r.buf[off] == nil {
		r.buf[off] = f
	}

	for r.buf[0] != nil {
		r.rebuilt = append(r.rebuilt, r.buf[0].Payload...)
		copy(r.buf[:frame.Window-1], r.buf[1:])
		r.buf[frame.Window-1] = nil
		r.expected = (r.expected + 1) % frame.Mod
	}
	acknum := mod8(int(r.expected) - 1)
	r.mu.Unlock()

	ack := frame.NewAck(acknum)
	r.log.Infof("ACK-> %s", ack)
	r.ack.Send(ack)
}

// Message returns a copy of the payload bytes delivered so far, in
// order.
func (r *Receiver) Message() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.rebuilt))
	copy(out, r.rebuilt)
	return out
}
