// Package protocol implements the Selective Repeat sender and receiver
// state machines, wired to each other through channel-abstraction
// capability objects rather than bind-after-construct callbacks.
package protocol

import (
	"github.com/srlab/srproto/internal/channel"
	"github.com/srlab/srproto/internal/frame"
)

// Handle is a capability object that writes frames into a peer's
// inbound path via a channel. A Sender is given a Handle resolving to
// the Receiver's OnData; a Receiver is given a Handle resolving to the
// Sender's OnAck.
type Handle struct {
	Channel *channel.Channel
	Deliver channel.DeliverFunc
}

// Send transmits f via the handle's channel.
func (h Handle) Send(f *frame.Frame) {
	h.Channel.Transmit(f, h.Deliver)
}

// mod8 reduces a signed difference into [0, frame.Mod).
func mod8(x int) uint8 {
	x %= frame.Mod
	if x < 0 {
		x += frame.Mod
	}
	return uint8(x)
}
