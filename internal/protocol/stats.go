package protocol

import "sync/atomic"

// Stats is the counter bundle the sender exposes to its caller:
// frames sent, frames retransmitted, and ACKs received. The run's
// wall-clock duration is not kept here; it is reported in the Snapshot
// that Send returns. Fields are safe
// for concurrent reads while a Send is in flight, e.g. from a metrics
// scrape.
type Stats struct {
	FramesSent         atomic.Int64
	FramesRetransmitted atomic.Int64
	AcksReceived       atomic.Int64
}

// Snapshot is an immutable point-in-time read of Stats plus the run
// duration, suitable for logging or reporting.
type Snapshot struct {
	FramesSent          int64
	FramesRetransmitted int64
	AcksReceived        int64
	DurationSeconds     float64
}
