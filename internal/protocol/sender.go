package protocol

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/srlab/srproto/internal/frame"
)

// defaultMaxDuration is the wall-clock bail-out for Send: a pragmatic
// guard, not a protocol property, so it is a Sender option rather than
// a hardcoded constant.
const defaultMaxDuration = 10 * time.Second

// fillInterval is the sleep between fill-loop iterations, avoiding a
// busy spin while waiting for window slots to free up.
const fillInterval = 2 * time.Millisecond

// Option configures a Sender at construction.
type Option func(*Sender)

// WithMaxDuration overrides the wall-clock bound on Send.
func WithMaxDuration(d time.Duration) Option {
	return func(s *Sender) { s.maxDuration = d }
}

// WithAckCRCVerification enables CRC checking of inbound ACK frames.
// Disabled by default: a corrupted ACK is functionally equivalent to a
// lost one and resolves via timeout regardless.
func WithAckCRCVerification() Option {
	return func(s *Sender) { s.verifyAckCRC = true }
}

// WithSysLogger routes the wall-clock-deadline message through a
// logger distinct from the sender's own TX-prefixed one. Defaults to
// the sender's own logger.
func WithSysLogger(l *log.Logger) Option {
	return func(s *Sender) { s.sysLog = l }
}

// Sender implements the Selective Repeat send side: segmentation,
// window fill, per-frame timers, and cumulative-ACK processing.
type Sender struct {
	log     *log.Logger
	sysLog  *log.Logger
	data    Handle
	timeout time.Duration

	maxDuration  time.Duration
	verifyAckCRC bool

	mu       sync.Mutex
	base     uint8
	nextSeq  uint8
	window   map[uint8]*frame.Frame
	timers   map[uint8]*time.Timer
	injected int

	Stats Stats
}

// NewSender constructs a Sender that transmits DATA frames through
// data and expects ACKs to be routed back to its OnAck method.
func NewSender(logger *log.Logger, data Handle, timeout time.Duration, opts ...Option) *Sender {
	s := &Sender{
		log:         logger,
		sysLog:      logger,
		data:        data,
		timeout:     timeout,
		maxDuration: defaultMaxDuration,
		window:      make(map[uint8]*frame.Frame),
		timers:      make(map[uint8]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send segments message into chunks of at most frame.MaxPayload bytes
// and drives them across the window until every chunk has been
// injected and acknowledged, or until the WithMaxDuration bound (10s by
// default) elapses.
func (s *Sender) Send(message []byte) Snapshot {
	chunks := segment(message)
	start := time.Now()

	for {
		if time.Since(start) > s.maxDuration {
			s.sysLog.Warnf("Durée limite %s atteinte — arrêt du protocole.", s.maxDuration)
			break
		}

		s.mu.Lock()
		off := s.fillLocked(chunks, s.injected)
		s.injected = off
		done := s.injected >= len(chunks) && len(s.window) == 0
		s.mu.Unlock()

		if done {
			break
		}
		time.Sleep(fillInterval)
	}

	return Snapshot{
		FramesSent:          s.Stats.FramesSent.Load(),
		FramesRetransmitted: s.Stats.FramesRetransmitted.Load(),
		AcksReceived:        s.Stats.AcksReceived.Load(),
		DurationSeconds:     time.Since(start).Seconds(),
	}
}

// fillLocked injects chunks starting at off into free window slots,
// returning the updated offset. Caller must hold s.mu.
func (s *Sender) fillLocked(chunks [][]byte, off int) int {
	for off < len(chunks) && s.freeSlotsLocked() > 0 {
		payload := chunks[off]
		var acknum uint8
		if len(s.window) > 0 {
			acknum = mod8(int(s.base) - 1)
		} else {
			acknum = mod8(int(s.nextSeq) - 1)
		}
		f := frame.NewData(s.nextSeq, acknum, payload)
		s.window[s.nextSeq] = f
		s.sendWithTimerLocked(f)
		s.Stats.FramesSent.Add(1)
		s.nextSeq = (s.nextSeq + 1) % frame.Mod
		off++
	}
	return off
}

// freeSlotsLocked returns how many additional frames may be in flight.
// Caller must hold s.mu.
func (s *Sender) freeSlotsLocked() int {
	used := int(mod8(int(s.nextSeq) - int(s.base)))
	return frame.Window - used
}

// sendWithTimerLocked transmits frame and (re)arms its retransmission
// timer. Caller must hold s.mu.
func (s *Sender) sendWithTimerLocked(f *frame.Frame) {
	s.log.Infof("ENVOI %s (timeout=%s)", f, s.timeout)
	s.data.Send(f)

	seq := f.Seq
	if t, ok := s.timers[seq]; ok {
		t.Stop()
	}
	s.timers[seq] = time.AfterFunc(s.timeout, func() { s.onTimeout(seq) })
}

// onTimeout runs on the timer's own goroutine. It re-checks window
// membership under the lock to absorb the ACK-vs-timeout race: an ACK
// may have already retired this slot.
func (s *Sender) onTimeout(seq uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.window[seq]
	if !ok {
		return
	}
	s.log.Warnf("TIMEOUT seq=%d -> RETRANSMISSION", seq)
	s.Stats.FramesRetransmitted.Add(1)
	s.sendWithTimerLocked(f)
}

// OnAck is the channel delivery callback for ACK frames arriving from
// the receiver. It slides base cumulatively past every sequence the
// ACK covers.
func (s *Sender) OnAck(f *frame.Frame) {
	if !f.IsAck {
		return
	}
	if s.verifyAckCRC && !f.VerifyCRC() {
		s.log.Warnf("ACK RECU %s | CRC=FAIL (ignored)", f)
		return
	}

	s.Stats.AcksReceived.Add(1)
	a := f.AckNum
	s.log.Infof("ACK RECU a=%d", a)

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.base != (a+1)%frame.Mod && len(s.window) > 0 {
		if t, ok := s.timers[s.base]; ok {
			t.Stop()
			delete(s.timers, s.base)
		}
		delete(s.window, s.base)
		s.base = (s.base + 1) % frame.Mod
	}
}

// segment splits data into chunks of at most frame.MaxPayload bytes,
// preserving order. An empty message yields zero chunks.
func segment(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(data)+frame.MaxPayload-1)/frame.MaxPayload)
	for i := 0; i < len(data); i += frame.MaxPayload {
		end := i + frame.MaxPayload
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}
