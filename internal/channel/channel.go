// Package channel simulates an unreliable data-link: each transmitted
// frame is independently dropped, corrupted, or delayed before a single
// delivery callback fires. It does not guarantee FIFO delivery across
// frames, so the protocol above it must tolerate in-window reordering.
package channel

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/srlab/srproto/internal/frame"
	"github.com/srlab/srproto/internal/worker"
)

// Config holds the three channel parameters: corruption probability,
// loss probability, and maximum delivery delay.
type Config struct {
	// ProbErreur is the per-frame corruption probability, in [0,1].
	ProbErreur float64
	// ProbPerte is the per-frame loss probability, in [0,1].
	ProbPerte float64
	// DelaiMax is the upper bound of the per-frame uniform delivery
	// delay.
	DelaiMax time.Duration
}

// Validate rejects out-of-range parameters at construction rather than
// letting them surface as silent, hard-to-diagnose behavior later.
func (c Config) Validate() error {
	if c.ProbErreur < 0 || c.ProbErreur > 1 {
		return fmt.Errorf("channel: probErreur %g out of [0,1]", c.ProbErreur)
	}
	if c.ProbPerte < 0 || c.ProbPerte > 1 {
		return fmt.Errorf("channel: probPerte %g out of [0,1]", c.ProbPerte)
	}
	if c.ProbErreur+c.ProbPerte > 1 {
		return fmt.Errorf("channel: probErreur+probPerte %g exceeds 1", c.ProbErreur+c.ProbPerte)
	}
	if c.DelaiMax < 0 {
		return fmt.Errorf("channel: delaiMax %s is negative", c.DelaiMax)
	}
	return nil
}

// DeliverFunc is invoked exactly once per non-dropped Transmit, on a
// worker goroutine, after the drawn delay.
type DeliverFunc func(*frame.Frame)

// Channel simulates loss, corruption, and bounded delay for each frame
// handed to Transmit. Its own bookkeeping (the RNG) is serialized; it
// holds no long-lived state beyond in-flight scheduled deliveries.
type Channel struct {
	cfg Config
	log *log.Logger

	mu  sync.Mutex
	rng *rand.Rand

	worker.Worker
}

// New constructs a Channel. logger should already be scoped (e.g. via
// WithPrefix("CH")) to this channel's log origin.
func New(cfg Config, logger *log.Logger) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Channel{
		cfg: cfg,
		log: logger,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Transmit draws the channel's outcome for f and, unless dropped,
// schedules a single call to deliver after an independently-drawn
// delay. f is always encoded to its wire layout and decoded back into
// a fresh Frame before delivery (or discarded on loss); the frame
// handed to deliver never aliases f or its payload, so corruption here
// can never poison the sender's retransmission copy. Corruption
// increments one encoded payload byte without recomputing the CRC, so
// the receiver's verification will (almost always) catch it; a frame
// with an empty payload (an ACK) passes through unaltered, though it is
// still logged as corrupted.
func (c *Channel) Transmit(f *frame.Frame, deliver DeliverFunc) {
	u, delayMs := c.draw()

	if u < c.cfg.ProbPerte {
		c.log.Warnf("Trame perdue : %s", f)
		return
	}

	wire := f.Encode()
	corrupted := false
	if u < c.cfg.ProbPerte+c.cfg.ProbErreur {
		c.corrupt(wire, int(f.Length))
		corrupted = true
	}
	out, err := frame.Decode(wire)
	if err != nil {
		c.log.Errorf("Trame illisible après encodage : %s", err)
		return
	}
	if corrupted {
		c.log.Warnf("Trame corrompue : %s", out)
	}

	delay := time.Duration(delayMs) * time.Millisecond
	c.log.Infof("Transmission (+%d ms) : %s", delayMs, out)
	c.Worker.Go(func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		c.log.Infof("Trame livrée : %s", out)
		deliver(out)
	})
}

// draw returns a uniform draw in [0,1) and an independent uniform delay
// in [0, delaiMax] milliseconds, under the channel's RNG lock.
func (c *Channel) draw() (float64, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.rng.Float64()
	delayMs := 0
	if c.cfg.DelaiMax > 0 {
		delayMs = c.rng.Intn(int(c.cfg.DelaiMax/time.Millisecond) + 1)
	}
	return u, delayMs
}

// corrupt alters exactly one payload byte of an encoded wire frame at
// a uniform random position, incrementing it modulo 256. The CRC
// trailer is left as-is, so the mutation is detectable by VerifyCRC.
// wire's header+payload region is untouched beyond that single byte;
// the caller owns wire exclusively, so this never reaches into the
// sender's retransmission copy or the caller's input buffer. With
// payloadLen 0 nothing is altered.
func (c *Channel) corrupt(wire []byte, payloadLen int) {
	if payloadLen == 0 {
		return
	}
	c.mu.Lock()
	pos := c.rng.Intn(payloadLen)
	c.mu.Unlock()
	wire[frame.HeaderLen+pos] = wire[frame.HeaderLen+pos] + 1
}
