package channel

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/srlab/srproto/internal/frame"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestPerfectChannelDeliversUnmodified(t *testing.T) {
	ch, err := New(Config{}, testLogger())
	require.NoError(t, err)

	f := frame.NewData(1, 0, []byte("ABC"))
	done := make(chan *frame.Frame, 1)
	ch.Transmit(f, func(got *frame.Frame) { done <- got })

	select {
	case got := <-done:
		require.True(t, got.VerifyCRC())
		require.Equal(t, []byte("ABC"), got.Payload)
	case <-time.After(time.Second):
		t.Fatal("frame never delivered")
	}
	ch.Halt()
	ch.Wait()
}

func TestAlwaysLossDropsSilently(t *testing.T) {
	ch, err := New(Config{ProbPerte: 1.0}, testLogger())
	require.NoError(t, err)

	var called sync.WaitGroup
	called.Add(1)
	ch.Transmit(frame.NewData(0, 0, []byte("x")), func(*frame.Frame) {
		called.Done()
		t.Fatal("deliver callback must not fire on a dropped frame")
	})
	ch.Halt()
	ch.Wait()
}

func TestAlwaysCorruptFailsVerify(t *testing.T) {
	ch, err := New(Config{ProbErreur: 1.0}, testLogger())
	require.NoError(t, err)

	done := make(chan *frame.Frame, 1)
	ch.Transmit(frame.NewData(0, 0, []byte("payload")), func(got *frame.Frame) { done <- got })

	got := <-done
	require.False(t, got.VerifyCRC())
	ch.Halt()
	ch.Wait()
}

func TestCorruptionDoesNotAliasSourceFrame(t *testing.T) {
	ch, err := New(Config{ProbErreur: 1.0}, testLogger())
	require.NoError(t, err)

	src := []byte("payload")
	original := append([]byte(nil), src...)
	f := frame.NewData(0, 0, src)

	done := make(chan *frame.Frame, 1)
	ch.Transmit(f, func(got *frame.Frame) { done <- got })

	got := <-done
	require.False(t, got.VerifyCRC())
	require.True(t, f.VerifyCRC(), "source frame handed to Transmit must stay intact")
	require.Equal(t, original, src, "corruption must not mutate the caller's backing buffer")
	require.NotSame(t, f, got, "delivered frame must not be the same object as the source frame")
	ch.Halt()
	ch.Wait()
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := New(Config{ProbErreur: 1.5}, testLogger())
	require.Error(t, err)

	_, err = New(Config{ProbPerte: -0.1}, testLogger())
	require.Error(t, err)

	_, err = New(Config{ProbErreur: 0.6, ProbPerte: 0.6}, testLogger())
	require.Error(t, err)
}

func TestDelayBounded(t *testing.T) {
	ch, err := New(Config{DelaiMax: 5 * time.Millisecond}, testLogger())
	require.NoError(t, err)

	start := time.Now()
	done := make(chan struct{})
	ch.Transmit(frame.NewData(0, 0, nil), func(*frame.Frame) { close(done) })

	select {
	case <-done:
		require.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery exceeded delaiMax by a wide margin")
	}
	ch.Halt()
	ch.Wait()
}
