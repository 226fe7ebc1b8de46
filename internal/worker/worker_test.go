package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoWaitTracksCompletion(t *testing.T) {
	var w Worker
	done := make(chan struct{})
	w.Go(func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	})
	w.Wait()

	select {
	case <-done:
	default:
		t.Fatal("Wait returned before the goroutine finished")
	}
}

func TestHaltClosesChannelOnce(t *testing.T) {
	var w Worker
	w.Halt()
	w.Halt() // must not panic

	select {
	case <-w.HaltCh():
	default:
		t.Fatal("HaltCh did not close after Halt")
	}
}

func TestGoroutineObservesHalt(t *testing.T) {
	var w Worker
	observed := make(chan struct{})
	w.Go(func() {
		<-w.HaltCh()
		close(observed)
	})
	w.Halt()
	w.Wait()

	select {
	case <-observed:
	default:
		t.Fatal("goroutine did not observe Halt")
	}
}
