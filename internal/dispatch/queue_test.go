package dispatch

import (
	"testing"
	"time"
)

func TestFIFO(t *testing.T) {
	t.Run("delivers items in insertion order", func(t *testing.T) {
		q := newFIFO[int]()
		defer q.Close()

		for i := 0; i < 100; i++ {
			if !q.Push(i) {
				t.Fatalf("push %d failed", i)
			}
		}

		for i := 0; i < 100; i++ {
			got := <-q.C()
			if got != i {
				t.Fatalf("expected %d, got %d", i, got)
			}
		}
	})

	t.Run("push never blocks without a consumer", func(t *testing.T) {
		q := newFIFO[int]()
		defer q.Close()

		done := make(chan struct{})
		go func() {
			for i := 0; i < 10000; i++ {
				q.Push(i)
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("pushes blocked without a consumer")
		}

		if q.Len() == 0 {
			t.Error("expected unconsumed items to be buffered")
		}
	})

	t.Run("close closes the output channel", func(t *testing.T) {
		q := newFIFO[int]()
		q.Close()

		select {
		case _, ok := <-q.C():
			if ok {
				t.Fatal("expected closed channel")
			}
		case <-time.After(time.Second):
			t.Fatal("output channel not closed after Close")
		}
	})

	t.Run("push after close is rejected", func(t *testing.T) {
		q := newFIFO[int]()
		q.Close()

		if q.Push(1) {
			t.Fatal("expected push after close to report false")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		q := newFIFO[int]()
		q.Close()
		q.Close()
	})
}
