package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyedQueueEvictsDrainedKeys(t *testing.T) {
	q := NewKeyedQueue()

	release, err := q.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	release()
	release() // idempotent
	if q.Len() != 0 {
		t.Errorf("Len() = %d after release, want 0", q.Len())
	}
}

func TestKeyedQueueWaitHonorsContext(t *testing.T) {
	q := NewKeyedQueue()
	release, _ := q.Acquire(context.Background(), "a")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Acquire(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// the abandoned waiter does not keep a reference
	release()
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestKeyedQueueHandsOffInOrder(t *testing.T) {
	q := NewKeyedQueue()
	release, _ := q.Acquire(context.Background(), "a")

	order := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		go func() {
			r, err := q.Acquire(context.Background(), "a")
			if err != nil {
				return
			}
			order <- i
			r()
		}()
		time.Sleep(10 * time.Millisecond)
	}
	release()

	for want := 1; want <= 3; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Errorf("acquired %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("waiter never acquired")
		}
	}
}
