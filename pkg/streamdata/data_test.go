package streamdata

import (
	"errors"
	"sync"
	"testing"
)

func TestAppendDrain(t *testing.T) {
	d := New()

	if err := d.Append(map[string]string{"test": "value"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := d.Append(42); err != nil {
		t.Fatalf("Append: %v", err)
	}

	values := d.Drain()
	if len(values) != 2 {
		t.Fatalf("Drain returned %d values, want 2", len(values))
	}
	if string(values[0]) != `{"test":"value"}` {
		t.Errorf("values[0] = %s", values[0])
	}
	if string(values[1]) != `42` {
		t.Errorf("values[1] = %s", values[1])
	}

	if again := d.Drain(); again != nil {
		t.Errorf("second Drain = %s, want nil", again)
	}
}

func TestAppendRejectsUnserializable(t *testing.T) {
	d := New()
	if err := d.Append(make(chan int)); err == nil {
		t.Fatal("expected error for a channel value")
	}
	if got := d.Drain(); got != nil {
		t.Errorf("rejected value should not be queued, Drain() = %s", got)
	}
}

func TestClose(t *testing.T) {
	d := New()
	d.Append("before")

	select {
	case <-d.Done():
		t.Fatal("Done closed before Close")
	default:
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-d.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}

	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if err := d.Append("after"); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}

	values := d.Drain()
	if len(values) != 1 || string(values[0]) != `"before"` {
		t.Errorf("values appended before Close should survive, got %s", values)
	}
}

func TestConcurrentAppend(t *testing.T) {
	d := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Append(n)
		}(i)
	}
	wg.Wait()
	d.Close()

	if got := len(d.Drain()); got != 50 {
		t.Errorf("drained %d values, want 50", got)
	}
}
